package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubReply struct {
	text string
	err  error
}

type stubGenerator struct {
	mu         sync.Mutex
	replies    map[string]stubReply
	calls      []string
	structured []bool
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, model, prompt string, structured bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, model)
	s.structured = append(s.structured, structured)
	s.lastPrompt = prompt
	reply, ok := s.replies[model]
	if !ok {
		return "", errors.New("unexpected model " + model)
	}
	return reply.text, reply.err
}

const validPayload = `{
  "shadow_schema": {"score": 80, "flags": ["No salary mismatch"]},
  "matrix_filtering": {"score": 60, "flags": []},
  "version_control": {"score": 40, "flags": ["Generic summary"]},
  "content_context": {"score": 0, "flags": ["No cultural keywords"]},
  "extracted_entities": {"name": "Ada Lovelace", "email": null, "phone": null, "skills": ["Go"]}
}`

var testModels = []string{"model-a", "model-b", "model-c"}

func newTestCascade(t *testing.T, gen Generator, log *zap.Logger) *Cascade {
	t.Helper()
	cascade, err := NewCascade(gen, CascadeConfig{Models: testModels}, log)
	require.NoError(t, err)
	return cascade
}

func TestCascadeStopsAtFirstUsableAnswer(t *testing.T) {
	gen := &stubGenerator{replies: map[string]stubReply{
		"model-a": {err: errors.New("quota exceeded")},
		"model-b": {text: "```json\n" + validPayload + "\n```"},
		"model-c": {text: validPayload},
	}}

	assessment, err := newTestCascade(t, gen, zap.NewNop()).Assess(context.Background(), EffectiveRole{Text: "Staff Engineer"}, "resume")
	require.NoError(t, err)
	require.NotNil(t, assessment)

	assert.Equal(t, "model-b", assessment.Model)
	assert.Equal(t, []string{"model-a", "model-b"}, gen.calls)
	assert.Equal(t, []bool{true, true}, gen.structured)
	assert.Contains(t, assessment.Payload, "shadow_schema")
}

func TestCascadeAdvancesOnEmptyAndMalformedOutput(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	gen := &stubGenerator{replies: map[string]stubReply{
		"model-a": {text: "   "},
		"model-b": {text: "I am sorry, I cannot score this resume."},
		"model-c": {text: validPayload},
	}}

	assessment, err := newTestCascade(t, gen, zap.New(core)).Assess(context.Background(), EffectiveRole{Text: "role"}, "resume")
	require.NoError(t, err)
	require.NotNil(t, assessment)
	assert.Equal(t, "model-c", assessment.Model)

	messages := make([]string, 0)
	for _, entry := range observed.All() {
		messages = append(messages, entry.Message)
	}
	assert.Contains(t, messages, "model returned no text, advancing cascade")
	assert.Contains(t, messages, "model returned unparsable output, advancing cascade")
}

func TestCascadeRejectsNonObjectPayload(t *testing.T) {
	gen := &stubGenerator{replies: map[string]stubReply{
		"model-a": {text: `[1, 2, 3]`},
		"model-b": {text: `"just a string"`},
		"model-c": {text: `null`},
	}}

	assessment, err := newTestCascade(t, gen, zap.NewNop()).Assess(context.Background(), EffectiveRole{Text: "role"}, "resume")
	require.NoError(t, err)
	assert.Nil(t, assessment)
	assert.Equal(t, testModels, gen.calls)
}

func TestCascadeExhaustion(t *testing.T) {
	core, observed := observer.New(zapcore.ErrorLevel)
	gen := &stubGenerator{replies: map[string]stubReply{}}

	assessment, err := newTestCascade(t, gen, zap.New(core)).Assess(context.Background(), EffectiveRole{Text: "role"}, "resume")
	require.NoError(t, err)
	assert.Nil(t, assessment)
	assert.Equal(t, testModels, gen.calls, "every model is tried exactly once, in order")
	assert.Equal(t, 1, observed.FilterMessage("model cascade exhausted").Len())
}

func TestCascadeStopsOnCancelledContext(t *testing.T) {
	gen := &stubGenerator{replies: map[string]stubReply{"model-a": {text: validPayload}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assessment, err := newTestCascade(t, gen, zap.NewNop()).Assess(ctx, EffectiveRole{Text: "role"}, "resume")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, assessment)
	assert.Empty(t, gen.calls)
}

func TestCascadeLogsSchemaViolations(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	gen := &stubGenerator{replies: map[string]stubReply{
		"model-a": {text: `{"shadow_schema": {"score": "high"}}`},
	}}

	assessment, err := newTestCascade(t, gen, zap.New(core)).Assess(context.Background(), EffectiveRole{Text: "role"}, "resume")
	require.NoError(t, err)
	require.NotNil(t, assessment, "schema violations do not reject the payload")

	entries := observed.FilterMessage("assessment does not match schema").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "model-a", entries[0].ContextMap()["ai_model"])
}

func TestNewCascadeValidation(t *testing.T) {
	_, err := NewCascade(nil, CascadeConfig{Models: testModels}, nil)
	assert.Error(t, err)

	_, err = NewCascade(&stubGenerator{}, CascadeConfig{Models: []string{" ", ""}}, nil)
	assert.Error(t, err)

	cascade, err := NewCascade(&stubGenerator{}, CascadeConfig{Models: []string{" model-a "}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"model-a"}, cascade.Models())
}

func TestBuildAuditPrompt(t *testing.T) {
	role := strings.Repeat("r", RoleBudget+100)
	resume := strings.Repeat("é", ResumeBudget+100)

	prompt := BuildAuditPrompt(EffectiveRole{Text: role, Synthetic: true}, resume)

	assert.Contains(t, prompt, "JOB DESCRIPTION (SYNTHETIC PLATINUM STANDARD):")
	assert.Contains(t, prompt, strings.Repeat("r", RoleBudget)+"\n")
	assert.NotContains(t, prompt, strings.Repeat("r", RoleBudget+1))
	assert.Contains(t, prompt, strings.Repeat("é", ResumeBudget)+"\n")
	assert.NotContains(t, prompt, strings.Repeat("é", ResumeBudget+1))
	assert.NotContains(t, prompt, "{{")

	literal := BuildAuditPrompt(EffectiveRole{Text: "Head of Data"}, "resume")
	assert.Contains(t, literal, "JOB DESCRIPTION:\nHead of Data")
	assert.NotContains(t, literal, "SYNTHETIC")
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "plain object", raw: `{"a": 1}`},
		{name: "json fence", raw: "```json\n{\"a\": 1}\n```"},
		{name: "bare fence", raw: "```\n{\"a\": 1}\n```"},
		{name: "array", raw: `[1]`, wantErr: true},
		{name: "prose", raw: "not json", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := ParsePayload(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, float64(1), payload["a"])
		})
	}
}
