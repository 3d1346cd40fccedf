package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/ats-auditor/internal/logger"
	"github.com/spigell/ats-auditor/internal/utils"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

const (
	// RoleBudget and ResumeBudget cap the prompt inputs, in runes.
	RoleBudget   = 3000
	ResumeBudget = 5000

	syntheticRoleLabel  = " (SYNTHETIC PLATINUM STANDARD)"
	defaultMaxLogLength = 200
)

var errNotObject = errors.New("payload is not a JSON object")

var (
	//go:embed prompts/audit.md
	auditTemplate string

	//go:embed prompts/assessment.schema.json
	assessmentSchema string
)

// CascadeConfig configures the model cascade.
type CascadeConfig struct {
	// Models are tried in order, most capable first.
	Models []string
	// Delay is waited between two attempts.
	Delay        time.Duration
	MaxLogLength int
}

// Cascade asks an ordered list of models for a structured audit and keeps the
// first usable answer.
type Cascade struct {
	generator Generator
	models    []string
	delay     time.Duration
	schema    *gojsonschema.Schema
	logger    *zap.Logger
	maxLogLen int
}

// NewCascade builds a cascade over the non-blank model ids in cfg.
func NewCascade(generator Generator, cfg CascadeConfig, log *zap.Logger) (*Cascade, error) {
	if generator == nil {
		return nil, errors.New("generator is required")
	}

	models := make([]string, 0, len(cfg.Models))
	for _, model := range cfg.Models {
		if model = strings.TrimSpace(model); model != "" {
			models = append(models, model)
		}
	}
	if len(models) == 0 {
		return nil, errors.New("at least one model is required for the cascade")
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(assessmentSchema))
	if err != nil {
		return nil, fmt.Errorf("compile assessment schema: %w", err)
	}

	maxLogLength := cfg.MaxLogLength
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Cascade{
		generator: generator,
		models:    models,
		delay:     cfg.Delay,
		schema:    schema,
		logger:    logger.OrNop(log),
		maxLogLen: maxLogLength,
	}, nil
}

// Models returns the cascade order.
func (c *Cascade) Models() []string {
	return append([]string(nil), c.models...)
}

// Assess runs the cascade. A nil assessment with a nil error means every
// model failed; the only error returned is the context's.
//
// A response that arrives but cannot be parsed into a JSON object is treated
// like an empty response: the next model is tried.
func (c *Cascade) Assess(ctx context.Context, role EffectiveRole, resumeText string) (*Assessment, error) {
	prompt := BuildAuditPrompt(role, resumeText)

	for i, model := range c.models {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if i > 0 && c.delay > 0 {
			if err := utils.WaitFor(ctx, c.delay); err != nil {
				return nil, err
			}
		}

		log := logger.WithFields(c.logger, append(logger.CommonFields("", model), zap.Int(logger.FieldAttempt, i+1))...)

		log.Debug("audit generate content request",
			zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
			zap.String("prompt_preview", utils.TruncateForLog(prompt, c.maxLogLen)),
		)

		raw, err := c.generator.GenerateContent(ctx, model, prompt, true)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Warn("model failed, advancing cascade", zap.Error(err))
			continue
		}

		if strings.TrimSpace(raw) == "" {
			log.Warn("model returned no text, advancing cascade")
			continue
		}

		log.Debug("audit generate content response",
			zap.Int("response_length", utf8.RuneCountInString(raw)),
			zap.String("response_preview", utils.TruncateForLog(raw, c.maxLogLen)),
		)

		payload, err := ParsePayload(raw)
		if err != nil {
			log.Warn("model returned unparsable output, advancing cascade", zap.Error(err))
			continue
		}

		c.checkSchema(log, payload)

		log.Info("audit assessment received")
		return &Assessment{Model: model, Payload: payload, Raw: raw}, nil
	}

	c.logger.Error("model cascade exhausted", zap.Strings("models", c.models))
	return nil, nil
}

// checkSchema reports schema violations. The payload is kept either way:
// each layer is repaired on its own later.
func (c *Cascade) checkSchema(log *zap.Logger, payload map[string]any) {
	result, err := c.schema.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		log.Debug("assessment schema check failed", zap.Error(err))
		return
	}
	if result.Valid() {
		return
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		violations = append(violations, violation.String())
	}
	log.Warn("assessment does not match schema", zap.Strings("violations", violations))
}

// BuildAuditPrompt renders the audit prompt with both inputs cut to budget.
func BuildAuditPrompt(role EffectiveRole, resumeText string) string {
	label := ""
	if role.Synthetic {
		label = syntheticRoleLabel
	}

	return strings.NewReplacer(
		"{{ROLE_LABEL}}", label,
		"{{ROLE}}", utils.TruncateRunes(role.Text, RoleBudget),
		"{{RESUME}}", utils.TruncateRunes(resumeText, ResumeBudget),
	).Replace(auditTemplate)
}

// ParsePayload strips markdown fencing and decodes a JSON object.
func ParsePayload(raw string) (map[string]any, error) {
	cleaned := StripFences(raw)

	var decoded any
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, fmt.Errorf("parse assessment: %w", err)
	}

	payload, ok := decoded.(map[string]any)
	if !ok {
		return nil, errNotObject
	}

	return payload, nil
}

// StripFences removes markdown code fences wrapped around a model answer.
func StripFences(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```JSON", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}
