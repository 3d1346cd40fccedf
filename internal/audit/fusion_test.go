package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func complianceLayer(score int, flags ...string) Layer {
	return Layer{Score: score, Flags: flags, Description: "Syntax Firewall Check (Strict MM/dd/yyyy)"}
}

func TestFuseNilPayloadUsesFallbacks(t *testing.T) {
	fusion := Fuse(nil, complianceLayer(100))

	for _, name := range AILayers {
		assert.Equal(t, FallbackLayer(name), fusion.Layers[name], name)
	}
	assert.Equal(t, 30, fusion.OverallScore)
	assert.Equal(t, 0, fusion.ParsingConfidence)
	assert.NotNil(t, fusion.Entities.Skills)
	assert.Empty(t, fusion.Entities.Skills)
	assert.Nil(t, fusion.Entities.Name)
}

func TestFallbackLabels(t *testing.T) {
	want := map[LayerName]string{
		LayerShadowSchema:    "Private Field Gap Analysis",
		LayerMatrixFiltering: "Location/Dept Signal Lock",
		LayerVersionControl:  "Stagnant Signal Risk",
		LayerContentContext:  "Full Content Context Audit",
	}
	for name, label := range want {
		layer := FallbackLayer(name)
		assert.Equal(t, 0, layer.Score)
		assert.Equal(t, []string{"AI Analysis Failed"}, layer.Flags)
		assert.Equal(t, label, layer.Description)
	}
}

func TestFuseRepairsEachLayerIndependently(t *testing.T) {
	payload := map[string]any{
		"shadow_schema":    map[string]any{"score": float64(0), "flags": []any{"Missing salary"}, "description": "Gap check"},
		"matrix_filtering": map[string]any{"score": "85"},
		"version_control":  map[string]any{"flags": []any{"no score"}},
		"content_context":  "not an object",
	}

	fusion := Fuse(payload, complianceLayer(100))

	assert.Equal(t, Layer{Score: 0, Flags: []string{"Missing salary"}, Description: "Gap check"}, fusion.Layers[LayerShadowSchema],
		"a zero score is an answer, not a failure")
	assert.Equal(t, Layer{Score: 85, Flags: []string{}, Description: "Location/Dept Signal Lock"}, fusion.Layers[LayerMatrixFiltering])
	assert.Equal(t, FallbackLayer(LayerVersionControl), fusion.Layers[LayerVersionControl])
	assert.Equal(t, FallbackLayer(LayerContentContext), fusion.Layers[LayerContentContext])
}

func TestFuseClampsAndRoundsScores(t *testing.T) {
	payload := map[string]any{
		"shadow_schema":    map[string]any{"score": float64(140)},
		"matrix_filtering": map[string]any{"score": float64(-12)},
		"version_control":  map[string]any{"score": 72.5},
		"content_context":  map[string]any{"score": "33.4"},
	}

	fusion := Fuse(payload, complianceLayer(250))

	assert.Equal(t, 100, fusion.Layers[LayerShadowSchema].Score)
	assert.Equal(t, 0, fusion.Layers[LayerMatrixFiltering].Score)
	assert.Equal(t, 73, fusion.Layers[LayerVersionControl].Score)
	assert.Equal(t, 33, fusion.Layers[LayerContentContext].Score)
	assert.Equal(t, 100, fusion.Layers[LayerComplianceGating].Score)
}

func TestOverallScore(t *testing.T) {
	tests := []struct {
		name                   string
		ss, mf, vc, cc, cg, want int
	}{
		{name: "all zero", want: 0},
		{name: "all full", ss: 100, mf: 100, vc: 100, cc: 100, cg: 100, want: 100},
		{name: "compliance only", cg: 100, want: 30},
		{name: "compliance 80", cg: 80, want: 24},
		{name: "mixed", ss: 80, mf: 60, vc: 40, cc: 0, cg: 100, want: 70},
		{name: "half rounds up", ss: 5, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layers := map[LayerName]Layer{
				LayerShadowSchema:     {Score: tt.ss},
				LayerMatrixFiltering:  {Score: tt.mf},
				LayerVersionControl:   {Score: tt.vc},
				LayerContentContext:   {Score: tt.cc},
				LayerComplianceGating: {Score: tt.cg},
			}
			assert.Equal(t, tt.want, OverallScore(layers))
		})
	}
}

func TestParsingConfidence(t *testing.T) {
	tests := []struct {
		name     string
		entities Entities
		want     int
	}{
		{name: "nothing", want: 0},
		{name: "name", entities: Entities{Name: strPtr("Ada")}, want: 30},
		{name: "email", entities: Entities{Email: strPtr("ada@example.com")}, want: 30},
		{name: "phone", entities: Entities{Phone: strPtr("+1 555 0100")}, want: 20},
		{name: "skills", entities: Entities{Skills: []string{"Go"}}, want: 20},
		{name: "empty skills", entities: Entities{Skills: []string{}}, want: 0},
		{
			name:     "everything",
			entities: Entities{Name: strPtr("Ada"), Email: strPtr("a@b.c"), Phone: strPtr("1"), Skills: []string{"Go"}},
			want:     100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsingConfidence(tt.entities))
		})
	}
}

func TestFuseIgnoresModelConfidence(t *testing.T) {
	payload := map[string]any{
		"confidence_score": float64(99),
		entitiesKey: map[string]any{
			"name":             "  Ada Lovelace ",
			"email":            "   ",
			"phone":            float64(5550100),
			"skills":           []any{"Go", " ", "SQL"},
			"confidence_score": float64(97),
		},
	}

	fusion := Fuse(payload, complianceLayer(0))

	require.NotNil(t, fusion.Entities.Name)
	assert.Equal(t, "Ada Lovelace", *fusion.Entities.Name)
	assert.Nil(t, fusion.Entities.Email, "blank strings are absent")
	require.NotNil(t, fusion.Entities.Phone)
	assert.Equal(t, "5550100", *fusion.Entities.Phone)
	assert.Equal(t, []string{"Go", "SQL"}, fusion.Entities.Skills)
	assert.Equal(t, 70, fusion.ParsingConfidence)
}

func TestFuseMalformedEntities(t *testing.T) {
	fusion := Fuse(map[string]any{entitiesKey: []any{"Ada"}}, complianceLayer(0))

	assert.Equal(t, Entities{Skills: []string{}}, fusion.Entities)
	assert.Equal(t, 0, fusion.ParsingConfidence)
}

func TestFuseKeepsScoreBesideMalformedFields(t *testing.T) {
	payload := map[string]any{
		"shadow_schema":    map[string]any{"score": float64(80), "flags": []any{map[string]any{"k": "v"}}},
		"matrix_filtering": map[string]any{"score": float64(70), "flags": []any{"Relocation unclear", map[string]any{"k": "v"}}, "description": map[string]any{"x": float64(1)}},
		"version_control":  map[string]any{"score": float64(55), "flags": "Generic summary"},
	}

	fusion := Fuse(payload, complianceLayer(100))

	assert.Equal(t, Layer{Score: 80, Flags: []string{}, Description: "Private Field Gap Analysis"}, fusion.Layers[LayerShadowSchema])
	assert.Equal(t, Layer{Score: 70, Flags: []string{"Relocation unclear"}, Description: "Location/Dept Signal Lock"}, fusion.Layers[LayerMatrixFiltering])
	assert.Equal(t, Layer{Score: 55, Flags: []string{"Generic summary"}, Description: "Stagnant Signal Risk"}, fusion.Layers[LayerVersionControl])
}

func TestFuseTreatsUnusableScoresAsAbsent(t *testing.T) {
	tests := []struct {
		name  string
		score any
	}{
		{name: "empty string", score: ""},
		{name: "blank string", score: "   "},
		{name: "null", score: nil},
		{name: "not a number", score: "high"},
		{name: "object", score: map[string]any{"value": float64(80)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := map[string]any{
				"shadow_schema": map[string]any{"score": tt.score, "flags": []any{"answered"}},
			}
			fusion := Fuse(payload, complianceLayer(0))
			assert.Equal(t, FallbackLayer(LayerShadowSchema), fusion.Layers[LayerShadowSchema])
		})
	}
}

func TestFuseEntitiesFieldByField(t *testing.T) {
	payload := map[string]any{
		entitiesKey: map[string]any{
			"name":   "Ada Lovelace",
			"email":  map[string]any{"primary": "ada@example.com"},
			"skills": []any{"Go", map[string]any{"k": "v"}},
		},
	}

	fusion := Fuse(payload, complianceLayer(0))

	require.NotNil(t, fusion.Entities.Name)
	assert.Equal(t, "Ada Lovelace", *fusion.Entities.Name)
	assert.Nil(t, fusion.Entities.Email)
	assert.Equal(t, []string{"Go"}, fusion.Entities.Skills)
	assert.Equal(t, 50, fusion.ParsingConfidence)
}
