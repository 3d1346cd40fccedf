package audit

import (
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	entitiesKey     = "extracted_entities"
	analysisFailed  = "AI Analysis Failed"
	minScore        = 0
	maxScore        = 100
	confidenceName  = 30
	confidenceEmail = 30
	confidencePhone = 20
	confidenceSkill = 20
)

// AILayers are the model-scored layers, in weight order.
var AILayers = []LayerName{
	LayerShadowSchema,
	LayerMatrixFiltering,
	LayerVersionControl,
	LayerContentContext,
}

// layerLabels describe the AI layers; a label also fills a missing description.
var layerLabels = map[LayerName]string{
	LayerShadowSchema:    "Private Field Gap Analysis",
	LayerMatrixFiltering: "Location/Dept Signal Lock",
	LayerVersionControl:  "Stagnant Signal Risk",
	LayerContentContext:  "Full Content Context Audit",
}

// layerWeights is ordered so that the weighted sum is computed the same way
// on every run.
var layerWeights = []struct {
	name   LayerName
	weight float64
}{
	{LayerShadowSchema, 0.30},
	{LayerMatrixFiltering, 0.20},
	{LayerVersionControl, 0.10},
	{LayerContentContext, 0.10},
	{LayerComplianceGating, 0.30},
}

// Entities are the candidate details reported by the model.
type Entities struct {
	Name   *string
	Email  *string
	Phone  *string
	Skills []string
}

// Fusion is the hardened AI output merged with the compliance layer.
type Fusion struct {
	Layers            map[LayerName]Layer
	Entities          Entities
	OverallScore      int
	ParsingConfidence int
}

// FallbackLayer is used for an AI layer that is missing or has no score.
func FallbackLayer(name LayerName) Layer {
	return Layer{
		Score:       0,
		Flags:       []string{analysisFailed},
		Description: layerLabels[name],
	}
}

// Fuse repairs the model payload layer by layer and combines it with the
// compliance layer. payload may be nil.
func Fuse(payload map[string]any, compliance Layer) Fusion {
	if payload == nil {
		payload = map[string]any{}
	}

	layers := make(map[LayerName]Layer, len(AILayers)+1)
	for _, name := range AILayers {
		layers[name] = hardenLayer(name, payload[string(name)])
	}

	compliance.Score = clamp(compliance.Score)
	if compliance.Flags == nil {
		compliance.Flags = []string{}
	}
	layers[LayerComplianceGating] = compliance

	entities := hardenEntities(payload[entitiesKey])

	return Fusion{
		Layers:            layers,
		Entities:          entities,
		OverallScore:      OverallScore(layers),
		ParsingConfidence: ParsingConfidence(entities),
	}
}

// hardenLayer keeps any present score. Flags and description are decoded
// separately so that a malformed one does not discard the score.
func hardenLayer(name LayerName, value any) Layer {
	fields, ok := value.(map[string]any)
	if !ok {
		return FallbackLayer(name)
	}

	score, ok := decodeScore(fields["score"])
	if !ok {
		return FallbackLayer(name)
	}

	layer := Layer{
		Score:       clamp(int(math.Round(math.Max(math.Min(score, maxScore), minScore)))),
		Flags:       decodeStrings(fields["flags"]),
		Description: layerLabels[name],
	}
	if description := decodeString(fields["description"]); description != nil {
		layer.Description = *description
	}
	return layer
}

// decodeScore reports false for an absent, blank or undecodable score.
func decodeScore(value any) (float64, bool) {
	if value == nil {
		return 0, false
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return 0, false
	}

	var score float64
	if err := weakDecode(value, &score); err != nil || math.IsNaN(score) {
		return 0, false
	}
	return score, true
}

func hardenEntities(value any) Entities {
	fields, ok := value.(map[string]any)
	if !ok {
		return Entities{Skills: []string{}}
	}

	return Entities{
		Name:   decodeString(fields["name"]),
		Email:  decodeString(fields["email"]),
		Phone:  decodeString(fields["phone"]),
		Skills: decodeStrings(fields["skills"]),
	}
}

// decodeString returns the trimmed value, or nil when it is absent, blank or
// not a scalar.
func decodeString(value any) *string {
	var s string
	if value == nil || weakDecode(value, &s) != nil {
		return nil
	}
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

// decodeStrings keeps the elements that decode to non-blank strings. A
// single scalar is treated as a one-element list.
func decodeStrings(value any) []string {
	items, ok := value.([]any)
	if !ok {
		items = []any{value}
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		if s := decodeString(item); s != nil {
			result = append(result, *s)
		}
	}
	return result
}

// OverallScore is the weighted sum of all five layers, rounded half away
// from zero.
func OverallScore(layers map[LayerName]Layer) int {
	total := 0.0
	for _, lw := range layerWeights {
		total += lw.weight * float64(layers[lw.name].Score)
	}
	return clamp(int(math.Round(total)))
}

// ParsingConfidence scores entity presence with fixed weights. It does not
// look at any confidence the model may have reported.
func ParsingConfidence(e Entities) int {
	score := 0
	if e.Name != nil {
		score += confidenceName
	}
	if e.Email != nil {
		score += confidenceEmail
	}
	if e.Phone != nil {
		score += confidencePhone
	}
	if len(e.Skills) > 0 {
		score += confidenceSkill
	}
	return score
}

func weakDecode(input, output any) error {
	if input == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func clamp(score int) int {
	return max(minScore, min(score, maxScore))
}
