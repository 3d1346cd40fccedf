// Package ai holds the generative-model side of an audit: the capability
// boundary, the role-description synthesizer and the model cascade.
package ai

import (
	"context"
)

// Generator is the generative-text capability. When structured is set the
// model is asked for a JSON response.
type Generator interface {
	GenerateContent(ctx context.Context, model, prompt string, structured bool) (string, error)
}

// Assessment is the parsed payload of the first model in the cascade that
// produced a usable answer. Scores are kept untyped here; hardening happens
// downstream.
type Assessment struct {
	Model   string
	Payload map[string]any
	Raw     string
}

// EffectiveRole is the role description an audit is scored against.
type EffectiveRole struct {
	Text string
	// Synthetic is true when Text was written by a model from a short title.
	Synthetic bool
}
