package ai

import (
	"context"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/ats-auditor/internal/logger"
	"github.com/spigell/ats-auditor/internal/utils"
	"go.uber.org/zap"
)

// FullDescriptionRunes is the length from which a role text is treated as a
// complete description and used as is.
const FullDescriptionRunes = 200

const defaultCompFraming = "TARGET LEVEL: Top 1% of Market"

//go:embed prompts/synthesis.md
var synthesisTemplate string

// Synthesizer expands a short role title into a full synthetic description.
type Synthesizer struct {
	generator Generator
	model     string
	logger    *zap.Logger
	maxLogLen int
}

// NewSynthesizer builds a Synthesizer that calls model for short titles.
func NewSynthesizer(generator Generator, model string, maxLogLength int, log *zap.Logger) *Synthesizer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Synthesizer{
		generator: generator,
		model:     strings.TrimSpace(model),
		logger:    logger.WithCommonFields(log, "", strings.TrimSpace(model)),
		maxLogLen: maxLogLength,
	}
}

// Synthesize returns the description to audit against. It never fails: any
// problem with the model falls back to the original title.
func (s *Synthesizer) Synthesize(ctx context.Context, title, comp string) EffectiveRole {
	literal := EffectiveRole{Text: title}

	if utf8.RuneCountInString(title) >= FullDescriptionRunes {
		return literal
	}

	if s == nil || s.generator == nil || s.model == "" {
		return literal
	}

	prompt := buildSynthesisPrompt(title, comp)

	s.logger.Debug("synthesizing role description",
		zap.String("title", title),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	text, err := s.generator.GenerateContent(ctx, s.model, prompt, false)
	if err != nil {
		s.logger.Warn("role synthesis failed, using title as is", zap.Error(err))
		return literal
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.logger.Warn("role synthesis returned no text, using title as is")
		return literal
	}

	s.logger.Debug("role description synthesized",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, s.maxLogLen)),
	)

	return EffectiveRole{Text: text, Synthetic: true}
}

func buildSynthesisPrompt(title, comp string) string {
	framing := defaultCompFraming
	if comp = strings.TrimSpace(comp); comp != "" {
		framing = "TARGET COMPENSATION: " + comp
	}

	return strings.NewReplacer(
		"{{ROLE_TITLE}}", strings.TrimSpace(title),
		"{{COMP_FRAMING}}", framing,
	).Replace(synthesisTemplate)
}
