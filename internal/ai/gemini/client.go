package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/ats-auditor/internal/logger"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	// Provider is the provider name used in logs and configuration.
	Provider = "gemini"

	// DefaultSynthesisModel writes synthetic role descriptions.
	DefaultSynthesisModel = "gemini-2.0-flash"

	jsonMIMEType = "application/json"
)

// DefaultCascade lists the audit models from most to least capable.
var DefaultCascade = []string{
	"gemini-2.5-pro",
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
}

// ErrMissingAPIKey is returned when the generator is built without credentials.
var ErrMissingAPIKey = errors.New("gemini api key is required")

// models is the subset of the genai client used by the generator.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator sends single-turn prompts to the Gemini API.
type Generator struct {
	models      models
	temperature float32
	logger      *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey string, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Generator{
		models:      client.Models,
		temperature: 0.1,
		logger:      logger.WithCommonFields(log, Provider, ""),
	}, nil
}

// GenerateContent sends the prompt to the given model and returns the
// concatenated text of the first candidate that carries any.
func (g *Generator) GenerateContent(ctx context.Context, model, prompt string, structured bool) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	model = strings.TrimSpace(model)
	if model == "" {
		return "", errors.New("model must not be empty")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	temperature := g.temperature
	config := &genai.GenerateContentConfig{Temperature: &temperature}
	if structured {
		config.ResponseMIMEType = jsonMIMEType
	}

	resp, err := g.models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			g.logger.Debug("gemini api error",
				zap.String(logger.FieldModel, model),
				zap.Int("code", apiErr.Code),
				zap.String("status", apiErr.Status),
			)
		}
		return "", fmt.Errorf("generate content with %s: %w", model, err)
	}

	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini api returned no candidates")
	}

	var finishReason string
	for _, candidate := range resp.Candidates {
		if candidate == nil {
			continue
		}
		if finishReason == "" {
			finishReason = string(candidate.FinishReason)
		}
		if candidate.Content == nil {
			continue
		}

		var builder strings.Builder
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			builder.WriteString(part.Text)
		}

		if text := strings.TrimSpace(builder.String()); text != "" {
			return text, nil
		}
	}

	if finishReason != "" {
		return "", fmt.Errorf("gemini api returned empty response (finish reason %s)", finishReason)
	}
	return "", errors.New("gemini api returned empty response")
}
