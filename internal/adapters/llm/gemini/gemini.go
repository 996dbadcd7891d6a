package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
	"github.com/axionnode/CryptoRadar/internal/core/port"

	"google.golang.org/genai"
)

var _ port.TextGenerator = (*Generator)(nil)

const DefaultModel = "gemini-2.5-flash"

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator produces structured JSON through the Gemini API. A Generator
// without an API key fails every call with domain.ErrGeneratorUnavailable.
type Generator struct {
	models contentModels
	model  string
	logger *slog.Logger
}

func New(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Generator, error) {
	if model == "" {
		model = DefaultModel
	}
	g := &Generator{model: model, logger: logger}
	if apiKey == "" {
		logger.Warn("no Gemini API key configured, insights will use fallbacks")
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	g.models = client.Models
	return g, nil
}

func (g *Generator) GenerateJSON(ctx context.Context, prompt string, schema port.Schema, useSearch bool) (string, error) {
	if g.models == nil {
		return "", domain.ErrGeneratorUnavailable
	}

	cfg := &genai.GenerateContentConfig{}
	if useSearch {
		// Search grounding cannot be combined with a response schema; the
		// prompt carries the shape and the caller validates it.
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	} else {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toSchema(schema)
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", classify(err)
	}

	text := stripFences(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrMalformedResponse)
	}
	g.logger.Debug("gemini response received", slog.Int("bytes", len(text)))
	return text, nil
}

// classify marks rate-limit failures so the insight pipelines retry them.
func classify(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED") {
		return fmt.Errorf("%w: %v", domain.ErrQuotaExhausted, err)
	}
	return fmt.Errorf("gemini generate: %w", err)
}

func toSchema(s port.Schema) *genai.Schema {
	out := &genai.Schema{
		Enum:     s.Enum,
		Required: s.Required,
	}
	switch s.Type {
	case port.SchemaObject:
		out.Type = genai.TypeObject
	case port.SchemaArray:
		out.Type = genai.TypeArray
	default:
		out.Type = genai.TypeString
	}
	if s.Items != nil {
		out.Items = toSchema(*s.Items)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = toSchema(v)
		}
	}
	return out
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
