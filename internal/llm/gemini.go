package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini generates text with Google's Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini client. baseURL is optional and only used to
// point the SDK at a proxy.
func NewGemini(ctx context.Context, apiKey, model, baseURL string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-1.5-pro"
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned empty candidates")
	}
	return text, nil
}

func (g *Gemini) Name() string {
	return "gemini:" + g.model
}
