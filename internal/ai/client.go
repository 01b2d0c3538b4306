package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"qualsight/pkg/config"
)

// Generator abstracts the LLM call so the narrative, forensic, and extraction
// collaborators can be tested without network access
type Generator interface {
	Generate(ctx context.Context, systemPrompt, prompt string, jsonMode bool) (string, error)
}

// GeminiClient is the production Generator backed by the Google GenAI SDK
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed generator. Errors when no API key is
// configured; callers treat a nil generator as "AI disabled".
func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &GeminiClient{client: client, model: model}, nil
}

// Generate sends a single generateContent request and returns the raw text
func (c *GeminiClient) Generate(ctx context.Context, systemPrompt, prompt string, jsonMode bool) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.3)),
	}
	if jsonMode {
		cfg.ResponseMIMEType = "application/json"
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	return result.Text(), nil
}
