package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type geminiClient struct {
	caller
	client *genai.Client
}

func newGeminiClient(ctx context.Context, cfg Config, observer Observer) (*geminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &geminiClient{
		caller: caller{provider: ProviderGemini, cfg: cfg, observer: observer},
		client: client,
	}, nil
}

func (c *geminiClient) Complete(ctx context.Context, req Request) (*Response, error) {
	system := req.System
	if system == "" {
		system = c.cfg.System
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}
	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	return c.call(ctx, req, func(ctx context.Context) (string, error) {
		result, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, contents, config)
		if err != nil {
			return "", geminiError(err)
		}
		text := result.Text()
		if strings.TrimSpace(text) == "" {
			return "", ErrEmptyResponse
		}
		return text, nil
	})
}

// geminiError converts API errors so status handling matches the other
// providers.
func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Code: apiErr.Code, Body: apiErr.Message}
	}
	return err
}
