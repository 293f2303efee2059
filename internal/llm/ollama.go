package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaClient talks to a local Ollama server through its generate endpoint
type OllamaClient struct {
	api         *api.Client
	model       string
	temperature *float64
}

// NewOllamaClient creates a client for host (e.g. http://localhost:11434). A host without scheme is treated as http.
func NewOllamaClient(host, model string, temperature *float64, timeout time.Duration) (*OllamaClient, error) {
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	base, err := url.Parse(strings.TrimSuffix(host, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}

	return &OllamaClient{
		api:         api.NewClient(base, &http.Client{Timeout: timeout}),
		model:       model,
		temperature: temperature,
	}, nil
}

// Model returns the model name sent with every request
func (c *OllamaClient) Model() string { return c.model }

// Generate sends prompt with streaming disabled and returns the full reply
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	return c.generate(ctx, prompt, &stream, nil)
}

// Stream sends prompt and calls fn for every chunk as it arrives. It returns the concatenated reply.
func (c *OllamaClient) Stream(ctx context.Context, prompt string, fn func(chunk string)) (string, error) {
	stream := true
	return c.generate(ctx, prompt, &stream, fn)
}

func (c *OllamaClient) generate(ctx context.Context, prompt string, stream *bool, fn func(string)) (string, error) {
	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: stream,
	}
	if c.temperature != nil {
		req.Options = map[string]any{"temperature": *c.temperature}
	}

	var reply strings.Builder
	err := c.api.Generate(ctx, req, func(resp api.GenerateResponse) error {
		reply.WriteString(resp.Response)
		if fn != nil && resp.Response != "" {
			fn(resp.Response)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate (%s): %w", c.model, err)
	}

	if strings.TrimSpace(reply.String()) == "" {
		return "", ErrEmptyResponse
	}
	return reply.String(), nil
}
