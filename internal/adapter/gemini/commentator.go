// Package gemini implements service.Commentator with Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// PromptTemplate is the fixed prompt; %s is the predicted crop label.
const PromptTemplate = "In under 80 words, explain to a farmer why %s is a good crop to grow, " +
	"and give one practical tip for growing it successfully."

// Commentator generates short commentary for a predicted label.
type Commentator struct {
	client *genai.Client
	model  string
}

// Options configures the Gemini client.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string // optional override, used by tests
}

// New creates a Gemini commentator.
func New(ctx context.Context, opts Options) (*Commentator, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Commentator{client: client, model: opts.Model}, nil
}

// Prompt returns the prompt sent for label.
func Prompt(label string) string {
	return fmt.Sprintf(PromptTemplate, label)
}

// Comment asks the model about label and returns its text.
func (c *Commentator) Comment(ctx context.Context, label string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(Prompt(label)), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini returned no text")
	}
	return text, nil
}

// Name identifies the backend in logs.
func (c *Commentator) Name() string {
	return "gemini:" + c.model
}
