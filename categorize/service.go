package categorize

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Generator is the single suspension point of the pipeline: one prompt in,
// one text completion out. Tests substitute a stub; production uses Gemini.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Gemini is the production Generator backed by google.golang.org/genai.
type Gemini struct {
	Client *genai.Client
	Model  string
}

// NewGemini creates a Gemini generator. The client picks its API key from
// the environment, as the rest of the genai tooling does.
func NewGemini(ctx context.Context) (*Gemini, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot initialize the Gemini client: %w", err)
	}
	return &Gemini{Client: client, Model: DefaultModel}, nil
}

// Generate submits the prompt requesting a deterministic, JSON-shaped
// response.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	model := g.Model
	if model == "" {
		model = DefaultModel
	}
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.1),
		ResponseMIMEType: "application/json",
	}
	resp, err := g.Client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model %s", model)
	}
	return resp.Text(), nil
}
