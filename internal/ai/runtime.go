package ai

import (
	"context"
	"strings"

	"github.com/KaramelBytes/callpulse/internal/utils"
)

// Runtime is implemented by every reasoning backend.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers used for selection.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderOllama     = "ollama"
	ProviderGemini     = "gemini"
)

// Summarizer adapts a Runtime to the single-shot "role + instructions in,
// report out" capability the analysis pipeline consumes.
type Summarizer struct {
	Runtime Runtime
	Model   string
}

// Summarize sends one system and one user message and returns the trimmed
// text of the top choice.
func (s Summarizer) Summarize(ctx context.Context, systemRole, instructions string, temperature float64, maxOutputTokens int) (string, error) {
	if err := checkContextWindow(s.Model, systemRole+instructions, maxOutputTokens); err != nil {
		return "", err
	}
	resp, err := s.Runtime.Generate(ctx, GenerateRequest{
		Model: s.Model,
		Messages: []Message{
			{Role: "system", Content: systemRole},
			{Role: "user", Content: instructions},
		},
		MaxTokens:   maxOutputTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// checkContextWindow rejects prompts that cannot fit a known model.
// Unknown models are not checked.
func checkContextWindow(model, prompt string, reserve int) error {
	mi, ok := LookupModel(model)
	if !ok || mi.ContextTokens <= 0 {
		return nil
	}
	tokens := utils.CountTokens(prompt)
	if tokens+reserve > mi.ContextTokens {
		return &ContextWindowError{Model: model, Tokens: tokens, Limit: mi.ContextTokens}
	}
	return nil
}
