package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// RuntimeFactory builds a Runtime from the generic config below.
type RuntimeFactory func(context.Context, RuntimeConfig) (Runtime, error)

// RuntimeConfig carries common knobs used by runtimes.
type RuntimeConfig struct {
	HTTPTimeout time.Duration
	APIKey      string
	// BaseURL overrides the provider endpoint.
	BaseURL string
	// Host is the Ollama address.
	Host string
}

var registry = map[string]RuntimeFactory{}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[name] = f }

// NewRuntime creates a Runtime for the given provider.
func NewRuntime(ctx context.Context, name string, cfg RuntimeConfig) (Runtime, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = ProviderOpenRouter
	}
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("provider not supported: %s (known: %s)", name, strings.Join(Providers(), ", "))
	}
	return f(ctx, cfg)
}

// Providers lists registered provider names.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOllama:
		return "llama3.1:8b"
	case ProviderGemini:
		return "gemini-2.0-flash"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	default:
		return "openai/gpt-4o-mini"
	}
}

func init() {
	RegisterRuntime(ProviderOpenRouter, func(_ context.Context, c RuntimeConfig) (Runtime, error) {
		return NewClient(c.APIKey, c.BaseURL, c.HTTPTimeout), nil
	})
	RegisterRuntime(ProviderOpenAI, func(_ context.Context, c RuntimeConfig) (Runtime, error) {
		base := c.BaseURL
		if base == "" {
			base = OpenAIBaseURL
		}
		return NewClient(c.APIKey, base, c.HTTPTimeout), nil
	})
	RegisterRuntime(ProviderOllama, func(_ context.Context, c RuntimeConfig) (Runtime, error) {
		return NewOllamaClient(c.Host, c.HTTPTimeout), nil
	})
	RegisterRuntime(ProviderGemini, func(ctx context.Context, c RuntimeConfig) (Runtime, error) {
		return NewGeminiClient(ctx, c.APIKey, c.BaseURL, c.HTTPTimeout)
	})
}
