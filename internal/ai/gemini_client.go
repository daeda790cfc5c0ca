package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiClient runs requests against the Gemini API through the genai SDK.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a Gemini runtime. baseURL overrides the API
// endpoint and is only needed for tests and proxies.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string, httpTimeout time.Duration) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: httpTimeout},
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Generate maps system messages to the system instruction and every other
// message to a content turn.
func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	var system []string
	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return nil, classifyGeminiError(ctx, err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}
	out := &GenerateResponse{
		ID:      resp.ResponseID,
		Choices: []Choice{{Message: Message{Role: "assistant", Content: text}}},
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

// classifyGeminiError maps SDK errors onto the shared error taxonomy.
func classifyGeminiError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var gerr genai.APIError
	var gptr *genai.APIError
	switch {
	case errors.As(err, &gerr):
	case errors.As(err, &gptr) && gptr != nil:
		gerr = *gptr
	default:
		return &UnreachableError{Host: "gemini", Err: err}
	}
	apiErr := &APIError{StatusCode: gerr.Code, Code: gerr.Status, Message: gerr.Message}
	if gerr.Status == "RESOURCE_EXHAUSTED" && containsAnyFold(gerr.Message, "quota") {
		return &QuotaExceededError{APIError: apiErr}
	}
	return classifyAPIError(apiErr, nil)
}
