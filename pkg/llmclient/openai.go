package llmclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the openai-compatible client.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	HTTPTimeout time.Duration
	MaxRetries  int
}

// OpenAIAdapter implements Adapter against any OpenAI-compatible chat
// completions endpoint.
type OpenAIAdapter struct {
	client *openai.Client
	cfg    OpenAIConfig
}

// NewOpenAIAdapter creates an adapter. Panics if cfg.Model is empty: a
// misconfigured model is a startup-class error, not a per-request one.
func NewOpenAIAdapter(cfg OpenAIConfig) *OpenAIAdapter {
	if cfg.Model == "" {
		panic("llmclient: NewOpenAIAdapter requires cfg.Model")
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 60 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.HTTPTimeout}

	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}
}

// Complete implements Adapter. It never returns a non-nil Go error for a
// provider failure: a failed call surfaces as CompletionResponse.Error so
// the caller's deterministic fallback runs uniformly whether the failure
// was a timeout, a malformed response, or an empty choice list.
func (a *OpenAIAdapter) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.System},
		{Role: openai.ChatMessageRoleUser, Content: req.User},
	}

	completionReq := openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		completionReq.MaxTokens = req.MaxTokens
	}
	if req.JSONOnly {
		completionReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	maxRetries := a.cfg.MaxRetries
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := a.client.CreateChatCompletion(ctx, completionReq)
		if err == nil {
			if len(resp.Choices) == 0 {
				return CompletionResponse{Error: "llm returned no choices"}, nil
			}
			return CompletionResponse{Content: StripMarkdownFences(resp.Choices[0].Message.Content)}, nil
		}
		lastErr = err
		if attempt < maxRetries {
			wait := time.Duration(attempt+1) * time.Second
			slog.Warn("llm call failed, retrying", "attempt", attempt+1, "max_retries", maxRetries, "error", err)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return CompletionResponse{Error: ctx.Err().Error()}, nil
			}
		}
	}

	return CompletionResponse{Error: fmt.Sprintf("llm call failed after %d retries: %v", maxRetries, lastErr)}, nil
}

// StripMarkdownFences removes a leading/trailing ```json or ``` fence, the
// way providers commonly wrap JSON-in-prose responses.
func StripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	// Drop the opening fence line (``` or ```json) and a trailing fence line.
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
