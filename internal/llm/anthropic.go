package llm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ashureev/hrdesk/internal/config"
	"github.com/go-resty/resty/v2"
)

const (
	anthropicAPIVersion = "2023-06-01"
	anthropicBaseURL    = "https://api.anthropic.com"
	anthropicPath       = "/v1/messages"
)

type anthropicRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
	System    string    `json:"system,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
}

type anthropicErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	client    *resty.Client
	model     string
	maxTokens int
}

// NewAnthropicClient creates a client with the configured timeout and credentials.
func NewAnthropicClient(cfg config.LLMConfig) *AnthropicClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("x-api-key", cfg.APIKey)
	client.SetHeader("anthropic-version", anthropicAPIVersion)
	client.SetHeader("Content-Type", "application/json")

	return &AnthropicClient{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Complete sends one Messages API call and returns the first text block.
func (a *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var (
		out     anthropicResponse
		errBody anthropicErrorBody
	)

	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(anthropicRequest{
			Model:     a.model,
			MaxTokens: a.maxTokens,
			Messages:  req.Messages,
			System:    req.System,
		}).
		SetResult(&out).
		SetError(&errBody).
		Post(anthropicPath)
	if err != nil {
		slog.Error("Completion request failed", "provider", "anthropic", "error", err)
		return "", &TransportError{Err: err}
	}

	if resp.IsError() {
		slog.Error("Completion provider returned error",
			"provider", "anthropic",
			"status", resp.StatusCode(),
			"type", errBody.Error.Type,
		)
		return "", &ProviderError{Status: resp.StatusCode(), Message: errBody.Error.Message}
	}

	for _, block := range out.Content {
		if block.Type == "text" || block.Type == "" {
			return block.Text, nil
		}
	}
	return "", &TransportError{Err: errEmptyReply}
}
