// Package llm implements the text-completion clients used by the chat pipeline.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashureev/hrdesk/internal/config"
)

// Roles accepted in a completion request.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is an ordered message list plus an optional system instruction.
type CompletionRequest struct {
	Messages []Message
	System   string
}

// Completer sends a single bounded-timeout completion call. Implementations do not retry.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ProviderError is an error response returned by the completion service itself.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Unknown error"
	}
	return fmt.Sprintf("API Error (%d): %s", e.Status, msg)
}

// TransportError wraps failures that never produced a provider response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

var (
	errEmptyReply     = errors.New("completion service returned no text")
	errMissingAPIKey  = errors.New("completion API key is not configured")
	errUnknownBackend = errors.New("unknown completion provider")
)

// New builds the completer selected by cfg.Provider.
func New(cfg config.LLMConfig) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, errMissingAPIKey
	}
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicClient(cfg), nil
	case "openai":
		return NewOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownBackend, cfg.Provider)
	}
}
