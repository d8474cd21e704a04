package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("llm: empty response")

type Message struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}

type Options struct {
	Temperature float32
	MaxTokens   int32
}

type Provider interface {
	// Generate returns the model's text reply to messages.
	Generate(ctx context.Context, messages []Message, opts Options) (string, error)
	// GenerateJSON asks for a JSON reply and decodes it into dst.
	GenerateJSON(ctx context.Context, messages []Message, temperature float32, dst any) error
	Close() error
}
