// Package llm defines the embedding and completion capabilities used by the
// assistant, and a Guard that bounds every provider call.
package llm

import (
	"context"
	"errors"
)

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer produces a text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Message is one prior exchange passed as chat history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion call.
type Request struct {
	System      string
	History     []Message
	Prompt      string
	Temperature float64
	MaxTokens   int
	// JSON asks the provider for a JSON object response where supported.
	JSON bool
}

var (
	// ErrTimeout is returned when a provider call exceeds its deadline.
	ErrTimeout = errors.New("llm: timeout")
	// ErrUnavailable wraps provider failures (transport, status, breaker open).
	ErrUnavailable = errors.New("llm: provider unavailable")
	// ErrEmptyResponse is returned when a provider answers with no content.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable)
}

// EmbedderFunc adapts a function to Embedder.
type EmbedderFunc func(ctx context.Context, text string) ([]float32, error)

func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float32, error) { return f(ctx, text) }

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) { return f(ctx, req) }
