package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by clients that have no credential.
var ErrNotConfigured = errors.New("llm: completion provider not configured")

// Request is a single-turn completion: one system prompt, one user message.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	// Temperature 0 is not sent to OpenAI, so the provider default applies.
	Temperature float32
	// JSON asks the provider to answer with a JSON object.
	JSON bool
}

type Response struct {
	Text  string
	Model string
}

// Client is a completion provider.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Disabled is the client used when no provider credential is configured.
type Disabled struct{}

func (Disabled) Complete(context.Context, Request) (Response, error) {
	return Response{}, ErrNotConfigured
}
