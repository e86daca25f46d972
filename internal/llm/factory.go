package llm

import (
	"context"
	"fmt"
	"time"

	"vetchat/pkg/logging"
)

type Options struct {
	Provider     string // auto, openai or gemini
	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string
	Timeout      time.Duration
}

// New builds the configured provider chain. With provider "auto" OpenAI is
// primary and Gemini the fallback, each only when its key is present. A
// missing credential yields the Disabled client rather than an error, so
// callers fall through to their local rules. The returned func releases
// provider resources.
func New(ctx context.Context, opts Options, logger *logging.Logger) (Client, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	noop := func() error { return nil }

	var openaiClient, geminiClient Client
	var closeGemini = noop
	if opts.OpenAIAPIKey != "" && opts.Provider != "gemini" {
		c, err := NewOpenAIClient(opts.OpenAIAPIKey, opts.OpenAIModel, opts.Timeout)
		if err != nil {
			return nil, noop, err
		}
		openaiClient = Traced(c, "openai")
	}
	if opts.GeminiAPIKey != "" && opts.Provider != "openai" {
		c, err := NewGeminiClient(ctx, opts.GeminiAPIKey, opts.GeminiModel, opts.Timeout)
		if err != nil {
			return nil, noop, fmt.Errorf("llm: %w", err)
		}
		geminiClient = Traced(c, "gemini")
		closeGemini = c.Close
	}

	switch {
	case openaiClient != nil && geminiClient != nil:
		logger.Info("completion provider configured", "primary", "openai", "fallback", "gemini")
		return NewFallbackClient(openaiClient, geminiClient, logger), closeGemini, nil
	case openaiClient != nil:
		logger.Info("completion provider configured", "primary", "openai")
		return openaiClient, noop, nil
	case geminiClient != nil:
		logger.Info("completion provider configured", "primary", "gemini")
		return geminiClient, closeGemini, nil
	default:
		logger.Warn("no completion provider credential found, using keyword fallback only", "provider", opts.Provider)
		return Disabled{}, noop, nil
	}
}
