package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("vetchat/internal/llm")

// TracedClient records one span per completion call.
type TracedClient struct {
	next     Client
	provider string
}

func Traced(next Client, provider string) *TracedClient {
	return &TracedClient{next: next, provider: provider}
}

func (c *TracedClient) Complete(ctx context.Context, req Request) (Response, error) {
	ctx, span := tracer.Start(ctx, "llm.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", c.provider),
		attribute.Bool("llm.json", req.JSON),
		attribute.Int("llm.max_tokens", req.MaxTokens),
	)

	resp, err := c.next.Complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}
	span.SetAttributes(attribute.String("llm.model", resp.Model))
	return resp, nil
}
