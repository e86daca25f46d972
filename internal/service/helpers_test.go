package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"vetchat/internal/llm"
)

// Monday 2026-10-19, 15:00 UTC.
var fixedNow = time.Date(2026, time.October, 19, 15, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type stubLLM struct {
	mu       sync.Mutex
	text     string
	err      error
	requests []llm.Request
}

func (s *stubLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return llm.Response{}, s.err
	}
	return llm.Response{Text: s.text, Model: "stub"}, nil
}

func (s *stubLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// routedLLM answers extraction and general requests differently.
type routedLLM struct {
	extract stubLLM
	general stubLLM
}

func (r *routedLLM) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	if req.JSON {
		return r.extract.Complete(ctx, req)
	}
	return r.general.Complete(ctx, req)
}

type stubChannel struct {
	name string
	err  error

	mu       sync.Mutex
	subjects []string
	bodies   []string
}

func (c *stubChannel) Channel() string { return c.name }

func (c *stubChannel) Send(_ context.Context, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subjects = append(c.subjects, subject)
	c.bodies = append(c.bodies, body)
	return c.err
}

var errProviderDown = errors.New("provider down")
