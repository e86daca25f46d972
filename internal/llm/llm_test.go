package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetchat/pkg/logging"
)

type stubChatClient struct {
	response openai.ChatCompletionResponse
	err      error
	lastReq  openai.ChatCompletionRequest
	deadline bool
}

func (s *stubChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.lastReq = req
	_, s.deadline = ctx.Deadline()
	return s.response, s.err
}

func TestOpenAIClientComplete(t *testing.T) {
	stub := &stubChatClient{response: openai.ChatCompletionResponse{
		Model:   "gpt-3.5-turbo",
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "  {\"appointment\": false}  "}}},
	}}
	client := newOpenAIClient(stub, "", time.Second)

	resp, err := client.Complete(context.Background(), Request{System: "sys", User: "hello", MaxTokens: 50, Temperature: 0.2, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"appointment": false}`, resp.Text)
	assert.True(t, stub.deadline, "call should carry a timeout")

	require.Len(t, stub.lastReq.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, stub.lastReq.Messages[0].Role)
	assert.Equal(t, "hello", stub.lastReq.Messages[1].Content)
	assert.Equal(t, openai.GPT3Dot5Turbo, stub.lastReq.Model)
	assert.Equal(t, 50, stub.lastReq.MaxTokens)
	require.NotNil(t, stub.lastReq.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, stub.lastReq.ResponseFormat.Type)
}

func TestOpenAIClientErrors(t *testing.T) {
	_, err := newOpenAIClient(&stubChatClient{err: errors.New("boom")}, "m", time.Second).
		Complete(context.Background(), Request{User: "hi"})
	assert.ErrorContains(t, err, "boom")

	_, err = newOpenAIClient(&stubChatClient{}, "m", time.Second).
		Complete(context.Background(), Request{User: "hi"})
	assert.ErrorContains(t, err, "no choices")

	_, err = NewOpenAIClient(" ", "m", time.Second)
	assert.Error(t, err)
}

type scriptedClient struct {
	resp  Response
	err   error
	calls int
}

func (s *scriptedClient) Complete(context.Context, Request) (Response, error) {
	s.calls++
	return s.resp, s.err
}

func TestFallbackClient(t *testing.T) {
	logger := logging.Default()

	primary := &scriptedClient{resp: Response{Text: "primary"}}
	secondary := &scriptedClient{resp: Response{Text: "secondary"}}
	resp, err := NewFallbackClient(primary, secondary, logger).Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "primary", resp.Text)
	assert.Equal(t, 0, secondary.calls)

	primary.err = errors.New("down")
	resp, err = NewFallbackClient(primary, secondary, logger).Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "secondary", resp.Text)

	secondary.err = errors.New("also down")
	_, err = NewFallbackClient(primary, secondary, logger).Complete(context.Background(), Request{})
	assert.ErrorContains(t, err, "also down")

	assert.Same(t, primary, NewFallbackClient(primary, nil, logger))
}

func TestNewWithoutCredentialsIsDisabled(t *testing.T) {
	client, closeFn, err := New(context.Background(), Options{Provider: "auto"}, logging.Default())
	require.NoError(t, err)
	require.NoError(t, closeFn())

	_, err = client.Complete(context.Background(), Request{User: "hi"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewOpenAIOnly(t *testing.T) {
	client, _, err := New(context.Background(), Options{Provider: "openai", OpenAIAPIKey: "sk-test", GeminiAPIKey: "ignored"}, logging.Default())
	require.NoError(t, err)
	traced, ok := client.(*TracedClient)
	require.True(t, ok, "expected a traced client, got %T", client)
	assert.Equal(t, "openai", traced.provider)
	_, ok = traced.next.(*OpenAIClient)
	assert.True(t, ok, "expected an OpenAI client, got %T", traced.next)
}

type fixedClient struct {
	resp Response
	err  error
}

func (c fixedClient) Complete(context.Context, Request) (Response, error) {
	return c.resp, c.err
}

func TestTracedClientPassesThrough(t *testing.T) {
	resp, err := Traced(fixedClient{resp: Response{Text: "ok", Model: "m"}}, "stub").Complete(context.Background(), Request{JSON: true})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)

	_, err = Traced(fixedClient{err: ErrNotConfigured}, "stub").Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
