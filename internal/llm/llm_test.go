package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kevinmichaelchen/folio/internal/apperr"
	"github.com/kevinmichaelchen/folio/internal/logger"
	"github.com/kevinmichaelchen/folio/internal/models"
	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	resp openai.ChatCompletionResponse
	err  error
	got  openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = req
	return f.resp, f.err
}

func answer(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

func TestMessages(t *testing.T) {
	msgs := Messages("什麼是 REST?")

	require.Len(t, msgs, 2)
	assert.Equal(t, models.ChatMessage{Role: models.RoleSystem, Content: systemPrompt}, msgs[0])
	assert.Equal(t, models.ChatMessage{Role: models.RoleUser, Content: "什麼是 REST?"}, msgs[1])
}

func TestComplete_BuildsRequest(t *testing.T) {
	fake := &fakeCompleter{resp: answer("  REST 是一種架構風格。\n")}
	c := NewClientWithCompleter(fake, "gpt-4o", time.Second)

	text, err := c.Complete(context.Background(), "什麼是 REST?")
	require.NoError(t, err)

	assert.Equal(t, "REST 是一種架構風格。", text)
	assert.Equal(t, "gpt-4o", fake.got.Model)
	assert.InDelta(t, 0.7, fake.got.Temperature, 1e-6)
	require.Len(t, fake.got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, fake.got.Messages[0].Role)
	assert.Equal(t, systemPrompt, fake.got.Messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, fake.got.Messages[1].Role)
	assert.Equal(t, "什麼是 REST?", fake.got.Messages[1].Content)
}

func TestNewClientWithCompleter_DefaultModel(t *testing.T) {
	fake := &fakeCompleter{resp: answer("ok")}

	_, err := NewClientWithCompleter(fake, "", time.Second).Complete(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini-2024-07-18", fake.got.Model)
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name   string
		resp   openai.ChatCompletionResponse
		err    error
		kind   apperr.Kind
		status int
	}{
		{
			name:   "api error",
			err:    &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "Incorrect API key provided"},
			kind:   apperr.UpstreamError,
			status: http.StatusUnauthorized,
		},
		{
			name:   "request error",
			err:    &openai.RequestError{HTTPStatusCode: http.StatusBadGateway, Err: errors.New("bad gateway")},
			kind:   apperr.UpstreamError,
			status: http.StatusBadGateway,
		},
		{
			name: "deadline",
			err:  errors.Wrap(context.DeadlineExceeded, "Post"),
			kind: apperr.Timeout,
		},
		{
			name: "transport",
			err:  errors.New("dial tcp: connection refused"),
			kind: apperr.NetworkError,
		},
		{
			name: "no choices",
			resp: openai.ChatCompletionResponse{},
			kind: apperr.UpstreamError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClientWithCompleter(&fakeCompleter{resp: tt.resp, err: tt.err}, "m", time.Second)

			text, err := c.Complete(context.Background(), "hi")

			require.Error(t, err)
			assert.Empty(t, text)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Equal(t, tt.status, apperr.StatusOf(err))
		})
	}
}

func TestReply_FallbackOnFailure(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	ctx := logger.WithLogger(context.Background(), logrus.NewEntry(l))

	c := NewClientWithCompleter(&fakeCompleter{err: errors.New("connection reset by peer")}, "m", time.Second)

	assert.Equal(t, FallbackReply, c.Reply(ctx, "hi"))
	assert.Contains(t, buf.String(), "chat completion failed")
	assert.Contains(t, buf.String(), "kind=network_error")
}

func TestReply_Success(t *testing.T) {
	c := NewClientWithCompleter(&fakeCompleter{resp: answer(" 你好！ ")}, "m", time.Second)

	assert.Equal(t, "你好！", c.Reply(context.Background(), "hi"))
}

func TestNewClient_AgainstServer(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","model":"gpt-4o-mini-2024-07-18",
			"choices":[{"index":0,"message":{"role":"assistant","content":"  前端與後端 \n"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v1/", "sk-test", "", time.Second)

	assert.Equal(t, "前端與後端", c.Reply(context.Background(), "差別?"))
	assert.Equal(t, "gpt-4o-mini-2024-07-18", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "差別?", got.Messages[1].Content)
}

func TestNewClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad", "gpt-4o", time.Second)

	_, err := c.Complete(context.Background(), "hi")
	assert.True(t, apperr.Is(err, apperr.UpstreamError))
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))

	assert.Equal(t, FallbackReply, c.Reply(context.Background(), "hi"))
}

func TestNewClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk", "gpt-4o", 50*time.Millisecond)

	_, err := c.Complete(context.Background(), "hi")
	assert.True(t, apperr.Is(err, apperr.Timeout), "got %v", err)
}
