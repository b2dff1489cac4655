package llm

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kevinmichaelchen/folio/internal/apperr"
	"github.com/kevinmichaelchen/folio/internal/config"
	"github.com/kevinmichaelchen/folio/internal/logger"
	"github.com/kevinmichaelchen/folio/internal/models"
	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

const (
	systemPrompt = "你是一位有趣又資深的全端工程師，擅長用淺顯易懂的方式教初學者前後端技術，" +
		"請用繁體中文回答使用者的問題。"

	// FallbackReply is shown to the visitor whenever the model cannot answer.
	FallbackReply = "系統錯誤，請稍後再試～"

	Temperature = 0.7
)

// Completer is the chat-completion call of *openai.Client.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Client struct {
	completer Completer
	model     string
	timeout   time.Duration
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return NewClientWithCompleter(openai.NewClientWithConfig(cfg), model, timeout)
}

func NewClientWithCompleter(c Completer, model string, timeout time.Duration) *Client {
	if model == "" {
		model = config.DefaultLLMModel
	}
	return &Client{completer: c, model: model, timeout: timeout}
}

func FromConfig(cfg *config.Config) *Client {
	return NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
}

// Messages returns the exchange sent for prompt: the fixed system
// instruction followed by the visitor's prompt.
func Messages(prompt string) []models.ChatMessage {
	return []models.ChatMessage{
		{Role: models.RoleSystem, Content: systemPrompt},
		{Role: models.RoleUser, Content: prompt},
	}
}

// Complete sends prompt to the model and returns the trimmed first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	msgs := Messages(prompt)
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(msgs)),
		Temperature: Temperature,
	}
	for _, m := range msgs {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.completer.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.Newf(apperr.UpstreamError, "chat completion", "no choices returned by %s", c.model)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Reply is Complete for display: failures are logged and replaced with
// FallbackReply, so the caller always has text to show.
func (c *Client) Reply(ctx context.Context, prompt string) string {
	text, err := c.Complete(ctx, prompt)
	if err != nil {
		entry := logger.G(ctx).WithError(err).
			WithField("kind", apperr.KindOf(err).String()).
			WithField("model", c.model)
		if status := apperr.StatusOf(err); status != 0 {
			entry = entry.WithField("status", status)
		}
		entry.Error("chat completion failed")
		return FallbackReply
	}
	return text
}

func classify(err error) error {
	const op = "chat completion"

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apperr.Upstream(op, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return apperr.Upstream(op, reqErr.HTTPStatusCode, err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperr.New(apperr.Timeout, op, err)
	}
	return apperr.New(apperr.NetworkError, op, err)
}
