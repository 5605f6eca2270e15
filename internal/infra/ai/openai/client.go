package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/ai"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/infra/ai/prompt"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/metrics"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultMaxTokens   = 2048
	defaultTimeout     = 60 * time.Second
	defaultBaseBackoff = 500 * time.Millisecond
	defaultRateLimit   = 5.0
	defaultBurst       = 5
)

// Options configures the client. Zero values fall back to defaults.
type Options struct {
	BaseURL           string
	APIKey            string
	Model             string
	MaxTokens         int
	Temperature       float32
	Timeout           time.Duration
	MaxRetries        int
	BaseBackoff       time.Duration
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
}

// Client implements ai.Provider on top of any OpenAI-compatible
// chat completion endpoint (OpenAI, OpenRouter, a local gateway).
type Client struct {
	*openai.Client
	Model string

	maxTokens   int
	temperature float32
	timeout     time.Duration
	maxRetries  int
	baseBackoff time.Duration
	limiter     *rate.Limiter
	logger      *zap.Logger
}

func NewClient(opts Options, logger *zap.Logger) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = defaultBaseBackoff
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRateLimit
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	return &Client{
		Client:      openai.NewClientWithConfig(cfg),
		Model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		timeout:     opts.Timeout,
		maxRetries:  opts.MaxRetries,
		baseBackoff: opts.BaseBackoff,
		limiter:     rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		logger:      logger.Named("openai"),
	}
}

// Invoke runs one capability call. Transport failures, 429 and 5xx answers
// are retried with exponential backoff; a 429 that survives every retry is
// reported as ai.ErrQuotaExceeded.
func (c *Client) Invoke(ctx context.Context, req ai.Request) (string, error) {
	system, err := prompt.For(req.Capability, req.Format)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ai.ErrInvocation, err)
	}
	chat := c.buildRequest(system, prompt.UserMessage(req.Capability, req.Input), req.Format)

	start := time.Now()
	out, err := c.withRetry(ctx, req.Capability, chat)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.CapabilityLatency.WithLabelValues(string(req.Capability), status).Observe(time.Since(start).Seconds())
	return out, err
}

func (c *Client) buildRequest(system, user string, format ai.Format) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if format == ai.FormatJSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.Model) {
		req.MaxCompletionTokens = c.maxTokens
	} else {
		req.MaxTokens = c.maxTokens
		req.Temperature = c.temperature
	}
	return req
}

func (c *Client) withRetry(ctx context.Context, capability ai.Capability, req openai.ChatCompletionRequest) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.baseBackoff * time.Duration(1<<(attempt-1))
			metrics.CapabilityRetries.WithLabelValues(string(capability)).Inc()
			c.logger.Debug("retrying capability call",
				zap.String("capability", string(capability)),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %w", ai.ErrInvocation, ctx.Err())
			}
		}

		// Wait for rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limiter: %w", ai.ErrInvocation, err)
		}

		out, err := c.do(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return "", err
		}
	}

	if isRateLimited(lastErr) {
		return "", fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, lastErr)
	}
	return "", fmt.Errorf("%w: max retries exceeded: %v", ai.ErrInvocation, lastErr)
}

func (c *Client) do(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		if status := statusCode(err); status == http.StatusTooManyRequests || status >= 500 || status == 0 {
			if errors.Is(err, context.Canceled) {
				return "", fmt.Errorf("%w: %w", ai.ErrInvocation, err)
			}
			return "", &retryableError{err: err, status: status}
		}
		return "", fmt.Errorf("%w: failed to create chat completion: %v", ai.ErrInvocation, err)
	}
	if len(resp.Choices) == 0 {
		return "", &retryableError{err: errors.New("empty choices")}
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		if resp.Choices[0].Message.Refusal != "" {
			return "", fmt.Errorf("%w: refused: %s", ai.ErrInvocation, resp.Choices[0].Message.Refusal)
		}
		return "", &retryableError{err: errors.New("empty completion")}
	}
	return content, nil
}

func isReasoningModel(model string) bool {
	m := model
	if i := strings.LastIndex(m, "/"); i >= 0 {
		m = m[i+1:]
	}
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(m, p) {
			return true
		}
	}
	return false
}

// statusCode extracts the HTTP status from a go-openai error, 0 when the
// request never got an answer.
func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// retryableError wraps an error to indicate it can be retried.
type retryableError struct {
	err    error
	status int
}

func (e *retryableError) Error() string {
	if e.status != 0 {
		return fmt.Sprintf("status %d: %v", e.status, e.err)
	}
	return e.err.Error()
}

func (e *retryableError) Unwrap() error { return e.err }

func isRetryableError(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}

func isRateLimited(err error) bool {
	var r *retryableError
	return errors.As(err, &r) && r.status == http.StatusTooManyRequests
}
