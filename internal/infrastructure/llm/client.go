// Package llm 实现面向 OpenAI 兼容端点的推理客户端
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"edu-ai-api/internal/config"
	"edu-ai-api/internal/workflow/port"
	"edu-ai-api/pkg/logger"
	"edu-ai-api/pkg/metrics"
	"edu-ai-api/pkg/tracer"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxInFlight    = 8
	maxResponseBytes      = 4 << 20
)

// Options 推理客户端配置
type Options struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	// DefaultMaxTokens 请求未指定 max_tokens 时使用
	DefaultMaxTokens int
	// RequestTimeout 单次尝试超时；请求自带 Timeout 时以请求为准
	RequestTimeout time.Duration
	// MaxInFlight 并发池大小，满载时 Send 阻塞直到有空位或 ctx 结束
	MaxInFlight int
	Retry       RetryPolicy
	HTTPClient  *http.Client
}

// Client 带有界并发池与瞬时故障重试的推理客户端
type Client struct {
	opts  Options
	http  *http.Client
	pool  *semaphore.Weighted
	url   string
	sleep func(ctx context.Context, d time.Duration) error
}

var _ port.InferenceClient = (*Client)(nil)

// NewClient 创建推理客户端
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("llm base url is required")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("llm model is required")
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = defaultMaxInFlight
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry.MaxAttempts = 1
	}
	if opts.Retry.Backoff.Initial <= 0 {
		opts.Retry.Backoff = DefaultBackoffConfig()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		// 超时由每次尝试的 context 控制
		httpClient = &http.Client{}
	}

	return &Client{
		opts:  opts,
		http:  httpClient,
		pool:  semaphore.NewWeighted(int64(opts.MaxInFlight)),
		url:   strings.TrimRight(opts.BaseURL, "/") + "/chat/completions",
		sleep: sleepContext,
	}, nil
}

// NewClientFromConfig 按默认提供商与编排策略配置创建客户端
func NewClientFromConfig(cfg *config.Config) (*Client, error) {
	name, provider, ok := cfg.LLM.Provider()
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", name)
	}
	timeout := cfg.AI.RequestTimeout
	if timeout <= 0 {
		timeout = provider.Timeout
	}
	return NewClient(Options{
		Provider:         name,
		BaseURL:          provider.BaseURL,
		APIKey:           provider.APIKey,
		Model:            provider.Model,
		Temperature:      provider.Temperature,
		DefaultMaxTokens: provider.MaxTokens,
		RequestTimeout:   timeout,
		MaxInFlight:      cfg.AI.MaxInFlight,
		Retry: RetryPolicy{
			MaxAttempts: cfg.AI.Retry.MaxAttempts,
			Backoff: BackoffConfig{
				Initial:    cfg.AI.Retry.Backoff.Initial,
				Max:        cfg.AI.Retry.Backoff.Max,
				Multiplier: cfg.AI.Retry.Backoff.Multiplier,
			},
			MaxRetryAfter: cfg.AI.Retry.MaxRetryAfter,
		},
	})
}

// Send 发送一次推理请求。超时、限流与 5xx 按策略重试，鉴权失败与请求被拒不重试。
func (c *Client) Send(ctx context.Context, req port.InferenceRequest) (*port.InferenceResult, error) {
	ctx, span := tracer.Start(ctx, "inference.Send",
		trace.WithAttributes(
			attribute.String("llm.provider", c.opts.Provider),
			attribute.String("llm.model", c.opts.Model),
			attribute.Int("llm.max_tokens", req.MaxTokens),
		))
	defer span.End()

	start := time.Now()
	res, err := c.send(ctx, req, start)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		tracer.RecordError(span, err)
	} else {
		span.SetAttributes(
			attribute.Int("llm.attempts", res.Attempts),
			attribute.Int("llm.total_tokens", res.TotalTokens),
			attribute.Bool("llm.tokens_estimated", res.TokensEstimated),
		)
	}
	metrics.InferenceDuration.WithLabelValues(c.opts.Model, status).Observe(elapsed.Seconds())
	return res, err
}

func (c *Client) send(ctx context.Context, req port.InferenceRequest, start time.Time) (*port.InferenceResult, error) {
	if len(req.Messages) == 0 {
		return nil, &port.InferenceError{Class: port.FailureRejected, Message: "no messages to send"}
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.opts.RequestTimeout
	}

	// 池满时阻塞，等待上限与单次调用超时一致
	acquireCtx, cancel := context.WithTimeout(ctx, timeout)
	err := c.pool.Acquire(acquireCtx, 1)
	cancel()
	if err != nil {
		ie := classifyTransport(ctx, err)
		ie.Message = "waiting for inference slot: " + ie.Message
		return nil, ie
	}
	metrics.InferenceInFlight.Inc()
	defer func() {
		metrics.InferenceInFlight.Dec()
		c.pool.Release(1)
	}()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.opts.DefaultMaxTokens
	}
	body, err := json.Marshal(chatRequest{
		Model:       c.opts.Model,
		Messages:    toChatMessages(req.Messages),
		MaxTokens:   maxTokens,
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return nil, &port.InferenceError{Class: port.FailureRejected, Message: "encode request", Err: err}
	}

	var lastErr *port.InferenceError
	for attempt := 1; attempt <= c.opts.Retry.MaxAttempts; attempt++ {
		res, ie := c.attempt(ctx, body, timeout, req)
		if ie == nil {
			metrics.InferenceAttemptsTotal.WithLabelValues(c.opts.Model, "ok").Inc()
			res.Attempts = attempt
			res.Latency = time.Since(start)
			return res, nil
		}
		metrics.InferenceAttemptsTotal.WithLabelValues(c.opts.Model, string(ie.Class)).Inc()
		ie.Attempts = attempt
		lastErr = ie

		// 整体 context 结束时不再重试
		if ctx.Err() != nil || !ie.Class.Retryable() || attempt == c.opts.Retry.MaxAttempts {
			break
		}

		wait, ok := c.opts.Retry.wait(attempt-1, ie.RetryAfter)
		if !ok {
			logger.Warn(ctx, "inference retry-after exceeds limit, giving up",
				"attempt", attempt,
				"retry_after_ms", wait.Milliseconds(),
				"max_retry_after_ms", c.opts.Retry.MaxRetryAfter.Milliseconds(),
			)
			break
		}
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= wait {
			logger.Warn(ctx, "inference retry skipped, call deadline too close",
				"attempt", attempt,
				"class", string(ie.Class),
				"wait_ms", wait.Milliseconds(),
			)
			break
		}

		logger.Warn(ctx, "inference attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", c.opts.Retry.MaxAttempts,
			"class", string(ie.Class),
			"status", ie.StatusCode,
			"wait_ms", wait.Milliseconds(),
		)
		if err := c.sleep(ctx, wait); err != nil {
			ie := classifyTransport(ctx, err)
			ie.Attempts = attempt
			return nil, ie
		}
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, body []byte, timeout time.Duration, req port.InferenceRequest) (*port.InferenceResult, *port.InferenceError) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &port.InferenceError{Class: port.FailureRejected, Message: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, resp.Header, raw)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, &port.InferenceError{
			Class:      port.FailureUnavailable,
			StatusCode: resp.StatusCode,
			Message:    "malformed completion response",
			Err:        err,
		}
	}
	if len(cr.Choices) == 0 {
		return nil, &port.InferenceError{
			Class:      port.FailureUnavailable,
			StatusCode: resp.StatusCode,
			Message:    "completion response has no choices",
		}
	}

	res := &port.InferenceResult{
		Text:  cr.Choices[0].Message.Content,
		Model: cr.Model,
	}
	if res.Model == "" {
		res.Model = c.opts.Model
	}
	if cr.Usage != nil && (cr.Usage.TotalTokens > 0 || cr.Usage.PromptTokens > 0 || cr.Usage.CompletionTokens > 0) {
		res.PromptTokens = cr.Usage.PromptTokens
		res.CompletionTokens = cr.Usage.CompletionTokens
		res.TotalTokens = cr.Usage.TotalTokens
		if res.TotalTokens == 0 {
			res.TotalTokens = res.PromptTokens + res.CompletionTokens
		}
	} else {
		res.PromptTokens = estimateMessages(req.Messages)
		res.CompletionTokens = EstimateTokens(res.Text)
		res.TotalTokens = res.PromptTokens + res.CompletionTokens
		res.TokensEstimated = true
	}
	return res, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
