package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"edu-ai-api/internal/workflow/port"
)

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		body   string
		want   time.Duration
	}{
		{name: "seconds header", header: "3", want: 3 * time.Second},
		{name: "fractional header", header: "1.5", want: 1500 * time.Millisecond},
		{name: "groq seconds", body: `{"error":{"message":"Rate limit reached. Please try again in 7.5s."}}`, want: 7500 * time.Millisecond},
		{name: "groq millis", body: "Please try again in 250ms", want: 250 * time.Millisecond},
		{name: "minutes and seconds", body: "try again in 2m4s", want: 2*time.Minute + 4*time.Second},
		{name: "retry after phrase", body: "Too Many Requests: retry after 12", want: 12 * time.Second},
		{name: "nothing", body: "slow down", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Retry-After", tt.header)
			}
			assert.Equal(t, tt.want, retryAfter(h, []byte(tt.body)))
		})
	}
}

func TestRetryAfter_HTTPDate(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", time.Now().Add(time.Minute).UTC().Format(http.TimeFormat))

	d := retryAfter(h, nil)
	assert.Greater(t, d, 30*time.Second)
	assert.LessOrEqual(t, d, time.Minute)
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   port.FailureClass
	}{
		{http.StatusUnauthorized, port.FailureAuth},
		{http.StatusForbidden, port.FailureAuth},
		{http.StatusTooManyRequests, port.FailureRateLimited},
		{http.StatusRequestTimeout, port.FailureTimeout},
		{http.StatusGatewayTimeout, port.FailureTimeout},
		{http.StatusInternalServerError, port.FailureUnavailable},
		{http.StatusServiceUnavailable, port.FailureUnavailable},
		{http.StatusBadRequest, port.FailureRejected},
		{http.StatusNotFound, port.FailureRejected},
		{http.StatusUnprocessableEntity, port.FailureRejected},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			ie := classifyStatus(tt.status, http.Header{}, nil)
			assert.Equal(t, tt.want, ie.Class)
			assert.Equal(t, http.StatusText(tt.status), ie.Message)
		})
	}
}

func TestClassifyTransport(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancel2 := context.WithTimeout(context.Background(), -time.Second)
	defer cancel2()

	assert.Equal(t, port.FailureCanceled, classifyTransport(canceled, errors.New("x")).Class)
	assert.Equal(t, port.FailureTimeout, classifyTransport(expired, errors.New("x")).Class)
	assert.Equal(t, port.FailureTimeout, classifyTransport(context.Background(), context.DeadlineExceeded).Class)
	assert.Equal(t, port.FailureUnavailable, classifyTransport(context.Background(), io.ErrUnexpectedEOF).Class)
}

func TestBackoff(t *testing.T) {
	b := DefaultBackoffConfig()
	assert.Equal(t, 500*time.Millisecond, b.CalculateBackoff(0))
	assert.Equal(t, time.Second, b.CalculateBackoff(1))
	assert.Equal(t, 2*time.Second, b.CalculateBackoff(2))
	assert.Equal(t, 8*time.Second, b.CalculateBackoff(10))

	p := RetryPolicy{Backoff: b, MaxRetryAfter: 5 * time.Second}

	d, ok := p.wait(0, 3*time.Second)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)

	_, ok = p.wait(0, time.Minute)
	assert.False(t, ok)

	d, ok = p.wait(1, 0)
	assert.True(t, ok)
	assert.Equal(t, time.Second, d)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 1, EstimateTokens("光合作用"))
}
