package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MapsHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeAIInvalidRequest, http.StatusBadRequest},
		{CodeAITimeout, http.StatusGatewayTimeout},
		{CodeAIRateLimited, http.StatusTooManyRequests},
		{CodeAIValidationFailed, http.StatusUnprocessableEntity},
		{CodeAIAuthFailed, http.StatusBadGateway},
		{CodeAIUpstreamUnavailable, http.StatusBadGateway},
		{CodeAICanceled, StatusClientClosedRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeDatabaseError, http.StatusInternalServerError},
		{ErrorCode("9999"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "x").HTTPStatus)
		})
	}
}

func TestAsAppError(t *testing.T) {
	inner := New(CodeAITimeout, "timed out")
	wrapped := fmt.Errorf("handler: %w", inner)

	require.True(t, IsAppError(wrapped))
	assert.Same(t, inner, AsAppError(wrapped))

	plain := stderrors.New("boom")
	got := AsAppError(plain)
	assert.Equal(t, CodeUnknown, got.Code)
	assert.ErrorIs(t, got, plain)

	assert.Equal(t, CodeAICanceled, AsAppError(fmt.Errorf("send: %w", context.Canceled)).Code)
	assert.Equal(t, CodeAITimeout, AsAppError(context.DeadlineExceeded).Code)
}

func TestAppError_WithDetailCopies(t *testing.T) {
	detailed := ErrTooManyRequests.WithDetail("user=u-1")

	assert.Equal(t, "user=u-1", detailed.Detail)
	assert.Empty(t, ErrTooManyRequests.Detail)
	assert.ErrorIs(t, detailed, ErrTooManyRequests)
	assert.NotErrorIs(t, detailed, ErrNotFound)
}

func TestAppError_Error(t *testing.T) {
	err := Wrap(stderrors.New("dial tcp"), CodeDatabaseError, "insert failed")
	assert.Equal(t, "[5001] insert failed: dial tcp", err.Error())
	assert.Equal(t, "[4001] bad", New(CodeAIInvalidRequest, "bad").Error())
}
