package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"edu-ai-api/internal/config"
)

func TestBuildUserRateLimitKey(t *testing.T) {
	assert.Equal(t, "ratelimit:u-1:/v1/ai/math/solve", BuildUserRateLimitKey("u-1", "/v1/ai/math/solve"))
	assert.Equal(t, "ratelimit:anonymous:/v1/ai/tutor/ask", BuildUserRateLimitKey("", "/v1/ai/tutor/ask"))
}

func TestOptions_Defaults(t *testing.T) {
	opts := options(&config.RedisConfig{})
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, defaultPoolSize, opts.PoolSize)

	opts = options(&config.RedisConfig{Host: "cache", Port: 6380, DB: 2, PoolSize: 50})
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 50, opts.PoolSize)
}
