package ai

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitError(t *testing.T) {
	cause := errors.New("429 Too Many Requests")

	t.Run("explicit retry after", func(t *testing.T) {
		err := &RateLimitError{RetryAfter: 2 * time.Second, Err: cause}

		assert.Equal(t, 2*time.Second, err.Wait())
		assert.Contains(t, err.Error(), "retry after 2s")
		assert.ErrorIs(t, err, cause)
		assert.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("default wait", func(t *testing.T) {
		err := &RateLimitError{Err: cause}

		assert.Equal(t, DefaultRetryAfter, err.Wait())
		assert.Equal(t, "rate limited: 429 Too Many Requests", err.Error())
	})
}

func TestAsRateLimit(t *testing.T) {
	wrapped := fmt.Errorf("embed: %w", &RateLimitError{RetryAfter: time.Second, Err: errors.New("slow down")})

	rle, ok := AsRateLimit(wrapped)
	require.True(t, ok)
	assert.Equal(t, time.Second, rle.RetryAfter)

	_, ok = AsRateLimit(errors.New("boom"))
	assert.False(t, ok)

	_, ok = AsRateLimit(nil)
	assert.False(t, ok)
}
