package apperr

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnavailableError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("query: %w", Unavailable("en", os.ErrNotExist))

	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), `catalog "en"`)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, DefaultRetryAfter, RetryAfter(Unavailable("en", nil)))
	assert.Equal(t, 5*time.Second, RetryAfter(&UnavailableError{Locale: "zh", RetryAfter: 5 * time.Second}))
	assert.Equal(t, DefaultRetryAfter, RetryAfter(&UnavailableError{Locale: "zh"}))
	assert.Zero(t, RetryAfter(errors.New("boom")))
	assert.Zero(t, RetryAfter(nil))
}
