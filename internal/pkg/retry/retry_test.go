package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/stretchr/testify/assert"
)

func TestToRetryOptions(t *testing.T) {
	cfg := RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: time.Millisecond}

	calls := 0
	err := retry.Do(func() error {
		calls++
		return errors.New("flaky")
	}, cfg.ToRetryOptions(context.Background())...)

	assert.EqualError(t, err, "flaky", "only the last error is reported")
	assert.Equal(t, 3, calls)
}

func TestToRetryOptions_StopsOnCancel(t *testing.T) {
	cfg := DefaultRetryConfig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_ = retry.Do(func() error {
		calls++
		return errors.New("down")
	}, cfg.ToRetryOptions(ctx)...)

	assert.LessOrEqual(t, calls, 1)
}
