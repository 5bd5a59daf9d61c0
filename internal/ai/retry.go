package ai

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"

	"resumeparser/internal/errors"
)

// maxBackoff caps the delay between two attempts
const maxBackoff = 30 * time.Second

// retryPolicy decides how often and on which errors a model call is retried
type retryPolicy struct {
	maxRetries int
	retryable  func(error) bool
	logger     *errors.Logger
	// sleep waits for d or until ctx is done; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

func newRetryPolicy(maxRetries int, retryable func(error) bool, logger *errors.Logger) retryPolicy {
	return retryPolicy{
		maxRetries: maxRetries,
		retryable:  retryable,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// executeWithRetry executes a model call with retry logic and exponential backoff
func executeWithRetry[T any](ctx context.Context, p retryPolicy, operation string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", p.maxRetries,
				"error", lastErr.Error())

			if err := p.sleep(ctx, backoffDelay(attempt)); err != nil {
				return zero, err
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				p.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		if ctx.Err() != nil || !p.retryable(err) {
			p.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			return zero, err
		}
	}

	p.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", p.maxRetries+1)

	return zero, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, p.maxRetries, lastErr)
}

// backoffDelay returns 2^(attempt-1) seconds plus up to 10% jitter, capped at maxBackoff
func backoffDelay(attempt int) time.Duration {
	// 2^5s already exceeds the cap
	if attempt > 5 {
		return maxBackoff
	}
	baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	jitter := time.Duration(0)
	if jitterMax := int64(float64(baseDelay) * 0.1); jitterMax > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(baseDelay+jitter, maxBackoff)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
