package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RetryConfig configures retries of writes that hit a locked or busy database.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns the retry policy used when none is configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
}

// withRetry runs fn until it succeeds, fails permanently or retries run out.
func (s *Store) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := s.retry.InitialDelay

	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay = time.Duration(float64(delay) * s.retry.BackoffFactor)
			if delay > s.retry.MaxDelay {
				delay = s.retry.MaxDelay
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return err
		}
	}

	return fmt.Errorf("sqlstore: operation failed after %d retries: %w", s.retry.MaxRetries, lastErr)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}
