package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
	"github.com/docquery-labs/docquery-cli/internal/logger"
)

// Retry defaults for transient embedding failures.
const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = time.Second
)

// withRetry runs fn with bounded retries and doubling backoff. Only
// transient embedding failures are retried; quota errors and everything
// else fail immediately. Context cancellation aborts the wait.
func withRetry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !errors.Is(lastErr, domain.ErrEmbeddingService) || errors.Is(lastErr, domain.ErrEmbeddingQuota) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		logger.Warn("Transient failure (attempt %d/%d), retrying in %s: %v",
			attempt, attempts, delay, lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
