package httpfetcher

import (
	"context"
	"errors"
	"time"

	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

const (
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = time.Second
)

// LinearRetryPolicy retries transient download failures, waiting
// baseDelay×attempt between attempts.
type LinearRetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
}

// NewLinearRetryPolicy builds a policy; non-positive values take defaults.
func NewLinearRetryPolicy(maxAttempts int, baseDelay time.Duration) *LinearRetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = defaultRetryBaseDelay
	}
	return &LinearRetryPolicy{maxAttempts: maxAttempts, baseDelay: baseDelay}
}

// MaxAttempts is the total number of attempts, first one included.
func (p *LinearRetryPolicy) MaxAttempts() int { return p.maxAttempts }

// Retryable reports whether err is worth another attempt.
func (p *LinearRetryPolicy) Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, tender.ErrInvalidURL) || errors.Is(err, tender.ErrEmptyBody) {
		return false
	}
	var (
		tooLarge *tender.TooLargeError
		blocked  *tender.BlockedError
	)
	if errors.As(err, &tooLarge) || errors.As(err, &blocked) {
		return false
	}
	return true
}

// Backoff returns the wait before the attempt following attempt.
func (p *LinearRetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.baseDelay * time.Duration(attempt)
}
