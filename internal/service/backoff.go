package service

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"xscraper/internal/core/domain"
)

const (
	// DefaultBackoffMax caps a single retry delay.
	DefaultBackoffMax = 30 * time.Second

	jitterFraction = 0.1
)

// RetryPolicy controls how transient failures are retried.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries  int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// PolicyFor extracts the retry policy from a job.
func PolicyFor(job domain.ScrapeJob) RetryPolicy {
	return RetryPolicy{
		MaxRetries:  job.MaxRetries,
		BackoffBase: job.BackoffBase,
		BackoffMax:  job.BackoffMax,
	}
}

// Backoff returns base * 2^(attempt-1), capped at max. A non-positive max
// means DefaultBackoffMax.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if max <= 0 {
		max = DefaultBackoffMax
	}
	if base <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max || d <= 0 {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// withJitter adds up to jitterFraction of d, never exceeding max.
func withJitter(d, max time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	if max <= 0 {
		max = DefaultBackoffMax
	}
	d += time.Duration(rand.Float64() * jitterFraction * float64(d))
	if d > max {
		return max
	}
	return d
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retry calls fn until it succeeds, returns a permanent error, or the policy
// is exhausted. It returns the number of attempts made.
func (o *Orchestrator) retry(ctx context.Context, policy RetryPolicy, log *logrus.Entry, fn func() error) (int, error) {
	for attempt := 1; ; attempt++ {
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return attempt - 1, err
			}
		}

		err := fn()
		if err == nil {
			return attempt, nil
		}
		if ctx.Err() != nil {
			return attempt, ctx.Err()
		}
		if !domain.IsRetryable(err) || attempt > policy.MaxRetries {
			return attempt, err
		}

		delay := withJitter(Backoff(attempt, policy.BackoffBase, policy.BackoffMax), policy.BackoffMax)
		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"kind":    domain.KindOf(err),
			"error":   err,
			"backoff": delay.String(),
		}).Warn("Attempt failed, scheduling retry")

		if err := o.sleep(ctx, delay); err != nil {
			return attempt, err
		}
	}
}
