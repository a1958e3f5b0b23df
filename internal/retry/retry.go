// Package retry wraps remote operations with bounded retry and capped
// exponential backoff. Every Execute call runs its own attempt loop;
// nothing is shared between concurrent calls.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/apierr"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/ops/metrics"
)

// MaxDelay caps the backoff delay between attempts.
const MaxDelay = 30 * time.Second

const jitterFraction = 0.10

// Policy defines retry behavior for one call site. Policies are value
// types; never mutate a shared policy in place.
type Policy struct {
	// Retries is the number of re-attempts after the first call.
	Retries int
	// BaseDelay seeds the exponential backoff.
	BaseDelay time.Duration
	// ShouldRetry decides whether a failure is worth re-attempting. When
	// set it fully replaces the default classification.
	ShouldRetry func(error) bool
}

// DefaultPolicy provides sensible defaults: three retries, one second
// base delay, transient-only classification.
var DefaultPolicy = Policy{
	Retries:   3,
	BaseDelay: 1 * time.Second,
	ShouldRetry: func(err error) bool {
		return apierr.IsRetryable(err)
	},
}

func (p Policy) withDefaults() Policy {
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultPolicy.BaseDelay
	}
	if p.ShouldRetry == nil {
		p.ShouldRetry = DefaultPolicy.ShouldRetry
	}
	return p
}

// Backoff computes the pre-retry delay for a 0-based attempt index:
// base doubled per attempt, perturbed by up to 10% random jitter, never
// above MaxDelay.
func Backoff(attempt int, base time.Duration) time.Duration {
	delay := float64(base) * math.Pow(2, float64(attempt))
	if delay > float64(MaxDelay) {
		delay = float64(MaxDelay)
	}
	delay += delay * jitterFraction * rand.Float64()
	if delay > float64(MaxDelay) {
		delay = float64(MaxDelay)
	}
	return time.Duration(delay)
}

// Execute runs op, re-attempting on failures the policy classifies as
// retryable, up to policy.Retries additional attempts. On success the
// result is returned immediately. A non-retryable failure, exhausted
// retries, or context cancellation surfaces a normalized *apierr.Error,
// never the raw transport error.
func Execute[T any](ctx context.Context, op func(context.Context) (T, error), policy Policy) (T, error) {
	policy = policy.withDefaults()

	var zero T
	for attempt := 0; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if !policy.ShouldRetry(err) || attempt >= policy.Retries {
			return zero, apierr.Normalize(err)
		}

		metrics.RetryAttemptsTotal.WithLabelValues(string(apierr.Normalize(err).Code)).Inc()

		select {
		case <-ctx.Done():
			return zero, apierr.Normalize(ctx.Err())
		case <-time.After(Backoff(attempt, policy.BaseDelay)):
		}
	}
}
