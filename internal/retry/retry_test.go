package retry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/apierr"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/ops/metrics"
)

func fastPolicy(retries int) Policy {
	return Policy{Retries: retries, BaseDelay: time.Millisecond}
}

func TestExecuteSuccessFirstTry(t *testing.T) {
	calls := 0
	result, err := Execute(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	}, fastPolicy(5))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("result = %q calls = %d, want ok after 1 call", result, calls)
	}
}

func TestExecuteExhaustsRetries(t *testing.T) {
	calls := 0
	_, err := Execute(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", &apierr.HTTPError{StatusCode: 503}
	}, fastPolicy(3))

	if calls != 4 {
		t.Errorf("calls = %d, want retries+1 = 4", calls)
	}

	var norm *apierr.Error
	if !errors.As(err, &norm) {
		t.Fatalf("terminal error is not normalized: %T %v", err, err)
	}
	if norm.Code != apierr.CodeServiceUnavailable {
		t.Errorf("code = %s, want SERVICE_UNAVAILABLE", norm.Code)
	}
}

func TestExecuteNoRetryOnClientErrors(t *testing.T) {
	for _, status := range []int{400, 401, 403, 404, 422} {
		calls := 0
		_, err := Execute(context.Background(), func(ctx context.Context) (int, error) {
			calls++
			return 0, &apierr.HTTPError{StatusCode: status}
		}, fastPolicy(5))

		if calls != 1 {
			t.Errorf("status %d: calls = %d, want 1", status, calls)
		}
		if err == nil {
			t.Errorf("status %d: expected error", status)
		}
	}
}

func TestExecuteEventualSuccess(t *testing.T) {
	calls := 0
	result, err := Execute(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		if calls <= 2 {
			return 0, &apierr.RequestError{Err: errors.New("connection refused")}
		}
		return 42, nil
	}, fastPolicy(5))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 || calls != 3 {
		t.Errorf("result = %d calls = %d, want 42 after 3 calls", result, calls)
	}
}

func TestExecuteCustomShouldRetryOverridesDefault(t *testing.T) {
	// A 404 is not retryable by default; a custom predicate flips that.
	calls := 0
	policy := Policy{
		Retries:     2,
		BaseDelay:   time.Millisecond,
		ShouldRetry: func(err error) bool { return true },
	}
	_, _ = Execute(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, &apierr.HTTPError{StatusCode: 404}
	}, policy)

	if calls != 3 {
		t.Errorf("calls = %d, want 3 with always-retry predicate", calls)
	}
}

func TestExecuteCountsRetryAttempts(t *testing.T) {
	counter := metrics.RetryAttemptsTotal.WithLabelValues(string(apierr.CodeServiceUnavailable))
	before := testutil.ToFloat64(counter)

	_, _ = Execute(context.Background(), func(ctx context.Context) (int, error) {
		return 0, &apierr.HTTPError{StatusCode: 503}
	}, fastPolicy(2))

	// Two re-attempts after the first call, each counted under the
	// normalized code. The first attempt and the terminal failure are not.
	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("retry attempts counted = %v, want 2", got)
	}
}

func TestExecuteConcurrentIsolation(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(2)

	var slowCalls, fastCalls int

	go func() {
		defer wg.Done()
		n := 0
		_, err := Execute(context.Background(), func(ctx context.Context) (string, error) {
			n++
			if n <= 2 {
				return "", &apierr.HTTPError{StatusCode: 502}
			}
			return "slow", nil
		}, fastPolicy(5))
		if err != nil {
			t.Errorf("slow call failed: %v", err)
		}
		slowCalls = n
	}()

	go func() {
		defer wg.Done()
		n := 0
		_, err := Execute(context.Background(), func(ctx context.Context) (string, error) {
			n++
			return "fast", nil
		}, fastPolicy(5))
		if err != nil {
			t.Errorf("fast call failed: %v", err)
		}
		fastCalls = n
	}()

	wg.Wait()

	if slowCalls != 3 {
		t.Errorf("retrying call made %d attempts, want 3", slowCalls)
	}
	if fastCalls != 1 {
		t.Errorf("immediate call made %d attempts, want 1", fastCalls)
	}
}

func TestExecuteContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Execute(ctx, func(ctx context.Context) (int, error) {
		calls++
		return 0, &apierr.HTTPError{StatusCode: 503}
	}, Policy{Retries: 5, BaseDelay: time.Hour})

	if calls != 1 {
		t.Errorf("calls = %d, want 1 before cancellation is noticed", calls)
	}
	var norm *apierr.Error
	if !errors.As(err, &norm) {
		t.Fatalf("cancellation did not surface a normalized error: %v", err)
	}
}

func TestBackoffGrowthAndCap(t *testing.T) {
	base := 100 * time.Millisecond
	// Raw (pre-jitter) delay doubles per attempt; with jitter bounded at
	// 10%, delay(n+1) is always >= delay(n) is too strict, but the
	// doubling dominates: delay(n+1) >= 2^(n+1)*base > 1.1*2^n*base.
	for attempt := 0; attempt < 5; attempt++ {
		lo := Backoff(attempt, base)
		hi := Backoff(attempt+1, base)
		if hi < lo {
			t.Errorf("backoff shrank: attempt %d %v -> attempt %d %v", attempt, lo, attempt+1, hi)
		}
	}

	for attempt := 0; attempt < 12; attempt++ {
		if d := Backoff(attempt, 10*time.Second); d > MaxDelay {
			t.Errorf("attempt %d: delay %v exceeds cap", attempt, d)
		}
	}
	if d := Backoff(4, 10*time.Second); d > 30*time.Second {
		t.Errorf("delay(4, 10s) = %v, want <= 30s", d)
	}
}

func TestBackoffJitterVaries(t *testing.T) {
	seen := make(map[time.Duration]bool)
	for i := 0; i < 10; i++ {
		seen[Backoff(2, 100*time.Millisecond)] = true
	}
	if len(seen) < 2 {
		t.Errorf("10 samples produced %d distinct delays, want jitter variation", len(seen))
	}
}
