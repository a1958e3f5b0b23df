package mutation

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/apierr"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/cache"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/core/domain"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/retry"
)

type ap struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func fastOptions() Options {
	return Options{Policy: &retry.Policy{Retries: 2, BaseDelay: time.Millisecond}}
}

func listKey() domain.Key {
	return domain.ListKey(domain.EntityAccessPoint, map[string]string{"site": "s1"})
}

func seed(t *testing.T, bucket *cache.Bucket[[]ap], key domain.Key, value []ap) {
	t.Helper()
	if err := bucket.Set(context.Background(), key, value); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestRollbackRestoresSnapshotAndMarksStale(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()
	bucket := cache.NewBucket[[]ap](store)
	coord := New(bucket, fastOptions())

	key := listKey()
	original := []ap{{ID: 1, Name: "A"}}
	seed(t, bucket, key, original)

	var sawSpeculative []ap
	err := coord.Do(ctx, Mutation[[]ap]{
		Entity: domain.EntityAccessPoint,
		Key:    key,
		Apply: func(current []ap) []ap {
			out := make([]ap, len(current))
			copy(out, current)
			out[0].Name = "B"
			return out
		},
		Dispatch: func(ctx context.Context) error {
			// The caller observes the speculative value before the server
			// has confirmed anything.
			sawSpeculative, _, _ = bucket.Get(ctx, key)
			return &apierr.HTTPError{StatusCode: 422}
		},
	})

	if err == nil {
		t.Fatal("failed dispatch must surface an error")
	}
	var norm *apierr.Error
	if !errors.As(err, &norm) || norm.Code != apierr.CodeValidationError {
		t.Fatalf("err = %v, want normalized VALIDATION_ERROR", err)
	}

	if len(sawSpeculative) != 1 || sawSpeculative[0].Name != "B" {
		t.Errorf("speculative value during dispatch = %+v, want renamed copy", sawSpeculative)
	}

	got, ok, _ := bucket.Get(ctx, key)
	if !ok || !reflect.DeepEqual(got, original) {
		t.Errorf("cache after rollback = %+v, want exactly %+v", got, original)
	}

	entry, _ := store.Get(ctx, key.String())
	if entry == nil || !entry.Stale {
		t.Error("key must still be marked stale after rollback")
	}
}

func TestCommitMarksStale(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()
	bucket := cache.NewBucket[[]ap](store)
	coord := New(bucket, fastOptions())

	key := listKey()
	seed(t, bucket, key, []ap{{ID: 1, Name: "A"}})

	err := coord.Do(ctx, Mutation[[]ap]{
		Entity: domain.EntityAccessPoint,
		Key:    key,
		Apply: func(current []ap) []ap {
			current[0].Name = "B"
			return current
		},
		Dispatch: func(ctx context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	entry, _ := store.Get(ctx, key.String())
	if entry == nil || !entry.Stale {
		t.Error("committed key must be marked stale so the next read refetches")
	}
	got, ok, _ := bucket.Get(ctx, key)
	if !ok || got[0].Name != "B" {
		t.Errorf("speculative value should remain until refetch, got %+v", got)
	}
}

func TestSettleInvalidatesBroaderListings(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()
	bucket := cache.NewBucket[[]ap](store)
	coord := New(bucket, fastOptions())

	key := listKey()
	other := domain.ListKey(domain.EntityAccessPoint, map[string]string{"status": "up"})
	unrelated := domain.ListKey(domain.EntitySSID, nil)
	seed(t, bucket, key, []ap{{ID: 1, Name: "A"}})
	seed(t, bucket, other, []ap{{ID: 2, Name: "C"}})
	_ = cache.NewBucket[[]ap](store).Set(ctx, unrelated, nil)

	err := coord.Do(ctx, Mutation[[]ap]{
		Entity:             domain.EntityAccessPoint,
		Key:                key,
		InvalidatePrefixes: []string{domain.Prefix(domain.EntityAccessPoint)},
		Apply:              func(current []ap) []ap { return current },
		Dispatch:           func(ctx context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}

	for _, k := range []domain.Key{key, other} {
		entry, _ := store.Get(ctx, k.String())
		if entry == nil || !entry.Stale {
			t.Errorf("%s not stale after settle", k)
		}
	}
	if entry, _ := store.Get(ctx, unrelated.String()); entry == nil || entry.Stale {
		t.Error("unrelated entity listing must stay fresh")
	}
}

func TestDeleteTransformRemovesFromListing(t *testing.T) {
	ctx := context.Background()
	bucket := cache.NewBucket[[]ap](cache.NewMemory())
	coord := New(bucket, fastOptions())

	key := listKey()
	seed(t, bucket, key, []ap{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}})

	var seen []ap
	err := coord.Do(ctx, Mutation[[]ap]{
		Entity: domain.EntityAccessPoint,
		Key:    key,
		Apply: func(current []ap) []ap {
			out := current[:0:0]
			for _, item := range current {
				if item.ID != 1 {
					out = append(out, item)
				}
			}
			return out
		},
		Dispatch: func(ctx context.Context) error {
			seen, _, _ = bucket.Get(ctx, key)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if len(seen) != 1 || seen[0].ID != 2 {
		t.Errorf("speculative listing = %+v, want entity removed", seen)
	}
}

func TestMutateWithoutCachedValueSkipsApply(t *testing.T) {
	ctx := context.Background()
	bucket := cache.NewBucket[[]ap](cache.NewMemory())
	coord := New(bucket, fastOptions())

	applied := false
	err := coord.Do(ctx, Mutation[[]ap]{
		Entity:   domain.EntityAccessPoint,
		Key:      listKey(),
		Apply:    func(current []ap) []ap { applied = true; return current },
		Dispatch: func(ctx context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if applied {
		t.Error("apply must not run without a snapshot")
	}
}

func TestDispatchGoesThroughRetry(t *testing.T) {
	ctx := context.Background()
	bucket := cache.NewBucket[[]ap](cache.NewMemory())
	coord := New(bucket, fastOptions())

	calls := 0
	err := coord.Do(ctx, Mutation[[]ap]{
		Entity: domain.EntityAccessPoint,
		Key:    listKey(),
		Dispatch: func(ctx context.Context) error {
			calls++
			if calls <= 2 {
				return &apierr.HTTPError{StatusCode: 503}
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if calls != 3 {
		t.Errorf("dispatch calls = %d, want 3 (two transient failures retried)", calls)
	}
}

func TestMutationCancelsInFlightRead(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()
	bucket := cache.NewBucket[[]ap](store)
	coord := New(bucket, fastOptions())
	key := listKey()

	fetchCtx, settle := store.BeginFetch(ctx, key.String())
	go func() {
		<-fetchCtx.Done()
		settle()
	}()

	err := coord.Do(ctx, Mutation[[]ap]{
		Entity:   domain.EntityAccessPoint,
		Key:      key,
		Dispatch: func(ctx context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if fetchCtx.Err() == nil {
		t.Error("in-flight read was not cancelled before apply")
	}
}

func TestConcurrentMutationsOnSameKeyEachRestoreOwnSnapshot(t *testing.T) {
	// Documented last-writer-wins-on-rollback: each mutation restores the
	// snapshot it captured, not a later value.
	ctx := context.Background()
	bucket := cache.NewBucket[[]ap](cache.NewMemory())
	coord := New(bucket, fastOptions())
	key := listKey()
	seed(t, bucket, key, []ap{{ID: 1, Name: "A"}})

	firstDispatched := make(chan struct{})
	releaseFirst := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = coord.Do(ctx, Mutation[[]ap]{
			Entity: domain.EntityAccessPoint,
			Key:    key,
			Apply: func(current []ap) []ap {
				out := []ap{{ID: 1, Name: "first"}}
				return out
			},
			Dispatch: func(ctx context.Context) error {
				close(firstDispatched)
				<-releaseFirst
				return &apierr.HTTPError{StatusCode: 400}
			},
		})
	}()

	<-firstDispatched

	// Second mutation lands while the first is awaiting its write.
	err := coord.Do(ctx, Mutation[[]ap]{
		Entity:   domain.EntityAccessPoint,
		Key:      key,
		Apply:    func(current []ap) []ap { return []ap{{ID: 1, Name: "second"}} },
		Dispatch: func(ctx context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("second mutation: %v", err)
	}

	close(releaseFirst)
	wg.Wait()

	// The first mutation's rollback restores its own snapshot ("A"),
	// clobbering the second's committed speculative value. Settle-time
	// staleness is the correction mechanism.
	got, ok, _ := bucket.Get(ctx, key)
	if !ok || got[0].Name != "A" {
		t.Errorf("cache = %+v, want first mutation's own snapshot restored", got)
	}
}

func TestRecorderSeesOutcomes(t *testing.T) {
	ctx := context.Background()
	bucket := cache.NewBucket[[]ap](cache.NewMemory())

	var records []Record
	var mu sync.Mutex
	rec := recorderFunc(func(ctx context.Context, r Record) {
		mu.Lock()
		records = append(records, r)
		mu.Unlock()
	})
	coord := New(bucket, Options{Policy: &retry.Policy{Retries: 0, BaseDelay: time.Millisecond}, Recorder: rec})

	key := listKey()
	seed(t, bucket, key, []ap{{ID: 1, Name: "A"}})

	_ = coord.Do(ctx, Mutation[[]ap]{
		Entity:   domain.EntityAccessPoint,
		Key:      key,
		Dispatch: func(ctx context.Context) error { return nil },
	})
	_ = coord.Do(ctx, Mutation[[]ap]{
		Entity:   domain.EntityAccessPoint,
		Key:      key,
		Dispatch: func(ctx context.Context) error { return &apierr.HTTPError{StatusCode: 403} },
	})

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Outcome != OutcomeCommitted || records[0].ErrorCode != "" {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].Outcome != OutcomeRolledBack || records[1].ErrorCode != string(apierr.CodeForbidden) {
		t.Errorf("second record = %+v", records[1])
	}
}

func TestZeroRetriesPolicyDispatchesOnce(t *testing.T) {
	ctx := context.Background()
	bucket := cache.NewBucket[[]ap](cache.NewMemory())
	coord := New(bucket, Options{Policy: &retry.Policy{}})

	calls := 0
	err := coord.Do(ctx, Mutation[[]ap]{
		Entity: domain.EntityAccessPoint,
		Key:    listKey(),
		Dispatch: func(ctx context.Context) error {
			calls++
			return &apierr.HTTPError{StatusCode: 503}
		},
	})
	if err == nil {
		t.Fatal("expected dispatch failure to surface")
	}
	// Zero retries means exactly one attempt, even for a retryable failure.
	if calls != 1 {
		t.Errorf("dispatch calls = %d, want 1", calls)
	}
}

func TestNilPolicyFallsBackToDefaults(t *testing.T) {
	bucket := cache.NewBucket[[]ap](cache.NewMemory())
	coord := New(bucket, Options{})

	if coord.policy.Retries != retry.DefaultPolicy.Retries {
		t.Errorf("retries = %d, want %d", coord.policy.Retries, retry.DefaultPolicy.Retries)
	}
	if coord.policy.BaseDelay != retry.DefaultPolicy.BaseDelay {
		t.Errorf("base delay = %v, want %v", coord.policy.BaseDelay, retry.DefaultPolicy.BaseDelay)
	}
}

type recorderFunc func(ctx context.Context, rec Record)

func (f recorderFunc) Record(ctx context.Context, rec Record) {
	f(ctx, rec)
}
