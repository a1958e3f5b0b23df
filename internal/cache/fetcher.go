package cache

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/core/domain"
)

// Fetcher is the read path over a Bucket: cache hit, or load from the
// server and install. Concurrent reads of the same key share one load via
// singleflight. Loads run on a context registered with the store, so a
// mutation's CancelInFlight can stop a stale read before it lands.
type Fetcher[T any] struct {
	bucket *Bucket[T]
	group  singleflight.Group
}

// NewFetcher creates a fetcher over bucket.
func NewFetcher[T any](bucket *Bucket[T]) *Fetcher[T] {
	return &Fetcher[T]{bucket: bucket}
}

// Fetch returns the fresh cached value for key, loading and caching it
// on a miss or a stale entry.
func (f *Fetcher[T]) Fetch(ctx context.Context, key domain.Key, load func(context.Context) (T, error)) (T, error) {
	var zero T

	value, ok, err := f.bucket.Fresh(ctx, key)
	if err != nil {
		return zero, err
	}
	if ok {
		return value, nil
	}

	result, err, _ := f.group.Do(key.String(), func() (any, error) {
		fetchCtx, settle := f.bucket.Store().BeginFetch(ctx, key.String())
		defer settle()

		loaded, err := load(fetchCtx)
		if err != nil {
			return nil, err
		}

		// A cancelled fetch must not clobber a speculative value that was
		// installed while the load was in flight.
		if fetchCtx.Err() != nil {
			return loaded, nil
		}

		if err := f.bucket.Set(fetchCtx, key, loaded); err != nil {
			return nil, err
		}
		return loaded, nil
	})
	if err != nil {
		return zero, err
	}
	return result.(T), nil
}
