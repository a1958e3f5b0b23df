// Package cache defines the read-cache contract the mutation coordinator
// collaborates with, a typed view over it, and a process-local
// implementation. Values are stored as opaque bytes; implementations must
// hand back exactly the bytes that were set for a key.
//
// Invalidation marks entries stale rather than removing them: a stale
// value stays readable (a rolled-back snapshot must survive its own
// settle) but the read path treats it as a miss and refetches.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/core/domain"
)

// Entry is a cached value and its staleness.
type Entry struct {
	Value []byte
	Stale bool
}

// Store is the minimal contract consumed by the coordinator and the
// fetch-through read path.
type Store interface {
	// Get returns the entry for key, stale or not, or nil on miss.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set installs a fresh value for a key, overwriting any previous
	// value and clearing staleness.
	Set(ctx context.Context, key string, value []byte) error

	// BeginFetch derives a cancellable context for an in-flight read of
	// key and registers it so CancelInFlight can reach it. The returned
	// func must be called when the fetch settles.
	BeginFetch(ctx context.Context, key string) (context.Context, func())

	// CancelInFlight cancels any registered in-flight read for key and
	// waits for it to acknowledge. A key with nothing in flight is not an
	// error.
	CancelInFlight(ctx context.Context, key string) error

	// Invalidate marks entries stale so the next read refetches.
	Invalidate(ctx context.Context, keys ...string) error

	// InvalidatePrefix marks every entry whose key starts with prefix stale.
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Bucket is a typed view over a Store using a JSON codec.
type Bucket[T any] struct {
	store Store
}

// NewBucket creates a typed view over store.
func NewBucket[T any](store Store) *Bucket[T] {
	return &Bucket[T]{store: store}
}

// Store exposes the underlying byte store.
func (b *Bucket[T]) Store() Store {
	return b.store
}

// Get reads and decodes the cached value for key, stale or not. This is
// the snapshot read the mutation protocol uses.
func (b *Bucket[T]) Get(ctx context.Context, key domain.Key) (T, bool, error) {
	return b.get(ctx, key, true)
}

// Fresh reads the cached value for key, treating stale entries as
// misses. This is the read path's view.
func (b *Bucket[T]) Fresh(ctx context.Context, key domain.Key) (T, bool, error) {
	return b.get(ctx, key, false)
}

func (b *Bucket[T]) get(ctx context.Context, key domain.Key, includeStale bool) (T, bool, error) {
	var zero T
	entry, err := b.store.Get(ctx, key.String())
	if err != nil {
		return zero, false, err
	}
	if entry == nil || (entry.Stale && !includeStale) {
		return zero, false, nil
	}

	var value T
	if err := json.Unmarshal(entry.Value, &value); err != nil {
		return zero, false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return value, true, nil
}

// Set encodes and installs a fresh value for key.
func (b *Bucket[T]) Set(ctx context.Context, key domain.Key, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return b.store.Set(ctx, key.String(), raw)
}

// Flights tracks in-flight fetches per key. Shared by the store
// implementations; process-local even when the byte store is remote.
type Flights struct {
	mu      sync.Mutex
	entries map[string]*flightEntry
}

type flightEntry struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (f *Flights) Begin(ctx context.Context, key string) (context.Context, func()) {
	fetchCtx, cancel := context.WithCancel(ctx)
	entry := &flightEntry{cancel: cancel, done: make(chan struct{})}

	f.mu.Lock()
	if f.entries == nil {
		f.entries = make(map[string]*flightEntry)
	}
	// A newer fetch for the same key supersedes the old registration; the
	// old fetch still runs to completion on its own context.
	f.entries[key] = entry
	f.mu.Unlock()

	var once sync.Once
	return fetchCtx, func() {
		once.Do(func() {
			close(entry.done)
			cancel()
			f.mu.Lock()
			if f.entries[key] == entry {
				delete(f.entries, key)
			}
			f.mu.Unlock()
		})
	}
}

func (f *Flights) CancelAndWait(ctx context.Context, key string) error {
	f.mu.Lock()
	entry := f.entries[key]
	f.mu.Unlock()

	if entry == nil {
		return nil
	}

	entry.cancel()
	select {
	case <-entry.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
