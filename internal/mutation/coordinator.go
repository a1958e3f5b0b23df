// Package mutation implements the optimistic write protocol every portal
// mutation follows: cancel in-flight reads, snapshot the cached value,
// apply the local transform, dispatch the write with retry, roll back on
// failure, and invalidate on settle. One generic coordinator replaces the
// per-entity copies of this sequence.
package mutation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/apierr"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/cache"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/core/domain"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/ops/metrics"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/retry"
)

// Outcome labels how a mutation settled.
const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
)

// Record is the diagnostic trail of one settled mutation.
type Record struct {
	ID        uuid.UUID
	Entity    domain.EntityType
	Key       string
	Outcome   string
	ErrorCode string
	Duration  time.Duration
	StartedAt time.Time
}

// Recorder receives the record of each settled mutation.
type Recorder interface {
	Record(ctx context.Context, rec Record)
}

// NopRecorder discards records.
type NopRecorder struct{}

func (NopRecorder) Record(ctx context.Context, rec Record) {}

// Mutation describes one write against a cached listing or entity.
type Mutation[T any] struct {
	Entity domain.EntityType
	// Key is the cache key the speculative update targets.
	Key domain.Key
	// InvalidatePrefixes marks broader listings that could include the
	// affected entity stale on settle, in addition to Key itself.
	InvalidatePrefixes []string
	// Apply computes the speculative value from the current cached value.
	// Only runs when a cached value exists.
	Apply func(current T) T
	// Dispatch sends the actual write to the server.
	Dispatch func(ctx context.Context) error
}

// Options configures a coordinator.
type Options struct {
	// Policy is the dispatch retry policy. Nil means retry.DefaultPolicy;
	// a pointer to a zero-retries policy disables retrying entirely.
	Policy   *retry.Policy
	Recorder Recorder
	Logger   *slog.Logger
}

// Coordinator runs the optimistic protocol for one cached value type.
type Coordinator[T any] struct {
	bucket   *cache.Bucket[T]
	policy   retry.Policy
	recorder Recorder
	log      *slog.Logger
}

// New creates a coordinator over bucket.
func New[T any](bucket *cache.Bucket[T], opts Options) *Coordinator[T] {
	if opts.Recorder == nil {
		opts.Recorder = NopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	policy := retry.DefaultPolicy
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	return &Coordinator[T]{
		bucket:   bucket,
		policy:   policy,
		recorder: opts.Recorder,
		log:      opts.Logger,
	}
}

// Context is the per-mutation transient record: the captured snapshot and
// nothing else. It is consumed exactly once, by OnError or OnSettled.
type Context[T any] struct {
	mutation    Mutation[T]
	snapshot    T
	hasSnapshot bool
	id          uuid.UUID
	startedAt   time.Time
}

// OnMutate runs the front half of the protocol: cancel any in-flight read
// for the key, capture the snapshot, and install the speculative value.
// Cache trouble degrades to a non-optimistic mutation rather than
// blocking the write.
func (c *Coordinator[T]) OnMutate(ctx context.Context, m Mutation[T]) *Context[T] {
	mctx := &Context[T]{
		mutation:  m,
		id:        uuid.New(),
		startedAt: time.Now(),
	}

	store := c.bucket.Store()
	if err := store.CancelInFlight(ctx, m.Key.String()); err != nil {
		c.log.Warn("cancel in-flight read failed", "key", m.Key.String(), "error", err)
	}

	snapshot, ok, err := c.bucket.Get(ctx, m.Key)
	if err != nil {
		c.log.Warn("snapshot read failed, mutating without optimistic update",
			"key", m.Key.String(), "error", err)
		return mctx
	}
	if !ok {
		return mctx
	}

	mctx.snapshot = snapshot
	mctx.hasSnapshot = true

	if m.Apply != nil {
		if err := c.bucket.Set(ctx, m.Key, m.Apply(snapshot)); err != nil {
			c.log.Warn("speculative apply failed", "key", m.Key.String(), "error", err)
		}
	}
	return mctx
}

// OnError rolls the cache back to the exact snapshot this mutation
// captured and returns the normalized cause. A concurrent mutation's
// later value is knowingly overwritten (last-writer-wins on rollback).
func (c *Coordinator[T]) OnError(ctx context.Context, mctx *Context[T], cause error) *apierr.Error {
	m := mctx.mutation
	if mctx.hasSnapshot {
		if err := c.bucket.Set(ctx, m.Key, mctx.snapshot); err != nil {
			c.log.Error("rollback failed, relying on settle invalidation",
				"key", m.Key.String(), "error", err)
		}
		metrics.RollbacksTotal.WithLabelValues(string(m.Entity)).Inc()
	}

	norm := apierr.Normalize(cause)
	c.log.Warn("mutation failed, cache rolled back",
		"entity", string(m.Entity), "key", m.Key.String(),
		"code", string(norm.Code), "error", norm.Message)
	return norm
}

// OnSettled marks the mutated key and every broader listing stale so the
// next read fetches authoritative server state. Runs on success and
// failure alike.
func (c *Coordinator[T]) OnSettled(ctx context.Context, mctx *Context[T]) {
	m := mctx.mutation
	store := c.bucket.Store()

	if err := store.Invalidate(ctx, m.Key.String()); err != nil {
		c.log.Warn("settle invalidation failed", "key", m.Key.String(), "error", err)
	}
	for _, prefix := range m.InvalidatePrefixes {
		if err := store.InvalidatePrefix(ctx, prefix); err != nil {
			c.log.Warn("settle prefix invalidation failed", "prefix", prefix, "error", err)
		}
	}
	metrics.CacheInvalidationsTotal.WithLabelValues(string(m.Entity)).Inc()
}

// Do runs the full protocol around m.Dispatch. The dispatch goes through
// the retry policy; a terminal failure rolls back and is rethrown
// normalized, never swallowed.
func (c *Coordinator[T]) Do(ctx context.Context, m Mutation[T]) error {
	mctx := c.OnMutate(ctx, m)

	_, dispatchErr := retry.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.Dispatch(ctx)
	}, c.policy)

	var result error
	outcome := OutcomeCommitted
	errorCode := ""
	if dispatchErr != nil {
		norm := c.OnError(ctx, mctx, dispatchErr)
		result = norm
		outcome = OutcomeRolledBack
		errorCode = string(norm.Code)
	}

	c.OnSettled(ctx, mctx)

	metrics.MutationsTotal.WithLabelValues(string(m.Entity), outcome).Inc()
	c.recorder.Record(ctx, Record{
		ID:        mctx.id,
		Entity:    m.Entity,
		Key:       m.Key.String(),
		Outcome:   outcome,
		ErrorCode: errorCode,
		Duration:  time.Since(mctx.startedAt),
		StartedAt: mctx.startedAt,
	})

	return result
}
