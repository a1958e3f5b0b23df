package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/mutation"
)

// JournalEntry is one row of the mutation journal.
type JournalEntry struct {
	ID         uuid.UUID `db:"id"`
	Entity     string    `db:"entity"`
	CacheKey   string    `db:"cache_key"`
	Outcome    string    `db:"outcome"`
	ErrorCode  string    `db:"error_code"`
	DurationMs int64     `db:"duration_ms"`
	StartedAt  time.Time `db:"started_at"`
}

// JournalRepo persists mutation records.
type JournalRepo struct {
	db  *DB
	log *slog.Logger
}

// NewJournalRepo creates a journal repository.
func NewJournalRepo(db *DB, log *slog.Logger) *JournalRepo {
	if log == nil {
		log = slog.Default()
	}
	return &JournalRepo{db: db, log: log}
}

// Save inserts one journal entry.
func (r *JournalRepo) Save(ctx context.Context, entry JournalEntry) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO mutation_journal (id, entity, cache_key, outcome, error_code, duration_ms, started_at)
		VALUES (:id, :entity, :cache_key, :outcome, :error_code, :duration_ms, :started_at)`,
		entry)
	if err != nil {
		return fmt.Errorf("failed to save journal entry: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first.
func (r *JournalRepo) Recent(ctx context.Context, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []JournalEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, entity, cache_key, outcome, error_code, duration_ms, started_at
		FROM mutation_journal
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal entries: %w", err)
	}
	return entries, nil
}

// Record implements mutation.Recorder. Journal trouble is logged, never
// surfaced into the mutation path.
func (r *JournalRepo) Record(ctx context.Context, rec mutation.Record) {
	entry := JournalEntry{
		ID:         rec.ID,
		Entity:     string(rec.Entity),
		CacheKey:   rec.Key,
		Outcome:    rec.Outcome,
		ErrorCode:  rec.ErrorCode,
		DurationMs: rec.Duration.Milliseconds(),
		StartedAt:  rec.StartedAt,
	}
	if err := r.Save(ctx, entry); err != nil {
		r.log.Warn("failed to journal mutation", "entity", entry.Entity, "error", err)
	}
}
