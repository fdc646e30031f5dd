// Package sqlite implements the issuance event journal over SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/gen-dot-art/legacy-contracts/internal/platform/storage/sqlitemigrate"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/event"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/storage"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store implements the issuance journal over SQLite. A single file backs
// the append-only event log.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a journal SQLite store and applies bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.Apply(s.sqlDB, migrations.FS)
}

// AppendEvent persists one emitted event.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(string(evt.Type)) == "" {
		return fmt.Errorf("event type is required")
	}
	payload := strings.TrimSpace(evt.PayloadJSON)
	if payload == "" {
		payload = "{}"
	}
	occurredAt := evt.Timestamp
	if occurredAt.IsZero() {
		return fmt.Errorf("event timestamp is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO mint_journal (
	event_type, payload_json, occurred_at, recorded_at
) VALUES (?, ?, ?, ?)
`,
		string(evt.Type),
		payload,
		toMillis(occurredAt),
		toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("append journal event: %w", err)
	}
	return nil
}

// ListEvents returns journal entries in append order, optionally filtered by
// event type. A limit below one returns every entry.
func (s *Store) ListEvents(ctx context.Context, eventType event.Type, limit int) ([]storage.JournalEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := `
SELECT id, event_type, payload_json, occurred_at, recorded_at
FROM mint_journal
WHERE (?1 = '' OR event_type = ?1)
ORDER BY id ASC
`
	args := []any{string(eventType)}
	if limit > 0 {
		query += " LIMIT ?2"
		args = append(args, limit)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list journal events: %w", err)
	}
	defer rows.Close()

	var entries []storage.JournalEntry
	for rows.Next() {
		var entry storage.JournalEntry
		var eventType string
		var occurredAt int64
		var recordedAt int64
		if err := rows.Scan(&entry.ID, &eventType, &entry.PayloadJSON, &occurredAt, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan journal event: %w", err)
		}
		entry.EventType = event.Type(eventType)
		entry.OccurredAt = fromMillis(occurredAt)
		entry.RecordedAt = fromMillis(recordedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal events: %w", err)
	}
	return entries, nil
}

// CountEvents returns the total number of journal entries.
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	var count int64
	row := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM mint_journal")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count journal events: %w", err)
	}
	return count, nil
}

var _ storage.Journal = (*Store)(nil)
