// Package storage defines persistence contracts for the issuance service.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/event"
)

// ErrNotFound indicates a missing journal record.
var ErrNotFound = errors.New("record not found")

// JournalEntry is one persisted issuance event.
type JournalEntry struct {
	ID          int64
	EventType   event.Type
	PayloadJSON string
	OccurredAt  time.Time
	RecordedAt  time.Time
}

// Journal persists emitted issuance events in order. Appends are
// observational: a journal failure never unwinds a committed operation.
type Journal interface {
	AppendEvent(ctx context.Context, evt event.Event) error
	ListEvents(ctx context.Context, eventType event.Type, limit int) ([]JournalEntry, error)
	CountEvents(ctx context.Context) (int64, error)
}
