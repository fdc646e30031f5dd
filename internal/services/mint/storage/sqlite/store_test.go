package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/event"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestAppendAndListEvents(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	events := []event.Event{
		{Type: event.TypeMint, Timestamp: at, PayloadJSON: `{"tokenId":100001}`},
		{Type: event.TypeTransfer, Timestamp: at.Add(time.Second), PayloadJSON: `{"tokenId":100001}`},
		{Type: event.TypeMint, Timestamp: at.Add(2 * time.Second), PayloadJSON: `{"tokenId":100002}`},
	}
	for _, evt := range events {
		if err := store.AppendEvent(ctx, evt); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := store.ListEvents(ctx, "", 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("entries = %d, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].ID <= all[i-1].ID {
			t.Fatalf("ids not ascending: %d after %d", all[i].ID, all[i-1].ID)
		}
	}
	if !all[0].OccurredAt.Equal(at) {
		t.Fatalf("occurred at = %v, want %v", all[0].OccurredAt, at)
	}

	mints, err := store.ListEvents(ctx, event.TypeMint, 0)
	if err != nil {
		t.Fatalf("list mints: %v", err)
	}
	if len(mints) != 2 {
		t.Fatalf("mint entries = %d, want 2", len(mints))
	}

	limited, err := store.ListEvents(ctx, "", 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 || limited[0].PayloadJSON != `{"tokenId":100001}` {
		t.Fatalf("limited = %+v, want first entry", limited)
	}

	count, err := store.CountEvents(ctx)
	if err != nil || count != 3 {
		t.Fatalf("count = %d (%v), want 3", count, err)
	}
}

func TestAppendEventValidation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.AppendEvent(ctx, event.Event{Timestamp: time.Now()}); err == nil {
		t.Fatal("expected error for missing event type")
	}
	if err := store.AppendEvent(ctx, event.Event{Type: event.TypeMint}); err == nil {
		t.Fatal("expected error for zero timestamp")
	}
}

func TestAppendDefaultsEmptyPayload(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.AppendEvent(ctx, event.Event{Type: event.TypeMint, Timestamp: time.Now()}); err != nil {
		t.Fatalf("append: %v", err)
	}
	entries, err := store.ListEvents(ctx, event.TypeMint, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].PayloadJSON != "{}" {
		t.Fatalf("payload = %q, want {}", entries[0].PayloadJSON)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	second, err := Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	_ = second.Close()
}
