// Package event defines the domain events the ledger emits for external
// observers. Events are facts about committed operations; core components
// never consume them.
package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/token"
)

// Type names an event kind.
type Type string

const (
	// TypeMint records a newly issued token.
	TypeMint Type = "token.minted"
	// TypeTransfer records an ownership change. A burn is a transfer to the
	// zero address.
	TypeTransfer Type = "token.transferred"
	// TypeApprovalChanged records delegated approval bookkeeping.
	TypeApprovalChanged Type = "token.approval_changed"
)

// Event is one emitted domain event.
type Event struct {
	Type        Type
	Timestamp   time.Time
	PayloadJSON string
}

// Sink consumes emitted events. Sinks are observational: a sink failure is
// reported to the caller for logging but never unwinds a committed
// operation.
type Sink interface {
	AppendEvent(ctx context.Context, evt Event) error
}

// MintPayload describes a TypeMint event.
type MintPayload struct {
	Recipient      token.Address `json:"recipient"`
	CollectionID   uint64        `json:"collection_id"`
	TokenID        token.ID      `json:"token_id"`
	ProvenanceHash string        `json:"provenance_hash"`
}

// TransferPayload describes a TypeTransfer event.
type TransferPayload struct {
	From    token.Address `json:"from"`
	To      token.Address `json:"to"`
	TokenID token.ID      `json:"token_id"`
}

// ApprovalPayload describes a TypeApprovalChanged event.
type ApprovalPayload struct {
	Owner    token.Address `json:"owner"`
	Spender  token.Address `json:"spender"`
	TokenID  token.ID      `json:"token_id,omitempty"`
	All      bool          `json:"all,omitempty"`
	Approved bool          `json:"approved"`
}

// NewMint builds a TypeMint event.
func NewMint(at time.Time, p MintPayload) Event {
	return Event{Type: TypeMint, Timestamp: at, PayloadJSON: marshal(p)}
}

// NewTransfer builds a TypeTransfer event.
func NewTransfer(at time.Time, p TransferPayload) Event {
	return Event{Type: TypeTransfer, Timestamp: at, PayloadJSON: marshal(p)}
}

// NewApprovalChanged builds a TypeApprovalChanged event.
func NewApprovalChanged(at time.Time, p ApprovalPayload) Event {
	return Event{Type: TypeApprovalChanged, Timestamp: at, PayloadJSON: marshal(p)}
}

func marshal(payload any) string {
	raw, err := json.Marshal(payload)
	if err != nil {
		// Payload types are plain structs; marshaling cannot fail at runtime.
		panic(err)
	}
	return string(raw)
}
