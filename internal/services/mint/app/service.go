// Package app hosts the issuance service: it owns the domain state, gates
// the administrative surface behind operator grants, serializes every
// operation, and fans committed events out to the journal.
package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/gen-dot-art/legacy-contracts/internal/platform/errors"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/allocator"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/coordinator"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/event"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/funds"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/grant"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/ledger"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/registry"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/token"
)

// ErrRecipientInvalid indicates a transfer aimed at the zero address.
var ErrRecipientInvalid = apperrors.New(apperrors.CodeRecipientInvalid, "recipient address is required")

// Deps wires the service's external collaborators.
type Deps struct {
	Members  allocator.MembershipService
	Currency funds.CurrencyLedger
	Native   funds.NativeTransfer
	Operator token.Address
	Selector coordinator.RandomSelection
	// Grant gates the administrative surface. A nil config leaves admin
	// operations open; production wiring always sets it.
	Grant *grant.Config
	// Sink receives committed events. Append failures are logged and never
	// unwind the operation.
	Sink  event.Sink
	Clock func() time.Time
}

// Service owns the issuance state. A single mutex serializes every
// operation, reads included: strict serialization is the concurrency model,
// not an optimization.
type Service struct {
	mu sync.Mutex

	registry    *registry.Registry
	ledger      *ledger.Ledger
	allocator   *allocator.Allocator
	coordinator *coordinator.Coordinator

	grantCfg *grant.Config
	sink     event.Sink
	clock    func() time.Time
	tracer   trace.Tracer
}

// New assembles the issuance service over its collaborators.
func New(deps Deps) *Service {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	reg := registry.New()
	led := ledger.New()
	alloc := allocator.New(reg, deps.Members)
	splitter := funds.New(deps.Currency, deps.Native, deps.Operator)
	coord := coordinator.New(reg, led, alloc, splitter, deps.Selector, clock)
	return &Service{
		registry:    reg,
		ledger:      led,
		allocator:   alloc,
		coordinator: coord,
		grantCfg:    deps.Grant,
		sink:        deps.Sink,
		clock:       clock,
		tracer:      otel.Tracer("mint"),
	}
}

// authorizeAdmin validates an operator grant for the admin surface.
func (s *Service) authorizeAdmin(grantToken string) error {
	if s.grantCfg == nil {
		return nil
	}
	_, err := grant.Validate(grantToken, grant.ScopeAdmin, *s.grantCfg)
	return err
}

// emit fans events out to the journal. Failures are logged, never returned:
// the operation is already committed.
func (s *Service) emit(ctx context.Context, events ...event.Event) {
	if s.sink == nil {
		return
	}
	for _, evt := range events {
		if err := s.sink.AppendEvent(ctx, evt); err != nil {
			log.Printf("journal append %s: %v", evt.Type, err)
		}
	}
}

// CreateGroup registers a collection group. Reusing an id overwrites the
// previous definition.
func (s *Service) CreateGroup(ctx context.Context, grantToken string, groupID uint64, tier registry.Tier, priceA, priceB *uint256.Int) error {
	_, span := s.tracer.Start(ctx, "mint.CreateGroup")
	defer span.End()
	if err := s.authorizeAdmin(grantToken); err != nil {
		span.RecordError(err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registry.CreateGroup(groupID, tier, priceA, priceB); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// CreateCollection registers a collection inside an existing group and
// returns its sequential id.
func (s *Service) CreateCollection(ctx context.Context, grantToken string, artist token.Address, rewardPercent uint8, maxInvocations, groupID uint64, script []byte) (uint64, error) {
	_, span := s.tracer.Start(ctx, "mint.CreateCollection")
	defer span.End()
	if err := s.authorizeAdmin(grantToken); err != nil {
		span.RecordError(err)
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.registry.CreateCollection(artist, rewardPercent, maxInvocations, groupID, script)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return id, nil
}

// UpdatePrice changes a group's prices. A nil price leaves that rail
// unchanged.
func (s *Service) UpdatePrice(ctx context.Context, grantToken string, groupID uint64, priceA, priceB *uint256.Int) error {
	_, span := s.tracer.Start(ctx, "mint.UpdatePrice")
	defer span.End()
	if err := s.authorizeAdmin(grantToken); err != nil {
		span.RecordError(err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registry.UpdatePrice(groupID, priceA, priceB); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// UpdateScript replaces a collection's generator script.
func (s *Service) UpdateScript(ctx context.Context, grantToken string, collectionID uint64, script []byte) error {
	_, span := s.tracer.Start(ctx, "mint.UpdateScript")
	defer span.End()
	if err := s.authorizeAdmin(grantToken); err != nil {
		span.RecordError(err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registry.UpdateScript(collectionID, script); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// UpdateArtistAddress lets the current artist of a collection move their
// payout address. No operator grant: the artist relationship is the gate.
func (s *Service) UpdateArtistAddress(ctx context.Context, caller token.Address, collectionID uint64, newArtist token.Address) error {
	_, span := s.tracer.Start(ctx, "mint.UpdateArtistAddress")
	defer span.End()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registry.UpdateArtistAddress(caller, collectionID, newArtist); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Mint runs the issuance pipeline for the request and journals the
// committed events.
func (s *Service) Mint(ctx context.Context, req coordinator.MintRequest) (*coordinator.MintResult, error) {
	ctx, span := s.tracer.Start(ctx, "mint.Mint")
	defer span.End()
	s.mu.Lock()
	res, err := s.coordinator.Mint(req)
	s.mu.Unlock()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.emit(ctx, res.Events...)
	return res, nil
}

// Transfer moves a token. The caller must be the owner, the approved
// spender, or an operator for the owner.
func (s *Service) Transfer(ctx context.Context, caller, to token.Address, id token.ID) error {
	ctx, span := s.tracer.Start(ctx, "mint.Transfer")
	defer span.End()
	if to.IsZero() {
		span.RecordError(ErrRecipientInvalid)
		return ErrRecipientInvalid
	}
	s.mu.Lock()
	owner, err := s.ledger.OwnerOf(id)
	if err == nil && caller != owner && s.ledger.Approved(id) != caller && !s.ledger.IsApprovedForAll(owner, caller) {
		err = ledger.ErrNotOwner
	}
	if err == nil {
		err = s.ledger.Transfer(owner, to, id)
	}
	s.mu.Unlock()
	if err != nil {
		span.RecordError(err)
		return err
	}
	s.emit(ctx, event.NewTransfer(s.clock(), event.TransferPayload{From: owner, To: to, TokenID: id}))
	return nil
}

// Burn destroys a caller-owned token. The consumed invocation slot stays
// consumed. The journal records a transfer to the zero address.
func (s *Service) Burn(ctx context.Context, caller token.Address, id token.ID) error {
	ctx, span := s.tracer.Start(ctx, "mint.Burn")
	defer span.End()
	s.mu.Lock()
	err := s.ledger.Burn(caller, id)
	s.mu.Unlock()
	if err != nil {
		span.RecordError(err)
		return err
	}
	s.emit(ctx, event.NewTransfer(s.clock(), event.TransferPayload{From: caller, To: token.ZeroAddress, TokenID: id}))
	return nil
}

// Approve grants or clears a single-token transfer approval.
func (s *Service) Approve(ctx context.Context, caller, spender token.Address, id token.ID) error {
	ctx, span := s.tracer.Start(ctx, "mint.Approve")
	defer span.End()
	s.mu.Lock()
	owner, err := s.ledger.OwnerOf(id)
	if err == nil {
		err = s.ledger.Approve(caller, spender, id)
	}
	s.mu.Unlock()
	if err != nil {
		span.RecordError(err)
		return err
	}
	s.emit(ctx, event.NewApprovalChanged(s.clock(), event.ApprovalPayload{
		Owner:    owner,
		Spender:  spender,
		TokenID:  id,
		Approved: !spender.IsZero(),
	}))
	return nil
}

// SetApprovalForAll grants or revokes an operator for all of the caller's
// tokens.
func (s *Service) SetApprovalForAll(ctx context.Context, caller, operator token.Address, approved bool) {
	ctx, span := s.tracer.Start(ctx, "mint.SetApprovalForAll")
	defer span.End()
	s.mu.Lock()
	s.ledger.SetApprovalForAll(caller, operator, approved)
	s.mu.Unlock()
	s.emit(ctx, event.NewApprovalChanged(s.clock(), event.ApprovalPayload{
		Owner:    caller,
		Spender:  operator,
		All:      true,
		Approved: approved,
	}))
}

// Group returns a detached copy of a group definition. Live registry records
// never leave the mutex.
func (s *Service) Group(id uint64) (*registry.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, err := s.registry.Group(id)
	if err != nil {
		return nil, err
	}
	return group.Snapshot(), nil
}

// Collection returns a detached copy of a collection definition.
func (s *Service) Collection(id uint64) (*registry.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, err := s.registry.Collection(id)
	if err != nil {
		return nil, err
	}
	return coll.Snapshot(), nil
}

// Token returns the full record of a token.
func (s *Service) Token(id token.ID) (token.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Record(id)
}

// OwnerOf returns the current owner of a token.
func (s *Service) OwnerOf(id token.ID) (token.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.OwnerOf(id)
}

// BalanceOf returns how many tokens owner holds.
func (s *Service) BalanceOf(owner token.Address) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.BalanceOf(owner)
}

// TokensOf returns owner's full token list.
func (s *Service) TokensOf(owner token.Address) []token.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.TokensOf(owner)
}

// TokenOfOwnerByIndex returns owner's token at position i.
func (s *Service) TokenOfOwnerByIndex(owner token.Address, i uint64) (token.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.TokenOfOwnerByIndex(owner, i)
}

// TotalSupply returns the number of tokens in existence.
func (s *Service) TotalSupply() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.TotalSupply()
}

// TokenByIndex returns the token at position i of the global index.
func (s *Service) TokenByIndex(i uint64) (token.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.TokenByIndex(i)
}

// Approved returns the single-token approval for id, if any.
func (s *Service) Approved(id token.ID) token.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Approved(id)
}

// IsApprovedForAll reports whether operator may act for all of owner's
// tokens.
func (s *Service) IsApprovedForAll(owner, operator token.Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.IsApprovedForAll(owner, operator)
}

// MintedCount returns how many units a membership has consumed in a group.
func (s *Service) MintedCount(groupID, membershipID uint64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allocator.MintedCount(groupID, membershipID)
}
