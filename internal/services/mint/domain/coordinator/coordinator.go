// Package coordinator orchestrates mint requests across the registry,
// allocator, ledger, and funds splitter.
//
// Every request runs as a unit of work: the pipeline stages all counter,
// token, and payment mutations while validating each unit against the
// staged state, and nothing touches the owned stores until every unit has
// validated and the external payment legs have succeeded. A failure at any
// point discards the staged work whole.
package coordinator

import (
	"time"

	"github.com/holiman/uint256"

	apperrors "github.com/gen-dot-art/legacy-contracts/internal/platform/errors"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/allocator"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/event"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/funds"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/ledger"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/registry"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/token"
)

var (
	// ErrCountInvalid indicates a batch count below one.
	ErrCountInvalid = apperrors.New(apperrors.CodeCountInvalid, "mint count must be at least 1")
	// ErrRecipientInvalid indicates a mint aimed at the zero address. The
	// ledger reserves the zero value for "no owner", so a zero-owned token
	// would be indistinguishable from a destroyed one.
	ErrRecipientInvalid = apperrors.New(apperrors.CodeRecipientInvalid, "recipient address is required")
	// ErrSelectionFailed indicates the random-selection collaborator could
	// not pick a collection.
	ErrSelectionFailed = apperrors.New(apperrors.CodeSelectionFailed, "collection selection failed")
)

// RandomSelection picks one id among eligible candidates. The collaborator
// owns its nonce; the only contract is that the nonce has advanced by the
// time of the next call.
type RandomSelection interface {
	Choose(candidates []uint64) (uint64, error)
	AdvanceNonce()
}

// MintRequest describes a single or batch mint.
type MintRequest struct {
	Requester    token.Address
	To           token.Address
	GroupID      uint64
	MembershipID uint64
	Count        uint64
	Currency     funds.Currency
	// Offered is the native value sent with a primary-rail request; ignored
	// on the alternate rail.
	Offered *uint256.Int
}

// MintResult reports the committed outcome of a mint request.
type MintResult struct {
	TokenIDs []token.ID
	Events   []event.Event
}

// Coordinator runs the mint pipeline over the owned domain state.
type Coordinator struct {
	registry  *registry.Registry
	ledger    *ledger.Ledger
	allocator *allocator.Allocator
	splitter  *funds.Splitter
	selector  RandomSelection
	clock     func() time.Time
	// ordering is the opaque monotonic value bound into provenance hashes.
	// It advances once per minted token.
	ordering uint64
}

// New wires a coordinator over its collaborators.
func New(reg *registry.Registry, led *ledger.Ledger, alloc *allocator.Allocator, splitter *funds.Splitter, selector RandomSelection, clock func() time.Time) *Coordinator {
	if clock == nil {
		clock = time.Now
	}
	return &Coordinator{
		registry:  reg,
		ledger:    led,
		allocator: alloc,
		splitter:  splitter,
		selector:  selector,
		clock:     clock,
	}
}

// mintTx stages the mutations of one in-flight mint request. It satisfies
// allocator.Staging so later units validate against the earlier units'
// staged counters.
type mintTx struct {
	invocations map[uint64]uint64
	quota       map[allocator.QuotaKey]uint64
	tokens      []stagedToken
	legs        []funds.Charge
}

// stagedToken pairs a constructed token with its creation instant.
type stagedToken struct {
	tok token.Token
	at  time.Time
}

func newMintTx() *mintTx {
	return &mintTx{
		invocations: make(map[uint64]uint64),
		quota:       make(map[allocator.QuotaKey]uint64),
	}
}

// StagedInvocations implements allocator.Staging.
func (tx *mintTx) StagedInvocations(collectionID uint64) uint64 {
	return tx.invocations[collectionID]
}

// StagedMints implements allocator.Staging.
func (tx *mintTx) StagedMints(groupID, membershipID uint64) uint64 {
	return tx.quota[allocator.QuotaKey{GroupID: groupID, MembershipID: membershipID}]
}

// MintOne mints a single token and returns its id.
func (c *Coordinator) MintOne(req MintRequest) (*MintResult, error) {
	req.Count = 1
	return c.Mint(req)
}

// Mint runs the pipeline for req.Count units. The unit price is derived
// once at batch start; because operations are strictly serialized a price
// update can never interleave with an in-flight batch. A failure on any
// unit discards the entire batch: no tokens, no quota, no counters.
func (c *Coordinator) Mint(req MintRequest) (*MintResult, error) {
	if req.Count < 1 {
		return nil, ErrCountInvalid
	}
	if req.To.IsZero() {
		return nil, ErrRecipientInvalid
	}

	group, err := c.registry.Group(req.GroupID)
	if err != nil {
		return nil, err
	}
	unitPrice := funds.UnitPrice(group, req.Currency)

	// Pure validation, no staging yet: full-amount eligibility, then the
	// single up-front funds check for price × count.
	allocReq := allocator.Request{
		Requester:    req.Requester,
		GroupID:      req.GroupID,
		MembershipID: req.MembershipID,
		Amount:       req.Count,
	}
	if _, err := c.allocator.CheckEligibility(allocReq, nil); err != nil {
		return nil, err
	}
	if err := c.splitter.CheckFunds(req.Requester, req.Offered, funds.Due(unitPrice, req.Count), req.Currency); err != nil {
		return nil, err
	}

	tx := newMintTx()
	for unit := uint64(0); unit < req.Count; unit++ {
		if err := c.mintUnit(req, unitPrice, tx); err != nil {
			return nil, err
		}
	}
	return c.commit(tx)
}

// mintUnit stages one unit: re-validated eligibility, quota, selection,
// token construction, and payment legs.
func (c *Coordinator) mintUnit(req MintRequest, unitPrice *uint256.Int, tx *mintTx) error {
	// Eligibility is re-run for every unit against the staged counters:
	// each unit consumes capacity and quota before the next unit's check.
	allocReq := allocator.Request{
		Requester:    req.Requester,
		GroupID:      req.GroupID,
		MembershipID: req.MembershipID,
		Amount:       1,
	}
	eligible, err := c.allocator.CheckEligibility(allocReq, tx)
	if err != nil {
		return err
	}

	tx.quota[allocator.QuotaKey{GroupID: req.GroupID, MembershipID: req.MembershipID}]++

	collID, err := c.selector.Choose(eligible)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeSelectionFailed, "collection selection failed", err)
	}
	c.selector.AdvanceNonce()

	coll, err := c.registry.Collection(collID)
	if err != nil {
		return err
	}
	invocationIndex := coll.InvocationCount + tx.invocations[collID] + 1
	if invocationIndex >= token.Span {
		return allocator.ErrCapacityExhausted
	}
	id := token.NewID(collID, invocationIndex)
	if c.ledger.Exists(id) {
		return ledger.ErrTokenExists
	}
	ordering := c.ordering + uint64(len(tx.tokens)) + 1
	at := c.clock()
	tx.tokens = append(tx.tokens, stagedToken{
		tok: token.Token{
			ID:           id,
			Owner:        req.To,
			CollectionID: collID,
			Provenance:   token.ProvenanceHash(invocationIndex, ordering, at, req.To),
		},
		at: at,
	})
	tx.invocations[collID]++

	tx.legs = append(tx.legs, c.splitter.Plan(req.Requester, coll, unitPrice, req.Currency)...)
	return nil
}

// commit executes the staged payment legs and, only if all succeed, applies
// the staged state and builds the emitted events. External legs are not
// rolled back on a later leg's failure; the owned ledger state is.
func (c *Coordinator) commit(tx *mintTx) (*MintResult, error) {
	if err := c.splitter.Execute(tx.legs); err != nil {
		return nil, err
	}

	c.registry.ApplyInvocations(tx.invocations)
	for key, n := range tx.quota {
		c.allocator.RecordMint(key.GroupID, key.MembershipID, n)
	}

	result := &MintResult{}
	for _, staged := range tx.tokens {
		if err := c.ledger.Mint(staged.tok); err != nil {
			// Unreachable: ids were validated against the ledger and the
			// staged set, and operations are serialized.
			return result, err
		}
		c.ordering++
		result.TokenIDs = append(result.TokenIDs, staged.tok.ID)
		result.Events = append(result.Events, event.NewMint(staged.at, event.MintPayload{
			Recipient:      staged.tok.Owner,
			CollectionID:   staged.tok.CollectionID,
			TokenID:        staged.tok.ID,
			ProvenanceHash: staged.tok.Provenance,
		}))
	}
	return result, nil
}
