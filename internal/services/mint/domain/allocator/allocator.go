// Package allocator decides which collections may serve a mint request and
// enforces membership tier and quota rules.
package allocator

import (
	apperrors "github.com/gen-dot-art/legacy-contracts/internal/platform/errors"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/registry"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/token"
)

var (
	// ErrCapacityExhausted indicates the group cannot serve the requested
	// amount of invocations.
	ErrCapacityExhausted = apperrors.New(apperrors.CodeCapacityExhausted, "collection group capacity exhausted")
	// ErrNotMembershipOwner indicates the requester does not own the
	// membership credential.
	ErrNotMembershipOwner = apperrors.New(apperrors.CodeNotMembershipOwner, "requester does not own membership")
	// ErrTierNotEligible indicates the membership tier does not match the
	// group tier.
	ErrTierNotEligible = apperrors.New(apperrors.CodeTierNotEligible, "membership tier not eligible for group")
	// ErrQuotaExceeded indicates the membership's mint allowance is spent.
	ErrQuotaExceeded = apperrors.New(apperrors.CodeQuotaExceeded, "membership mint quota exceeded")
)

// MembershipService answers credential questions for the external
// membership collateral. Answers are never cached; every eligibility check
// queries fresh.
type MembershipService interface {
	OwnerOf(membershipID uint64) (token.Address, error)
	IsPremiumTier(membershipID uint64) (bool, error)
	MaxAllowedMintsFor(membershipID uint64) (uint64, error)
}

// Staging reports counter mutations staged by an in-flight batch so each
// unit's eligibility check sees the effect of the units before it.
type Staging interface {
	// StagedInvocations returns invocations staged for a collection.
	StagedInvocations(collectionID uint64) uint64
	// StagedMints returns mints staged against a (group, membership) quota.
	StagedMints(groupID, membershipID uint64) uint64
}

// QuotaKey addresses one cumulative minted counter.
type QuotaKey struct {
	GroupID      uint64
	MembershipID uint64
}

// Request describes one eligibility check.
type Request struct {
	Requester    token.Address
	GroupID      uint64
	MembershipID uint64
	Amount       uint64
}

// Allocator owns the quota counters and computes eligibility sets.
type Allocator struct {
	registry *registry.Registry
	members  MembershipService
	quota    map[QuotaKey]uint64
}

// New returns an allocator over the given registry and membership service.
func New(reg *registry.Registry, members MembershipService) *Allocator {
	return &Allocator{
		registry: reg,
		members:  members,
		quota:    make(map[QuotaKey]uint64),
	}
}

// CheckEligibility validates a mint request and returns the ordered set of
// collections with remaining capacity. The checks run in a fixed order:
// group existence, capacity, membership ownership, tier, quota. staged may
// be nil when no batch is in flight.
func (a *Allocator) CheckEligibility(req Request, staged Staging) ([]uint64, error) {
	group, err := a.registry.Group(req.GroupID)
	if err != nil {
		return nil, err
	}

	var eligible []uint64
	var capacity uint64
	for _, collID := range group.Members {
		coll, err := a.registry.Collection(collID)
		if err != nil {
			continue
		}
		used := coll.InvocationCount
		if staged != nil {
			used += staged.StagedInvocations(collID)
		}
		if used >= coll.MaxInvocations {
			continue
		}
		remaining := coll.MaxInvocations - used
		eligible = append(eligible, collID)
		capacity += remaining
	}
	if len(eligible) == 0 || capacity < req.Amount {
		return nil, ErrCapacityExhausted
	}

	owner, err := a.members.OwnerOf(req.MembershipID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMembershipUnknown, "membership lookup failed", err)
	}
	if owner != req.Requester {
		return nil, ErrNotMembershipOwner
	}

	if group.Tier != registry.TierOpen {
		premium, err := a.members.IsPremiumTier(req.MembershipID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeMembershipUnknown, "membership tier lookup failed", err)
		}
		memberTier := registry.TierStandard
		if premium {
			memberTier = registry.TierPremium
		}
		if group.Tier != memberTier {
			return nil, ErrTierNotEligible
		}
	}

	allowance, err := a.members.MaxAllowedMintsFor(req.MembershipID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMembershipUnknown, "membership allowance lookup failed", err)
	}
	minted := a.MintedCount(req.GroupID, req.MembershipID)
	if staged != nil {
		minted += staged.StagedMints(req.GroupID, req.MembershipID)
	}
	if minted >= allowance || allowance-minted < req.Amount {
		return nil, ErrQuotaExceeded
	}

	return eligible, nil
}

// RecordMint increments the cumulative minted counter for a quota entry.
// Counters are created lazily, only ever grow, and are never reset: burns do
// not restore quota.
func (a *Allocator) RecordMint(groupID, membershipID, amount uint64) {
	a.quota[QuotaKey{GroupID: groupID, MembershipID: membershipID}] += amount
}

// MintedCount returns the cumulative minted count for a quota entry.
func (a *Allocator) MintedCount(groupID, membershipID uint64) uint64 {
	return a.quota[QuotaKey{GroupID: groupID, MembershipID: membershipID}]
}
