// Package registry stores collection group and collection definitions.
//
// The registry is the only owner of group/collection records. Operator-only
// mutators assume the caller's operator capability was already verified at
// the operation entry point; the artist-address update is the one mutator
// that authorizes against record state itself.
package registry

import (
	"github.com/holiman/uint256"

	apperrors "github.com/gen-dot-art/legacy-contracts/internal/platform/errors"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/token"
)

// Tier gates which memberships may mint from a group.
type Tier int

const (
	// TierUnspecified marks a non-existent group; groups are never created
	// with it.
	TierUnspecified Tier = iota
	// TierStandard admits standard memberships.
	TierStandard
	// TierPremium admits premium memberships.
	TierPremium
	// TierOpen admits any membership.
	TierOpen
)

var (
	// ErrGroupUnknown indicates a referenced group does not exist.
	ErrGroupUnknown = apperrors.New(apperrors.CodeGroupUnknown, "collection group does not exist")
	// ErrInvalidTier indicates a group tier outside the known set.
	ErrInvalidTier = apperrors.New(apperrors.CodeGroupInvalidTier, "collection group tier is invalid")
	// ErrCollectionNotFound indicates a referenced collection does not exist.
	ErrCollectionNotFound = apperrors.New(apperrors.CodeCollectionNotFound, "collection does not exist")
	// ErrRewardOutOfRange indicates an artist reward percent above 100.
	ErrRewardOutOfRange = apperrors.New(apperrors.CodeRewardOutOfRange, "artist reward percent must be in [0,100]")
	// ErrNotArtist indicates a caller who is not the collection's artist.
	ErrNotArtist = apperrors.New(apperrors.CodeUnauthorized, "caller is not the collection artist")
)

// Group bundles collections sharing a price and eligibility tier.
type Group struct {
	ID     uint64
	Tier   Tier
	PriceA *uint256.Int
	PriceB *uint256.Int
	// Members lists member collection ids in creation order.
	Members []uint64
}

// Snapshot returns a detached copy of the group. The registry hands out live
// records; callers exposing a record past the serialization boundary must
// snapshot it first.
func (g *Group) Snapshot() *Group {
	out := &Group{ID: g.ID, Tier: g.Tier}
	if g.PriceA != nil {
		out.PriceA = g.PriceA.Clone()
	}
	if g.PriceB != nil {
		out.PriceB = g.PriceB.Clone()
	}
	if len(g.Members) > 0 {
		out.Members = append([]uint64(nil), g.Members...)
	}
	return out
}

// Collection is an artist-authored template capable of producing up to
// MaxInvocations tokens.
type Collection struct {
	ID                  uint64
	GroupID             uint64
	InvocationCount     uint64
	MaxInvocations      uint64
	Script              []byte
	ArtistRewardPercent uint8
	Artist              token.Address
}

// Snapshot returns a detached copy of the collection.
func (c *Collection) Snapshot() *Collection {
	out := *c
	if len(c.Script) > 0 {
		out.Script = append([]byte(nil), c.Script...)
	}
	return &out
}

// Remaining returns how many invocations the collection has left.
func (c *Collection) Remaining() uint64 {
	if c.InvocationCount >= c.MaxInvocations {
		return 0
	}
	return c.MaxInvocations - c.InvocationCount
}

// Registry owns all group and collection records.
type Registry struct {
	groups      map[uint64]*Group
	collections map[uint64]*Collection
	// nextCollectionID is strictly increasing and never reused, even if a
	// group is overwritten.
	nextCollectionID uint64
}

// New returns an empty registry. Collection ids start at 1.
func New() *Registry {
	return &Registry{
		groups:           make(map[uint64]*Group),
		collections:      make(map[uint64]*Collection),
		nextCollectionID: 1,
	}
}

// CreateGroup registers a group at groupID with an empty member list.
// Reusing a groupID overwrites the previous definition; collections created
// under the old definition keep their back-reference but are no longer
// reachable through the group. Callers must avoid id reuse.
func (r *Registry) CreateGroup(groupID uint64, tier Tier, priceA, priceB *uint256.Int) error {
	if tier != TierStandard && tier != TierPremium && tier != TierOpen {
		return ErrInvalidTier
	}
	if priceA == nil {
		priceA = uint256.NewInt(0)
	}
	if priceB == nil {
		priceB = uint256.NewInt(0)
	}
	r.groups[groupID] = &Group{
		ID:     groupID,
		Tier:   tier,
		PriceA: priceA.Clone(),
		PriceB: priceB.Clone(),
	}
	return nil
}

// CreateCollection assigns the next sequential collection id, appends it to
// the group's member list, and stores the record with a zero invocation
// count.
func (r *Registry) CreateCollection(artist token.Address, rewardPercent uint8, maxInvocations, groupID uint64, script []byte) (uint64, error) {
	if rewardPercent > 100 {
		return 0, ErrRewardOutOfRange
	}
	group, ok := r.groups[groupID]
	if !ok {
		return 0, ErrGroupUnknown
	}
	id := r.nextCollectionID
	r.nextCollectionID++
	r.collections[id] = &Collection{
		ID:                  id,
		GroupID:             groupID,
		MaxInvocations:      maxInvocations,
		Script:              script,
		ArtistRewardPercent: rewardPercent,
		Artist:              artist,
	}
	group.Members = append(group.Members, id)
	return id, nil
}

// UpdateArtistAddress reassigns a collection's artist. Only the current
// artist may call it.
func (r *Registry) UpdateArtistAddress(caller token.Address, collectionID uint64, newArtist token.Address) error {
	coll, ok := r.collections[collectionID]
	if !ok {
		return ErrCollectionNotFound
	}
	if coll.Artist != caller {
		return ErrNotArtist
	}
	coll.Artist = newArtist
	return nil
}

// UpdateScript replaces a collection's artifact script.
func (r *Registry) UpdateScript(collectionID uint64, script []byte) error {
	coll, ok := r.collections[collectionID]
	if !ok {
		return ErrCollectionNotFound
	}
	coll.Script = script
	return nil
}

// UpdatePrice replaces both unit prices of a group.
func (r *Registry) UpdatePrice(groupID uint64, priceA, priceB *uint256.Int) error {
	group, ok := r.groups[groupID]
	if !ok {
		return ErrGroupUnknown
	}
	if priceA != nil {
		group.PriceA = priceA.Clone()
	}
	if priceB != nil {
		group.PriceB = priceB.Clone()
	}
	return nil
}

// Group returns the group registered at id.
func (r *Registry) Group(id uint64) (*Group, error) {
	group, ok := r.groups[id]
	if !ok {
		return nil, ErrGroupUnknown
	}
	return group, nil
}

// Collection returns the collection registered at id.
func (r *Registry) Collection(id uint64) (*Collection, error) {
	coll, ok := r.collections[id]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	return coll, nil
}

// ApplyInvocations adds staged invocation counts to their collections.
// Callers commit only deltas that were validated against MaxInvocations, so
// the capacity invariant holds by construction.
func (r *Registry) ApplyInvocations(deltas map[uint64]uint64) {
	for id, n := range deltas {
		if coll, ok := r.collections[id]; ok {
			coll.InvocationCount += n
		}
	}
}
