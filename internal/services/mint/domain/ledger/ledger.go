// Package ledger tracks token existence, ownership, and enumeration.
//
// Both the global and the per-owner enumeration indexes are dense arrays
// paired with reverse position maps. Removal swaps the last element into the
// vacated slot, so removal is O(1) and enumeration order is not stable
// across removals.
package ledger

import (
	apperrors "github.com/gen-dot-art/legacy-contracts/internal/platform/errors"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/token"
)

var (
	// ErrTokenExists indicates a mint for an id already recorded.
	ErrTokenExists = apperrors.New(apperrors.CodeTokenExists, "token already exists")
	// ErrTokenNotFound indicates an absent token.
	ErrTokenNotFound = apperrors.New(apperrors.CodeTokenNotFound, "token does not exist")
	// ErrNotOwner indicates a caller who does not own the token.
	ErrNotOwner = apperrors.New(apperrors.CodeNotOwner, "caller does not own token")
	// ErrIndexOutOfRange indicates an enumeration index past the end.
	ErrIndexOutOfRange = apperrors.New(apperrors.CodeIndexOutOfRange, "enumeration index out of range")
)

// index is a dense id list with a reverse position map.
type index struct {
	ids []token.ID
	pos map[token.ID]int
}

func newIndex() *index {
	return &index{pos: make(map[token.ID]int)}
}

func (x *index) append(id token.ID) {
	x.pos[id] = len(x.ids)
	x.ids = append(x.ids, id)
}

// remove swaps the last element into the removed slot and truncates.
func (x *index) remove(id token.ID) {
	at, ok := x.pos[id]
	if !ok {
		return
	}
	last := len(x.ids) - 1
	if at != last {
		moved := x.ids[last]
		x.ids[at] = moved
		x.pos[moved] = at
	}
	x.ids = x.ids[:last]
	delete(x.pos, id)
}

func (x *index) len() int {
	if x == nil {
		return 0
	}
	return len(x.ids)
}

// Ledger owns token existence, ownership, and approval state.
type Ledger struct {
	tokens    map[token.ID]token.Token
	global    *index
	byOwner   map[token.Address]*index
	approved  map[token.ID]token.Address
	operators map[token.Address]map[token.Address]bool
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		tokens:    make(map[token.ID]token.Token),
		global:    newIndex(),
		byOwner:   make(map[token.Address]*index),
		approved:  make(map[token.ID]token.Address),
		operators: make(map[token.Address]map[token.Address]bool),
	}
}

// Mint records a new token and indexes it for its owner.
func (l *Ledger) Mint(tok token.Token) error {
	if _, ok := l.tokens[tok.ID]; ok {
		return ErrTokenExists
	}
	l.tokens[tok.ID] = tok
	l.global.append(tok.ID)
	l.ownerIndex(tok.Owner).append(tok.ID)
	return nil
}

// Burn destroys a token. Only the current owner may burn it. The invocation
// slot stays consumed: burning never restores collection capacity or quota.
func (l *Ledger) Burn(caller token.Address, id token.ID) error {
	tok, ok := l.tokens[id]
	if !ok {
		return ErrTokenNotFound
	}
	if tok.Owner != caller {
		return ErrNotOwner
	}
	delete(l.tokens, id)
	delete(l.approved, id)
	l.global.remove(id)
	l.ownerIndex(tok.Owner).remove(id)
	return nil
}

// Transfer moves a token between owners. The global index is untouched;
// only the per-owner indexes change.
func (l *Ledger) Transfer(from, to token.Address, id token.ID) error {
	tok, ok := l.tokens[id]
	if !ok {
		return ErrTokenNotFound
	}
	if tok.Owner != from {
		return ErrNotOwner
	}
	tok.Owner = to
	l.tokens[id] = tok
	delete(l.approved, id)
	l.ownerIndex(from).remove(id)
	l.ownerIndex(to).append(id)
	return nil
}

// Approve grants a single-token transfer approval. The caller must own the
// token or hold operator approval from the owner.
func (l *Ledger) Approve(caller, spender token.Address, id token.ID) error {
	tok, ok := l.tokens[id]
	if !ok {
		return ErrTokenNotFound
	}
	if tok.Owner != caller && !l.IsApprovedForAll(tok.Owner, caller) {
		return ErrNotOwner
	}
	if spender.IsZero() {
		delete(l.approved, id)
		return nil
	}
	l.approved[id] = spender
	return nil
}

// SetApprovalForAll grants or revokes an operator for all of owner's tokens.
func (l *Ledger) SetApprovalForAll(owner, operator token.Address, approved bool) {
	if approved {
		set, ok := l.operators[owner]
		if !ok {
			set = make(map[token.Address]bool)
			l.operators[owner] = set
		}
		set[operator] = true
		return
	}
	delete(l.operators[owner], operator)
}

// Approved returns the single-token approval for id, if any.
func (l *Ledger) Approved(id token.ID) token.Address {
	return l.approved[id]
}

// IsApprovedForAll reports whether operator may act for all of owner's tokens.
func (l *Ledger) IsApprovedForAll(owner, operator token.Address) bool {
	return l.operators[owner][operator]
}

// OwnerOf returns the current owner of a token.
func (l *Ledger) OwnerOf(id token.ID) (token.Address, error) {
	tok, ok := l.tokens[id]
	if !ok {
		return token.ZeroAddress, ErrTokenNotFound
	}
	return tok.Owner, nil
}

// Record returns the full token record.
func (l *Ledger) Record(id token.ID) (token.Token, error) {
	tok, ok := l.tokens[id]
	if !ok {
		return token.Token{}, ErrTokenNotFound
	}
	return tok, nil
}

// Exists reports whether a token is recorded.
func (l *Ledger) Exists(id token.ID) bool {
	_, ok := l.tokens[id]
	return ok
}

// BalanceOf returns how many tokens owner holds.
func (l *Ledger) BalanceOf(owner token.Address) uint64 {
	return uint64(l.byOwner[owner].len())
}

// TokenOfOwnerByIndex returns owner's token at position i. Positions are not
// stable across removals.
func (l *Ledger) TokenOfOwnerByIndex(owner token.Address, i uint64) (token.ID, error) {
	x := l.byOwner[owner]
	if i >= uint64(x.len()) {
		return 0, ErrIndexOutOfRange
	}
	return x.ids[i], nil
}

// TotalSupply returns the number of tokens in existence.
func (l *Ledger) TotalSupply() uint64 {
	return uint64(l.global.len())
}

// TokenByIndex returns the token at position i of the global index.
func (l *Ledger) TokenByIndex(i uint64) (token.ID, error) {
	if i >= uint64(l.global.len()) {
		return 0, ErrIndexOutOfRange
	}
	return l.global.ids[i], nil
}

// TokensOf materializes owner's full token list.
func (l *Ledger) TokensOf(owner token.Address) []token.ID {
	x := l.byOwner[owner]
	if x.len() == 0 {
		return nil
	}
	out := make([]token.ID, len(x.ids))
	copy(out, x.ids)
	return out
}

func (l *Ledger) ownerIndex(owner token.Address) *index {
	x, ok := l.byOwner[owner]
	if !ok {
		x = newIndex()
		l.byOwner[owner] = x
	}
	return x
}
