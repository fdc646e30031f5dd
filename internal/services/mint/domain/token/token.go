// Package token defines the shared vocabulary of the issuance ledger:
// account addresses, token identifiers, and provenance hashing.
package token

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/sha3"
)

// Address identifies an account (artist, collector, operator). The ledger
// treats addresses as opaque strings; the zero value means "no owner".
type Address string

// ZeroAddress is the empty owner used for destroyed or never-minted tokens.
const ZeroAddress Address = ""

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Span is the identifier range reserved per collection. A token id encodes
// its collection and invocation index as collectionID*Span + index, so
// collection membership is recoverable from the id alone.
const Span = 100_000

// ID is a token identifier.
type ID uint64

// NewID builds the token id for an invocation of a collection.
// Invocation indexes start at 1.
func NewID(collectionID, invocationIndex uint64) ID {
	return ID(collectionID*Span + invocationIndex)
}

// Collection returns the originating collection id encoded in the token id.
func (id ID) Collection() uint64 {
	return uint64(id) / Span
}

// InvocationIndex returns the invocation ordinal encoded in the token id.
func (id ID) InvocationIndex() uint64 {
	return uint64(id) % Span
}

// Token is one issued collectible.
type Token struct {
	ID           ID
	Owner        Address
	CollectionID uint64
	Provenance   string
}

// ProvenanceHash derives the hash binding a token to its invocation order,
// approximate creation time, and recipient. The hash is Keccak-256 over the
// invocation index, a monotonic ordering value, the creation timestamp, and
// the recipient address. It is an audit anchor, not a commitment resistant
// to manipulation by the minting operator.
func ProvenanceHash(invocationIndex, ordering uint64, at time.Time, recipient Address) string {
	var buf [24]byte
	binary.BigEndian.PutUint64(buf[0:8], invocationIndex)
	binary.BigEndian.PutUint64(buf[8:16], ordering)
	binary.BigEndian.PutUint64(buf[16:24], uint64(at.UnixNano()))

	h := sha3.NewLegacyKeccak256()
	h.Write(buf[:])
	h.Write([]byte(recipient))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
