// Package selector picks a collection among eligible candidates using a
// Keccak-256 draw over a seed and an advancing nonce.
package selector

import (
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/sha3"
)

// ErrNoCandidates indicates an empty candidate list.
var ErrNoCandidates = errors.New("no eligible candidates")

// Keccak draws candidates from a hash of seed and nonce. The nonce advances
// only through AdvanceNonce, so repeated draws at the same nonce are
// deterministic and every consumed unit gets a fresh draw.
type Keccak struct {
	seed  []byte
	nonce uint64
}

// New returns a selector seeded with the given bytes.
func New(seed []byte) *Keccak {
	s := make([]byte, len(seed))
	copy(s, seed)
	return &Keccak{seed: s}
}

// Choose picks one candidate by hashing the seed, the current nonce, and the
// candidate list.
func (k *Keccak) Choose(candidates []uint64) (uint64, error) {
	if len(candidates) == 0 {
		return 0, ErrNoCandidates
	}
	h := sha3.NewLegacyKeccak256()
	h.Write(k.seed)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], k.nonce)
	h.Write(buf[:])
	for _, c := range candidates {
		binary.BigEndian.PutUint64(buf[:], c)
		h.Write(buf[:])
	}
	digest := h.Sum(nil)
	draw := binary.BigEndian.Uint64(digest[:8])
	return candidates[draw%uint64(len(candidates))], nil
}

// AdvanceNonce moves to the next draw.
func (k *Keccak) AdvanceNonce() {
	k.nonce++
}

// Nonce exposes the current nonce for inspection.
func (k *Keccak) Nonce() uint64 {
	return k.nonce
}
