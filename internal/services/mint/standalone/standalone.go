// Package standalone provides file-seeded implementations of the external
// rails for single-node deployments: membership credentials and currency
// balances load from a JSON snapshot, and native payouts are logged.
package standalone

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/holiman/uint256"

	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/token"
)

// Snapshot is the on-disk seed format.
type Snapshot struct {
	Memberships map[uint64]MembershipSeed `json:"memberships"`
	Balances    map[string]string         `json:"balances"`
}

// MembershipSeed is one seeded membership credential.
type MembershipSeed struct {
	Owner     string `json:"owner"`
	Premium   bool   `json:"premium"`
	Allowance uint64 `json:"allowance"`
}

// Rails bundles the standalone collaborators.
type Rails struct {
	Members  *Members
	Currency *Currency
	Native   *Payout
}

// Load reads a snapshot file and builds the rails. An empty path yields
// empty rails.
func Load(path string) (*Rails, error) {
	snapshot := Snapshot{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rails snapshot: %w", err)
		}
		if err := json.Unmarshal(raw, &snapshot); err != nil {
			return nil, fmt.Errorf("parse rails snapshot: %w", err)
		}
	}

	members := &Members{memberships: make(map[uint64]MembershipSeed)}
	for id, seed := range snapshot.Memberships {
		members.memberships[id] = seed
	}

	currency := &Currency{balances: make(map[token.Address]*uint256.Int)}
	for addr, value := range snapshot.Balances {
		amount, err := uint256.FromDecimal(value)
		if err != nil {
			return nil, fmt.Errorf("parse balance for %s: %w", addr, err)
		}
		currency.balances[token.Address(addr)] = amount
	}

	return &Rails{Members: members, Currency: currency, Native: &Payout{}}, nil
}

// Members answers membership credential questions from the seeded table.
type Members struct {
	memberships map[uint64]MembershipSeed
}

// OwnerOf returns the seeded owner of a membership.
func (m *Members) OwnerOf(membershipID uint64) (token.Address, error) {
	seed, ok := m.memberships[membershipID]
	if !ok {
		return token.ZeroAddress, fmt.Errorf("membership %d unknown", membershipID)
	}
	return token.Address(seed.Owner), nil
}

// IsPremiumTier reports whether a membership carries the premium tier.
func (m *Members) IsPremiumTier(membershipID uint64) (bool, error) {
	seed, ok := m.memberships[membershipID]
	if !ok {
		return false, fmt.Errorf("membership %d unknown", membershipID)
	}
	return seed.Premium, nil
}

// MaxAllowedMintsFor returns the seeded per-group allowance.
func (m *Members) MaxAllowedMintsFor(membershipID uint64) (uint64, error) {
	seed, ok := m.memberships[membershipID]
	if !ok {
		return 0, fmt.Errorf("membership %d unknown", membershipID)
	}
	return seed.Allowance, nil
}

// Currency is an in-memory alternate payment rail seeded from the snapshot.
type Currency struct {
	mu       sync.Mutex
	balances map[token.Address]*uint256.Int
}

// BalanceOf returns the current balance of addr.
func (c *Currency) BalanceOf(addr token.Address) (*uint256.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bal, ok := c.balances[addr]
	if !ok {
		return uint256.NewInt(0), nil
	}
	return bal.Clone(), nil
}

// TransferFrom moves amount between accounts.
func (c *Currency) TransferFrom(payer, recipient token.Address, amount *uint256.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	bal, ok := c.balances[payer]
	if !ok || bal.Lt(amount) {
		return fmt.Errorf("insufficient balance for %s", payer)
	}
	bal.Sub(bal, amount)
	dst, ok := c.balances[recipient]
	if !ok {
		dst = uint256.NewInt(0)
		c.balances[recipient] = dst
	}
	dst.Add(dst, amount)
	return nil
}

// Payout logs native-asset payouts and keeps running totals.
type Payout struct {
	mu     sync.Mutex
	totals map[token.Address]*uint256.Int
}

// Pay records a native payout.
func (p *Payout) Pay(recipient token.Address, amount *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.totals == nil {
		p.totals = make(map[token.Address]*uint256.Int)
	}
	total, ok := p.totals[recipient]
	if !ok {
		total = uint256.NewInt(0)
		p.totals[recipient] = total
	}
	total.Add(total, amount)
	log.Printf("native payout: %s to %s", amount.Dec(), recipient)
	return nil
}

// Total returns the sum paid to recipient.
func (p *Payout) Total(recipient token.Address) *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total, ok := p.totals[recipient]
	if !ok {
		return uint256.NewInt(0)
	}
	return total.Clone()
}
