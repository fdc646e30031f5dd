// Package testkit provides in-memory fakes for the external collaborators
// the issuance core depends on.
package testkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/event"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/token"
)

// Membership is one fake membership credential.
type Membership struct {
	Owner     token.Address
	Premium   bool
	Allowance uint64
}

// FakeMembershipService answers credential questions from a fixed table.
type FakeMembershipService struct {
	Memberships map[uint64]Membership
}

// NewFakeMembershipService returns an empty fake membership service.
func NewFakeMembershipService() *FakeMembershipService {
	return &FakeMembershipService{Memberships: make(map[uint64]Membership)}
}

// Add registers a membership credential.
func (f *FakeMembershipService) Add(id uint64, m Membership) {
	f.Memberships[id] = m
}

// OwnerOf implements allocator.MembershipService.
func (f *FakeMembershipService) OwnerOf(membershipID uint64) (token.Address, error) {
	m, ok := f.Memberships[membershipID]
	if !ok {
		return token.ZeroAddress, fmt.Errorf("membership %d unknown", membershipID)
	}
	return m.Owner, nil
}

// IsPremiumTier implements allocator.MembershipService.
func (f *FakeMembershipService) IsPremiumTier(membershipID uint64) (bool, error) {
	m, ok := f.Memberships[membershipID]
	if !ok {
		return false, fmt.Errorf("membership %d unknown", membershipID)
	}
	return m.Premium, nil
}

// MaxAllowedMintsFor implements allocator.MembershipService.
func (f *FakeMembershipService) MaxAllowedMintsFor(membershipID uint64) (uint64, error) {
	m, ok := f.Memberships[membershipID]
	if !ok {
		return 0, fmt.Errorf("membership %d unknown", membershipID)
	}
	return m.Allowance, nil
}

// FakeCurrencyLedger is an in-memory alternate payment rail.
type FakeCurrencyLedger struct {
	Balances map[token.Address]*uint256.Int
	// FailAfter fails every TransferFrom once Calls reaches it (0 disables).
	FailAfter int
	Calls     int
}

// NewFakeCurrencyLedger returns an empty currency ledger.
func NewFakeCurrencyLedger() *FakeCurrencyLedger {
	return &FakeCurrencyLedger{Balances: make(map[token.Address]*uint256.Int)}
}

// SetBalance sets an account balance.
func (f *FakeCurrencyLedger) SetBalance(addr token.Address, amount uint64) {
	f.Balances[addr] = uint256.NewInt(amount)
}

// BalanceOf implements funds.CurrencyLedger.
func (f *FakeCurrencyLedger) BalanceOf(addr token.Address) (*uint256.Int, error) {
	bal, ok := f.Balances[addr]
	if !ok {
		return uint256.NewInt(0), nil
	}
	return bal.Clone(), nil
}

// TransferFrom implements funds.CurrencyLedger.
func (f *FakeCurrencyLedger) TransferFrom(payer, recipient token.Address, amount *uint256.Int) error {
	f.Calls++
	if f.FailAfter > 0 && f.Calls >= f.FailAfter {
		return errors.New("transfer rejected")
	}
	bal, ok := f.Balances[payer]
	if !ok || bal.Lt(amount) {
		return errors.New("insufficient balance")
	}
	bal.Sub(bal, amount)
	dst, ok := f.Balances[recipient]
	if !ok {
		dst = uint256.NewInt(0)
		f.Balances[recipient] = dst
	}
	dst.Add(dst, amount)
	return nil
}

// Payment is one recorded native payout.
type Payment struct {
	Recipient token.Address
	Amount    *uint256.Int
}

// FakeNativeTransfer records native-asset payouts.
type FakeNativeTransfer struct {
	Payments []Payment
	Fail     bool
}

// Pay implements funds.NativeTransfer.
func (f *FakeNativeTransfer) Pay(recipient token.Address, amount *uint256.Int) error {
	if f.Fail {
		return errors.New("native payout rejected")
	}
	f.Payments = append(f.Payments, Payment{Recipient: recipient, Amount: amount.Clone()})
	return nil
}

// Total returns the sum paid to recipient.
func (f *FakeNativeTransfer) Total(recipient token.Address) *uint256.Int {
	total := uint256.NewInt(0)
	for _, p := range f.Payments {
		if p.Recipient == recipient {
			total.Add(total, p.Amount)
		}
	}
	return total
}

// ScriptedSelector picks candidates deterministically: scripted picks first,
// then always the first candidate. It counts nonce advances so tests can
// assert the nonce contract.
type ScriptedSelector struct {
	// Picks are consumed one per Choose call; each entry is an index into
	// the candidate list (clamped).
	Picks    []int
	Advances int
	chooses  int
}

// Choose implements the random-selection collaborator.
func (s *ScriptedSelector) Choose(candidates []uint64) (uint64, error) {
	if len(candidates) == 0 {
		return 0, errors.New("no candidates")
	}
	pick := 0
	if s.chooses < len(s.Picks) {
		pick = s.Picks[s.chooses]
	}
	s.chooses++
	if pick >= len(candidates) {
		pick = len(candidates) - 1
	}
	return candidates[pick], nil
}

// AdvanceNonce implements the random-selection collaborator.
func (s *ScriptedSelector) AdvanceNonce() {
	s.Advances++
}

// SinkRecorder collects emitted events.
type SinkRecorder struct {
	Events []event.Event
	Err    error
}

// AppendEvent implements event.Sink.
func (s *SinkRecorder) AppendEvent(_ context.Context, evt event.Event) error {
	if s.Err != nil {
		return s.Err
	}
	s.Events = append(s.Events, evt)
	return nil
}

// Types returns the recorded event types in order.
func (s *SinkRecorder) Types() []event.Type {
	out := make([]event.Type, 0, len(s.Events))
	for _, evt := range s.Events {
		out = append(out, evt.Type)
	}
	return out
}
