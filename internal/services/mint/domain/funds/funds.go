// Package funds computes and routes payment shares between the operator and
// the originating artist.
package funds

import (
	"github.com/holiman/uint256"

	apperrors "github.com/gen-dot-art/legacy-contracts/internal/platform/errors"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/registry"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/token"
)

// Currency selects the payment rail.
type Currency int

const (
	// CurrencyPrimary is the native asset, collected up front with the
	// request and held by the system.
	CurrencyPrimary Currency = iota
	// CurrencyAlternate is the external fungible-currency ledger; both
	// shares are pulled from the payer.
	CurrencyAlternate
)

var (
	// ErrAmountMismatch indicates the offered or available funds do not
	// cover the due amount.
	ErrAmountMismatch = apperrors.New(apperrors.CodeAmountMismatch, "offered funds do not match amount due")
	// ErrTransferFailed indicates an external payment leg was rejected.
	ErrTransferFailed = apperrors.New(apperrors.CodeTransferFailed, "payment transfer failed")
)

// CurrencyLedger is the alternate payment rail collaborator.
type CurrencyLedger interface {
	BalanceOf(addr token.Address) (*uint256.Int, error)
	TransferFrom(payer, recipient token.Address, amount *uint256.Int) error
}

// NativeTransfer moves the native payment asset held by the system.
type NativeTransfer interface {
	Pay(recipient token.Address, amount *uint256.Int) error
}

// Charge is one staged payment leg. A zero Payer means the leg is paid from
// funds already held by the system (the primary-rail artist payout).
type Charge struct {
	Currency  Currency
	Payer     token.Address
	Recipient token.Address
	Amount    *uint256.Int
}

// Splitter routes payment shares for minted units.
type Splitter struct {
	currency CurrencyLedger
	native   NativeTransfer
	operator token.Address
}

// New returns a splitter paying the operator share to operator.
func New(currency CurrencyLedger, native NativeTransfer, operator token.Address) *Splitter {
	return &Splitter{currency: currency, native: native, operator: operator}
}

// UnitPrice returns the group's unit price on the given rail.
func UnitPrice(group *registry.Group, currency Currency) *uint256.Int {
	if currency == CurrencyAlternate {
		return group.PriceB.Clone()
	}
	return group.PriceA.Clone()
}

// Due returns unitPrice × count.
func Due(unitPrice *uint256.Int, count uint64) *uint256.Int {
	return new(uint256.Int).Mul(unitPrice, uint256.NewInt(count))
}

// Shares computes the artist and operator shares of due. The artist share is
// floor(due × percent / 100); the truncation remainder accrues to the
// operator, so the shares always sum to due exactly.
func Shares(due *uint256.Int, artistRewardPercent uint8) (artist, operator *uint256.Int) {
	artist = new(uint256.Int).Mul(due, uint256.NewInt(uint64(artistRewardPercent)))
	artist.Div(artist, uint256.NewInt(100))
	operator = new(uint256.Int).Sub(due, artist)
	return artist, operator
}

// CheckFunds is the up-front funds check for one request. On the primary
// rail the offered value must equal due exactly; on the alternate rail the
// payer's balance must cover due.
func (s *Splitter) CheckFunds(payer token.Address, offered, due *uint256.Int, currency Currency) error {
	if currency == CurrencyAlternate {
		balance, err := s.currency.BalanceOf(payer)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeTransferFailed, "currency balance lookup failed", err)
		}
		if balance.Lt(due) {
			return ErrAmountMismatch
		}
		return nil
	}
	if offered == nil || !offered.Eq(due) {
		return ErrAmountMismatch
	}
	return nil
}

// Plan stages the payment legs for one minted unit. On the primary rail the
// due amount was already collected with the request, so only the artist
// share moves out and the remainder stays held for the operator. On the
// alternate rail both shares are pulled from the payer. Zero-amount legs are
// elided.
func (s *Splitter) Plan(payer token.Address, coll *registry.Collection, due *uint256.Int, currency Currency) []Charge {
	artistShare, operatorShare := Shares(due, coll.ArtistRewardPercent)

	var legs []Charge
	if currency == CurrencyAlternate {
		if !artistShare.IsZero() {
			legs = append(legs, Charge{Currency: currency, Payer: payer, Recipient: coll.Artist, Amount: artistShare})
		}
		if !operatorShare.IsZero() {
			legs = append(legs, Charge{Currency: currency, Payer: payer, Recipient: s.operator, Amount: operatorShare})
		}
		return legs
	}
	if !artistShare.IsZero() {
		legs = append(legs, Charge{Currency: currency, Recipient: coll.Artist, Amount: artistShare})
	}
	return legs
}

// Execute runs staged legs against the external rails. A failed leg aborts
// immediately. Legs already executed are not rolled back here; atomicity of
// the ledger state is the enclosing operation's concern.
func (s *Splitter) Execute(legs []Charge) error {
	for _, leg := range legs {
		var err error
		if leg.Currency == CurrencyAlternate {
			err = s.currency.TransferFrom(leg.Payer, leg.Recipient, leg.Amount)
		} else {
			err = s.native.Pay(leg.Recipient, leg.Amount)
		}
		if err != nil {
			return apperrors.Wrap(apperrors.CodeTransferFailed, "payment transfer failed", err)
		}
	}
	return nil
}
