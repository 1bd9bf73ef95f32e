package models

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind names the movement a LedgerEntry records.
type EntryKind string

const (
	EntryDeposit  EntryKind = "deposit"
	EntryWithdraw EntryKind = "withdraw"
	EntryMint     EntryKind = "mint"
)

// LedgerEntry records one balance movement of a strategy.
// Entries are append-only; the journal order is the order they were saved in.
type LedgerEntry struct {
	ID         string          `json:"id"`          // uuid
	StrategyID string          `json:"strategy_id"` // owning strategy
	Kind       EntryKind       `json:"kind"`
	Account    Address         `json:"account"` // counterparty: controller, recipient, or the strategy itself for mints
	Amount     decimal.Decimal `json:"amount"`  // base units, always positive
	CreatedAt  time.Time       `json:"created_at"`
}

// MaxAmount is the largest amount a token can hold, 2^256-1, matching the
// NUMERIC(78,0) column the postgres store writes amounts to.
var MaxAmount = decimal.NewFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)), 0)

// maxAmountDigits bounds the exponent before any arithmetic happens: a value
// like "1e20000000" parses cheaply but expands into a huge big.Int on the
// first comparison.
const maxAmountDigits = 78

// ValidAmount reports whether d is usable as a token amount: whole base units,
// not negative, and no larger than MaxAmount.
func ValidAmount(d decimal.Decimal) bool {
	// exponent is checked first so that IsInteger and Cmp never rescale to an absurd size
	exp := int64(d.Exponent())
	if exp < -maxAmountDigits || int64(d.NumDigits())+exp > maxAmountDigits {
		return false
	}
	if d.IsNegative() || !d.IsInteger() {
		return false
	}
	return d.Cmp(MaxAmount) <= 0
}
