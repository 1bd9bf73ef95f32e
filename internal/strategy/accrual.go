package strategy

import "github.com/shopspring/decimal"

// SecondsPerYear is the 365-day year the rate is quoted against.
const SecondsPerYear = 365 * 24 * 60 * 60

var rateDenominator = decimal.NewFromInt(100 * SecondsPerYear)

// VirtualBalance projects principal forward at apy percent per year of simple
// interest, from beginning to now (both unix seconds). Interest is truncated to
// whole base units. A now at or before beginning accrues nothing.
func VirtualBalance(principal decimal.Decimal, apy, beginning, now int64) decimal.Decimal {
	elapsed := now - beginning
	if elapsed <= 0 || apy <= 0 || !principal.IsPositive() {
		return principal
	}

	interest := principal.
		Mul(decimal.NewFromInt(apy)).
		Mul(decimal.NewFromInt(elapsed))
	interest, _ = interest.QuoRem(rateDenominator, 0)

	return principal.Add(interest)
}
