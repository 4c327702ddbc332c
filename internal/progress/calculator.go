package progress

import (
	"github.com/shopspring/decimal"
)

// RateLookup resolves the current BTC→currency rate for a currency
// code. It may be backed by a live provider, a cache, or a fixed rate
// in tests.
type RateLookup func(currencyCode string) (decimal.Decimal, error)

// Snapshot is the subset of a project's stored fields that progress is
// computed from.
type Snapshot struct {
	BitcoinAddress     string
	LegacyRaisedAmount decimal.Decimal
	BitcoinBalanceBTC  decimal.Decimal
	GoalAmount         decimal.Decimal
	GoalCurrency       string
}

// Result is derived on every read and never persisted. GoalAchieved in
// particular can flip back and forth as the balance or exchange rate
// moves; that is intended.
type Result struct {
	AmountRaised    decimal.Decimal
	ProgressPercent decimal.Decimal
	GoalAchieved    bool
}

var hundred = decimal.NewFromInt(100)

// Compute derives the amount raised and progress for a project
// snapshot. Projects without a bitcoin address fall back to the
// manually maintained legacy amount; for tracked projects a failed
// rate lookup is surfaced rather than silently degrading to a wrong
// figure.
func Compute(s Snapshot, rate RateLookup) (Result, error) {
	var amountRaised decimal.Decimal
	if s.BitcoinAddress == "" {
		amountRaised = s.LegacyRaisedAmount
	} else {
		r, err := rate(s.GoalCurrency)
		if err != nil {
			return Result{}, err
		}
		amountRaised = s.BitcoinBalanceBTC.Mul(r)
	}

	var percent decimal.Decimal
	if s.GoalAmount.IsPositive() {
		percent = amountRaised.Div(s.GoalAmount).Mul(hundred)
		if percent.IsNegative() {
			percent = decimal.Zero
		} else if percent.GreaterThan(hundred) {
			percent = hundred
		}
	}

	return Result{
		AmountRaised:    amountRaised,
		ProgressPercent: percent,
		GoalAchieved:    s.GoalAmount.IsPositive() && amountRaised.GreaterThanOrEqual(s.GoalAmount),
	}, nil
}
