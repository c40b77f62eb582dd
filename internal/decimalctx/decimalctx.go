// Package decimalctx centralizes the precision and rounding behavior that
// every price/size/value/fee/balance computation in the core relies on.
// shopspring/decimal is arbitrary-precision already; this package only
// pins the two knobs callers need (division precision, rounding mode)
// so they never have to choose them ad hoc.
package decimalctx

import (
	"tradecore/pkg/types"

	"github.com/shopspring/decimal"
)

// DivisionPrecision is the number of decimal places kept by Div/QuoRem-style
// operations (average price, pnl_rate, inverse-market math). Set well above
// shopspring's own default of 16 so repeated division in PnL chains doesn't
// lose precision, raised process-wide in init.
const DivisionPrecision = 25

func init() {
	decimal.DivisionPrecision = DivisionPrecision
}

// RoundingMode selects the rule Round applies; RoundHalfEven is banker's
// rounding. Named here so callers that need to round explicitly (e.g.
// exchange tick-size quantization) reference one place.
type RoundingMode int

const (
	RoundHalfEven RoundingMode = iota
	RoundDown
	RoundUp
)

// Round applies m to d at the given number of decimal places.
func Round(d decimal.Decimal, places int32, m RoundingMode) decimal.Decimal {
	switch m {
	case RoundDown:
		return d.Truncate(places)
	case RoundUp:
		if d.Equal(d.Truncate(places)) {
			return d.Truncate(places)
		}
		step := decimal.New(1, -places)
		if d.IsNegative() {
			step = step.Neg()
		}
		return d.Truncate(places).Add(step)
	default:
		return d.RoundBank(places)
	}
}

// AvgPrice returns the average entry price of two same-side (price,size)
// fills, used when an order or position accumulates a new fill at its own
// price. For a linear market this is the ordinary size-weighted mean. For
// an inverse market (where value = size/price, so a market-value-
// conserving average is the harmonic one) it is newSize / (s1/p1 + s2/p2)
// — conserving total contract value rather than price, matching the
// inverse PnL formula in internal/position.
func AvgPrice(p1, s1, p2, s2 decimal.Decimal, dir types.Direction) decimal.Decimal {
	totalSize := s1.Add(s2)
	if totalSize.IsZero() {
		return decimal.Zero
	}
	if dir == types.Inverse {
		totalValue := s1.Div(p1).Add(s2.Div(p2))
		if totalValue.IsZero() {
			return decimal.Zero
		}
		return totalSize.Div(totalValue)
	}
	weighted := p1.Mul(s1).Add(p2.Mul(s2))
	return weighted.Div(totalSize)
}
