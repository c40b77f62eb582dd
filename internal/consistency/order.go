// Package consistency implements the order execution/cancellation state
// machine and a reconciler that tolerates out-of-order, duplicated, or
// partial real-time updates from a trading venue.
package consistency

import (
	"tradecore/internal/errs"
	"tradecore/pkg/types"
)

var executionTransitions = map[types.ExecutionStatus]map[types.ExecutionStatus]bool{
	types.InFlight: {
		types.Created:         true,
		types.PartiallyFilled: true,
		types.Filled:          true,
		types.Rejected:        true,
	},
	types.Created: {
		types.PartiallyFilled: true,
		types.Filled:          true,
		types.Cancelled:       true,
	},
	types.PartiallyFilled: {
		types.PartiallyFilled: true,
		types.Filled:          true,
		types.Cancelled:       true,
	},
}

// LegalExecutionTransition reports whether the order's execution status
// may move from `from` to `to`.
func LegalExecutionTransition(from, to types.ExecutionStatus) bool {
	if from == to {
		return from == types.PartiallyFilled
	}
	next, ok := executionTransitions[from]
	return ok && next[to]
}

var cancellationTransitions = map[types.CancellationStatus]map[types.CancellationStatus]bool{
	types.CancelInFlight: {
		types.CancelCreated:  true,
		types.CancelRejected: true,
	},
}

// LegalCancellationTransition reports whether a cancellation may move
// from `from` to `to`. A nil `from` (cancellation not yet requested) may
// only move to in_flight.
func LegalCancellationTransition(from *types.CancellationStatus, to types.CancellationStatus) bool {
	if from == nil {
		return to == types.CancelInFlight
	}
	if *from == types.CancelCreated {
		return false
	}
	next, ok := cancellationTransitions[*from]
	return ok && next[to]
}

// ForwardEquivalent reports whether moving from e1 to e2 is a legal,
// non-regressive execution update.
func ForwardEquivalent(e1, e2 types.Execution) bool {
	if !LegalExecutionTransition(e1.Status, e2.Status) {
		return false
	}
	switch {
	case e2.Status == types.Cancelled:
		return e2.FilledSize.LessThanOrEqual(e1.FilledSize)
	case e1.Status == types.PartiallyFilled && e2.Status == types.PartiallyFilled:
		return e2.FilledSize.GreaterThanOrEqual(e1.FilledSize)
	default:
		return e2.FilledSize.GreaterThan(e1.FilledSize) || e2.FilledSize.Equal(e1.FilledSize)
	}
}

// Diverged reports whether e1 and e2 disagree in a way that neither is
// forward-equivalent to the other.
func Diverged(e1, e2 types.Execution) bool {
	if ForwardEquivalent(e1, e2) || ForwardEquivalent(e2, e1) {
		return false
	}
	return e1.Status != e2.Status || !e1.FilledSize.Equal(e2.FilledSize)
}

// IngestTrade validates and applies a trade fill to an order's execution,
// following the market's value-arithmetic direction.
func IngestTrade(o *types.Order, market types.Market, t types.Trade) error {
	if t.Side != o.Parameters.Side {
		return errs.New(errs.InvalidParams, "trade side %s does not match order side %s", t.Side, o.Parameters.Side)
	}
	remaining := o.Parameters.Size.Sub(o.Execution.FilledSize)
	if t.Size.GreaterThan(remaining) {
		return errs.New(errs.InvalidParams, "trade size %s exceeds remaining order size %s", t.Size, remaining)
	}

	tradeValue := t.Transaction.Value(market.Direction)
	newSize := o.Execution.FilledSize.Add(t.Size)
	newValue := o.Execution.FilledValue.Add(tradeValue)

	o.Execution.FilledSize = newSize
	o.Execution.FilledValue = newValue
	if t.Fee != nil {
		if o.Execution.Fee == nil {
			o.Execution.Fee = &types.Fee{Rate: t.Fee.Rate, Asset: t.Fee.Asset}
		}
		o.Execution.Fee.BalanceChange = o.Execution.Fee.BalanceChange.Add(t.Fee.BalanceChange)
	}
	if newSize.Equal(o.Parameters.Size) {
		o.Execution.Status = types.Filled
	} else {
		o.Execution.Status = types.PartiallyFilled
	}
	return nil
}
