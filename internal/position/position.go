// Package position implements trade-driven position accounting: the
// open/increase/decrease/close/flip classification and the linear/
// inverse PnL formulas, over mutex-guarded per-market state with an
// ApplyTrade entry point and a Snapshot accessor.
package position

import (
	"sync"

	"tradecore/internal/decimalctx"
	"tradecore/pkg/types"

	"github.com/shopspring/decimal"
)

// Kind classifies how a trade affected a position.
type Kind string

const (
	Open     Kind = "open"
	Increase Kind = "increase"
	Decrease Kind = "decrease"
	Close    Kind = "close"
	Flip     Kind = "flip"
)

// Tracker holds one market's position and applies trades to it.
type Tracker struct {
	mu     sync.RWMutex
	market types.Market
	pos    types.Position
}

// NewTracker creates an empty tracker for market m.
func NewTracker(m types.Market) *Tracker {
	return &Tracker{market: m, pos: types.Position{Market: m.Symbol}}
}

// Snapshot returns a value copy of the current position.
func (tr *Tracker) Snapshot() types.Position {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.pos
}

// ApplyTrade ingests a fill and returns the classification and the signed
// cash balance change it produced (negative = cash out, positive = cash in).
func (tr *Tracker) ApplyTrade(t types.Transaction) (Kind, decimal.Decimal) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	e := tr.pos.Entry
	if e == nil {
		tr.pos.Entry = &types.PositionEntry{
			Side:  t.Side,
			Size:  t.Size,
			Price: t.Price,
			Value: t.Value(tr.market.Direction),
		}
		return Open, t.Value(tr.market.Direction).Neg()
	}

	if e.Side == t.Side {
		newSize := e.Size.Add(t.Size)
		newPrice := decimalctx.AvgPrice(e.Price, e.Size, t.Price, t.Size, tr.market.Direction)
		tr.pos.Entry = &types.PositionEntry{
			Side:  e.Side,
			Size:  newSize,
			Price: newPrice,
			Value: valueAt(newSize, newPrice, tr.market.Direction),
		}
		return Increase, t.Value(tr.market.Direction).Neg()
	}

	switch {
	case t.Size.LessThan(e.Size):
		consumed := types.Transaction{Price: e.Price, Size: t.Size, Side: e.Side}
		pnl := PnL(*e, t.Price, tr.market.Direction, t.Size)
		remainder := e.Size.Sub(t.Size)
		tr.pos.Entry = &types.PositionEntry{
			Side:  e.Side,
			Size:  remainder,
			Price: e.Price,
			Value: valueAt(remainder, e.Price, tr.market.Direction),
		}
		balanceChange := consumed.Value(tr.market.Direction).Add(pnl)
		return Decrease, balanceChange

	case t.Size.Equal(e.Size):
		pnl := PnL(*e, t.Price, tr.market.Direction, e.Size)
		equity := e.Value.Add(pnl)
		tr.pos.Entry = nil
		return Close, equity

	default: // flip: t.Size > e.Size
		t1Size := e.Size
		pnl := PnL(*e, t.Price, tr.market.Direction, t1Size)
		closeBalance := e.Value.Add(pnl)

		t2Size := t.Size.Sub(t1Size)
		tr.pos.Entry = &types.PositionEntry{
			Side:  t.Side,
			Size:  t2Size,
			Price: t.Price,
			Value: valueAt(t2Size, t.Price, tr.market.Direction),
		}
		openBalance := valueAt(t2Size, t.Price, tr.market.Direction).Neg()
		return Flip, closeBalance.Add(openBalance)
	}
}

// UpdateMark recomputes Performance at the given mark price.
func (tr *Tracker) UpdateMark(markPrice decimal.Decimal) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	e := tr.pos.Entry
	if e == nil {
		tr.pos.Performance = nil
		return
	}
	pnl := PnL(*e, markPrice, tr.market.Direction, e.Size)
	equity := e.Value.Add(pnl)
	var pnlRate decimal.Decimal
	if !e.Value.IsZero() {
		pnlRate = pnl.Div(e.Value)
	}
	tr.pos.Performance = &types.PositionPerformance{
		PnL:       pnl,
		PnLRate:   pnlRate,
		Equity:    equity,
		MarkPrice: markPrice,
	}
}

func valueAt(size, price decimal.Decimal, dir types.Direction) decimal.Decimal {
	if size.IsZero() {
		return decimal.Zero
	}
	if dir == types.Inverse {
		return size.Div(price)
	}
	return size.Mul(price)
}

// PnL computes the profit/loss of closing `size` of entry e at atPrice,
// per the market's settlement direction. size may be less than e.Size for
// a partial close.
func PnL(e types.PositionEntry, atPrice decimal.Decimal, dir types.Direction, size decimal.Decimal) decimal.Decimal {
	switch {
	case dir == types.Linear && e.Side == types.Buy:
		return atPrice.Sub(e.Price).Mul(size)
	case dir == types.Linear && e.Side == types.Sell:
		return e.Price.Sub(atPrice).Mul(size)
	case dir == types.Inverse && e.Side == types.Buy:
		return size.Div(e.Price).Sub(size.Div(atPrice))
	default: // Inverse, Sell
		return size.Div(atPrice).Sub(size.Div(e.Price))
	}
}
