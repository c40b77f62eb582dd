// Package orderbook implements the depth-mirror order book: bids sorted
// descending, asks ascending, incrementally patched by venue updates and
// checked against the no-crossed-book invariant after every patch.
//
// Built directly on internal/sortedmap for the O(log n) upserts and the
// full-side walk a snapshot needs; tidwall/btree serves the own-order
// maker book in internal/limitbook instead, since that book is keyed by
// order id within a level rather than a bare price→size pair.
package orderbook

import (
	"tradecore/internal/errs"
	"tradecore/internal/sortedmap"
	"tradecore/pkg/types"

	"github.com/shopspring/decimal"
)

// Book is a depth-mirror order book for one market.
type Book struct {
	bids *sortedmap.Map[decimal.Decimal, decimal.Decimal]
	asks *sortedmap.Map[decimal.Decimal, decimal.Decimal]
}

// New builds an empty book.
func New() *Book {
	return &Book{
		bids: sortedmap.New[decimal.Decimal, decimal.Decimal](func(a, b decimal.Decimal) bool { return a.GreaterThan(b) }),
		asks: sortedmap.New[decimal.Decimal, decimal.Decimal](func(a, b decimal.Decimal) bool { return a.LessThan(b) }),
	}
}

func (b *Book) side(s types.Side) *sortedmap.Map[decimal.Decimal, decimal.Decimal] {
	if s == types.Buy {
		return b.bids
	}
	return b.asks
}

// Apply patches the book with rows in order, Size==0 deleting the level.
// It returns the inverse rows (the prior state of each touched level,
// oldest row first) so a caller can undo the patch by applying Inverse
// rows in reverse order. After all rows are applied the book is checked
// for a crossed state (bids.max >= asks.min) and an errs.Incorrect error
// is returned if so — the patch is still applied; callers decide whether
// to roll back via Invert.
func (b *Book) Apply(rows []types.OrderbookUpdate) (inverse []types.OrderbookUpdate, err error) {
	inverse = make([]types.OrderbookUpdate, len(rows))
	for i, r := range rows {
		m := b.side(r.Side)
		prev, existed := m.Get(r.Price)
		if existed {
			inverse[i] = types.OrderbookUpdate{Side: r.Side, Price: r.Price, Size: prev}
		} else {
			inverse[i] = types.OrderbookUpdate{Side: r.Side, Price: r.Price, Size: decimal.Zero}
		}

		if r.Size.IsZero() {
			m.Delete(r.Price)
		} else {
			m.Set(r.Price, r.Size)
		}
	}

	if crossed, bid, ask := b.crossed(); crossed {
		return inverse, errs.New(errs.Incorrect, "crossed book: bid %s >= ask %s", bid, ask)
	}
	return inverse, nil
}

// Invert undoes a prior Apply by re-applying its inverse rows in reverse
// order, restoring the book to its pre-Apply state.
func (b *Book) Invert(inverse []types.OrderbookUpdate) {
	for i := len(inverse) - 1; i >= 0; i-- {
		r := inverse[i]
		m := b.side(r.Side)
		if r.Size.IsZero() {
			m.Delete(r.Price)
		} else {
			m.Set(r.Price, r.Size)
		}
	}
}

func (b *Book) crossed() (yes bool, bid, ask decimal.Decimal) {
	bidPrice, _, bidOK := b.bids.First()
	askPrice, _, askOK := b.asks.First()
	if !bidOK || !askOK {
		return false, decimal.Zero, decimal.Zero
	}
	return !bidPrice.LessThan(askPrice), bidPrice, askPrice
}

// Snapshot returns the full book as descending bids / ascending asks.
func (b *Book) Snapshot() (bids, asks []types.PriceLevel) {
	for _, e := range b.bids.Tail(b.bids.Len()) {
		bids = append(bids, types.PriceLevel{Price: e.Key, Size: e.Val})
	}
	for _, e := range b.asks.Tail(b.asks.Len()) {
		asks = append(asks, types.PriceLevel{Price: e.Key, Size: e.Val})
	}
	return bids, asks
}
