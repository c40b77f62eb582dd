// Package limitbook implements the own-order maker book:
// add/remove of resting orders, and Touch, which returns the makers hit
// by an incoming trade and removes their levels from the book in place.
// Snapshot gives a copy-on-write copy of the book for callers that need
// the pre-touch view.
//
// Each side is an RWMutex-guarded github.com/tidwall/btree.BTreeG keyed
// by price, with side-specific comparators (bids descending, asks
// ascending), generalized from a read-only depth mirror into a mutable
// own-order book.
package limitbook

import (
	"sync"

	"tradecore/pkg/types"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
)

// level holds all resting orders at one price, keyed by order id so
// add/remove are O(1) within the level.
type level struct {
	price  decimal.Decimal
	orders map[string]*types.Order
}

type levels = btree.BTreeG[*level]

// Book is the own-order maker book for one market. Bids are sorted
// descending (best bid first), asks ascending (best ask first).
type Book struct {
	mu   sync.RWMutex
	bids *levels
	asks *levels
}

// New builds an empty book.
func New() *Book {
	bids := btree.NewBTreeG(func(a, b *level) bool { return a.price.GreaterThan(b.price) })
	asks := btree.NewBTreeG(func(a, b *level) bool { return a.price.LessThan(b.price) })
	return &Book{bids: bids, asks: asks}
}

func (b *Book) sideTree(side types.Side) *levels {
	if side == types.Buy {
		return b.bids
	}
	return b.asks
}

// AddOrder inserts a resting maker order at its price.
func (b *Book) AddOrder(o *types.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	price := *o.Parameters.Price
	tree := b.sideTree(o.Parameters.Side)
	lvl, ok := tree.Get(&level{price: price})
	if !ok {
		lvl = &level{price: price, orders: make(map[string]*types.Order)}
		tree.Set(lvl)
	}
	lvl.orders[o.ID] = o
}

// RemoveOrder removes a resting order, dropping the level if it empties.
func (b *Book) RemoveOrder(o *types.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(o.Parameters.Side, *o.Parameters.Price, o.ID)
}

func (b *Book) removeLocked(side types.Side, price decimal.Decimal, id string) {
	tree := b.sideTree(side)
	lvl, ok := tree.Get(&level{price: price})
	if !ok {
		return
	}
	delete(lvl.orders, id)
	if len(lvl.orders) == 0 {
		tree.Delete(lvl)
	}
}

// TouchResult holds the makers hit by an incoming trade.
type TouchResult struct {
	Filled []*types.Order
}

// Touch walks the side opposite the trade, strictly better than (or, if
// passThrough, equal to) the trade price, collecting every resting order
// at those levels and removing those levels from the book. The book is
// mutated in place (copy-on-write semantics are realized by the
// copy-on-write btree snapshot the caller takes via Snapshot before
// calling Touch, when a pre-touch view must be retained).
func (b *Book) Touch(trade types.Transaction, passThrough bool) TouchResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A buy trade hits resting asks; a sell trade hits resting bids.
	var tree *levels
	var better func(levelPrice decimal.Decimal) bool
	if trade.Side == types.Buy {
		tree = b.asks
		if passThrough {
			better = func(p decimal.Decimal) bool { return p.LessThanOrEqual(trade.Price) }
		} else {
			better = func(p decimal.Decimal) bool { return p.LessThan(trade.Price) }
		}
	} else {
		tree = b.bids
		if passThrough {
			better = func(p decimal.Decimal) bool { return p.GreaterThanOrEqual(trade.Price) }
		} else {
			better = func(p decimal.Decimal) bool { return p.GreaterThan(trade.Price) }
		}
	}

	var hit []*level
	tree.Scan(func(lvl *level) bool {
		if !better(lvl.price) {
			return false
		}
		hit = append(hit, lvl)
		return true
	})

	var result TouchResult
	for _, lvl := range hit {
		for _, o := range lvl.orders {
			result.Filled = append(result.Filled, o)
		}
		tree.Delete(lvl)
	}
	return result
}

// Snapshot returns a copy-on-write clone of the book (tidwall/btree's
// Copy is O(1) amortized, structural sharing until mutated), so callers
// that need a pre-touch view can retain one cheaply.
func (b *Book) Snapshot() *Book {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return &Book{bids: b.bids.Copy(), asks: b.asks.Copy()}
}

// BestBidAsk returns the best resting bid and ask prices, if present.
func (b *Book) BestBidAsk() (bid, ask decimal.Decimal, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bidLvl, bidOK := b.bids.Min()
	askLvl, askOK := b.asks.Min()
	if !bidOK || !askOK {
		return decimal.Zero, decimal.Zero, false
	}
	return bidLvl.price, askLvl.price, true
}
