// Package simulator implements a deterministic limit-order-book
// simulator: a market, an order index, a maker limitbook, per-side
// taker FIFO queues, the latest trade, and fee rates. Commands
// (open_orders/cancel_orders/ingest_trades) produce order_updates and
// advance state.
//
// A single struct exposes command-shaped methods over the order index,
// maker book, taker queues, and fee rates. The struct itself takes no
// lock; see Simulator.
package simulator

import (
	"tradecore/internal/consistency"
	"tradecore/internal/decimalctx"
	"tradecore/internal/errs"
	"tradecore/internal/limitbook"
	"tradecore/pkg/types"

	"github.com/shopspring/decimal"
)

// OrderUpdate is one emitted change, consumed by callers (e.g. a
// pipeline node) that need to react to fills/cancels/rejections.
type OrderUpdate struct {
	OrderID string
	Order   *types.Order
}

// Simulator holds all mutable matching state for one market. Not
// concurrency-safe on its own; callers serialize access (e.g. via the
// single-writer pipeline node wrapping it).
type Simulator struct {
	market      types.Market
	index       *consistency.Index
	book        *limitbook.Book
	takerQueues map[types.Side][]string // order ids, FIFO
	latestTrade *types.Trade
	makerFee    decimal.Decimal
	takerFee    decimal.Decimal
}

// New builds a simulator for market m with the given fee rates.
func New(m types.Market, makerFee, takerFee decimal.Decimal) *Simulator {
	return &Simulator{
		market:      m,
		index:       consistency.NewIndex(),
		book:        limitbook.New(),
		takerQueues: map[types.Side][]string{types.Buy: nil, types.Sell: nil},
		makerFee:    makerFee,
		takerFee:    takerFee,
	}
}

// OpenOrders submits new orders, resolving actor when unspecified (maker
// if a price is set and it rests without crossing, else taker).
func (s *Simulator) OpenOrders(orders []*types.Order) []OrderUpdate {
	var updates []OrderUpdate
	for _, o := range orders {
		updates = append(updates, s.openOne(o))
	}
	return updates
}

func (s *Simulator) openOne(o *types.Order) OrderUpdate {
	if _, exists := s.index.Get(o.ID); exists {
		o.Execution.Status = types.Rejected
		return OrderUpdate{OrderID: o.ID, Order: o}
	}

	o.Execution.Status = types.InFlight
	o.Execution.Side = o.Parameters.Side

	actor := o.Parameters.Actor
	if actor == "" {
		actor = s.resolveActor(o)
	}

	switch actor {
	case types.Maker:
		if o.Parameters.Price == nil {
			o.Execution.Status = types.Rejected
			return OrderUpdate{OrderID: o.ID, Order: o}
		}
		if !s.makerPriceValid(o.Parameters.Side, *o.Parameters.Price) {
			o.Execution.Status = types.Rejected
			return OrderUpdate{OrderID: o.ID, Order: o}
		}
		o.Execution.Status = types.Created
		s.index.Put(o)
		s.book.AddOrder(o)
	default:
		o.Execution.Status = types.Created
		s.index.Put(o)
		s.takerQueues[o.Parameters.Side] = append(s.takerQueues[o.Parameters.Side], o.ID)
	}
	return OrderUpdate{OrderID: o.ID, Order: o}
}

// resolveActor implements the "unspecified actor tries maker then taker"
// rule: a priced order valid against the latest trade rests as a maker,
// otherwise it is queued as a taker.
func (s *Simulator) resolveActor(o *types.Order) types.Actor {
	if o.Parameters.Price != nil && s.makerPriceValid(o.Parameters.Side, *o.Parameters.Price) {
		return types.Maker
	}
	return types.Taker
}

// makerPriceValid checks the maker price against only the latest trade,
// intentionally not validated against the full opposite
// book, a documented design choice carried over unchanged.
//
// A maker price on the same side as the latest trade must strictly
// improve on it (resting on the far side of the last print); a maker
// price on the opposite side may match it exactly.
func (s *Simulator) makerPriceValid(side types.Side, price decimal.Decimal) bool {
	if s.latestTrade == nil {
		return true
	}
	sameSide := side == s.latestTrade.Side
	if side == types.Buy {
		if sameSide {
			return price.LessThan(s.latestTrade.Price)
		}
		return price.LessThanOrEqual(s.latestTrade.Price)
	}
	if sameSide {
		return price.GreaterThan(s.latestTrade.Price)
	}
	return price.GreaterThanOrEqual(s.latestTrade.Price)
}

// CancelOrders cancels resting orders by id.
func (s *Simulator) CancelOrders(ids []string) []OrderUpdate {
	var updates []OrderUpdate
	for _, id := range ids {
		updates = append(updates, s.cancelOne(id))
	}
	return updates
}

func (s *Simulator) cancelOne(id string) OrderUpdate {
	o, ok := s.index.Get(id)
	if !ok {
		return OrderUpdate{OrderID: id, Order: &types.Order{
			ID:           id,
			Cancellation: &types.Cancellation{Status: types.CancelRejected},
		}}
	}
	if o.Parameters.Actor == types.Taker {
		o.Cancellation = &types.Cancellation{Status: types.CancelRejected}
		s.index.Put(o)
		return OrderUpdate{OrderID: id, Order: o}
	}

	s.book.RemoveOrder(o)
	o.Execution.Status = types.Cancelled
	o.Cancellation = &types.Cancellation{Status: types.CancelCreated}
	s.index.Put(o)
	return OrderUpdate{OrderID: id, Order: o}
}

// IngestTrades advances the latest trade and fills makers (via touch) and
// queued takers (via FIFO walk), processing trades in the order given.
func (s *Simulator) IngestTrades(trades []types.Trade) ([]OrderUpdate, error) {
	var updates []OrderUpdate
	for _, t := range trades {
		u, err := s.ingestOne(t)
		if err != nil {
			return updates, err
		}
		updates = append(updates, u...)
	}
	return updates, nil
}

func (s *Simulator) ingestOne(t types.Trade) ([]OrderUpdate, error) {
	if t.Market != "" && t.Market != s.market.Symbol {
		return nil, errs.New(errs.InvalidParams, "trade for market %s does not match simulator market %s", t.Market, s.market.Symbol)
	}
	tc := t
	s.latestTrade = &tc

	var updates []OrderUpdate

	touched := s.book.Touch(t.Transaction, true)
	for _, maker := range touched.Filled {
		fillSize := decimalctx.Round(decimal.Min(maker.Parameters.Size.Sub(maker.Execution.FilledSize), t.Size), 18, decimalctx.RoundHalfEven)
		if fillSize.IsZero() {
			continue
		}
		makerFill := types.Trade{
			ID:        t.ID + ":" + maker.ID,
			Market:    s.market.Symbol,
			Timestamp: t.Timestamp,
			Transaction: types.Transaction{
				Price: *maker.Parameters.Price,
				Size:  fillSize,
				Side:  maker.Parameters.Side,
				Actor: types.Maker,
			},
		}
		gross := makerFill.Transaction.Value(s.market.Direction)
		fee := types.NewFee(s.makerFee, gross, s.market.QuoteAsset)
		makerFill.Fee = &fee
		if err := consistency.IngestTrade(maker, s.market, makerFill); err != nil {
			return updates, err
		}
		updates = append(updates, OrderUpdate{OrderID: maker.ID, Order: maker})
	}

	remaining := t.Size
	queue := s.takerQueues[t.Side]
	consumedHead := 0
	for consumedHead < len(queue) && remaining.GreaterThan(decimal.Zero) {
		id := queue[consumedHead]
		taker, ok := s.index.Get(id)
		if !ok {
			consumedHead++
			continue
		}
		fillSize := decimal.Min(taker.Parameters.Size.Sub(taker.Execution.FilledSize), remaining)
		if fillSize.IsZero() {
			consumedHead++
			continue
		}
		takerFill := types.Trade{
			ID:        t.ID + ":" + taker.ID,
			Market:    s.market.Symbol,
			Timestamp: t.Timestamp,
			Transaction: types.Transaction{
				Price: t.Price,
				Size:  fillSize,
				Side:  taker.Parameters.Side,
				Actor: types.Taker,
			},
		}
		gross := takerFill.Transaction.Value(s.market.Direction)
		fee := types.NewFee(s.takerFee, gross, s.market.QuoteAsset)
		takerFill.Fee = &fee
		if err := consistency.IngestTrade(taker, s.market, takerFill); err != nil {
			return updates, err
		}
		s.index.Put(taker)
		remaining = remaining.Sub(fillSize)
		updates = append(updates, OrderUpdate{OrderID: taker.ID, Order: taker})
		if taker.Execution.Status == types.Filled {
			consumedHead++
		}
	}
	s.takerQueues[t.Side] = queue[consumedHead:]

	return updates, nil
}

// Snapshot is a serializable view of simulator state.
type Snapshot struct {
	Market      types.Market
	LatestTrade *types.Trade
	MakerFee    decimal.Decimal
	TakerFee    decimal.Decimal
}

// Snapshot returns the configuration/latest-trade portion of state; the
// order index and book are queried independently through their own
// thread-safe accessors.
func (s *Simulator) Snapshot() Snapshot {
	return Snapshot{
		Market:      s.market,
		LatestTrade: s.latestTrade,
		MakerFee:    s.makerFee,
		TakerFee:    s.takerFee,
	}
}

// Order returns the current view of one tracked order.
func (s *Simulator) Order(id string) (*types.Order, bool) {
	return s.index.Get(id)
}
