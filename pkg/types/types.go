// Package types defines the shared data structures used across the core:
// markets, trades, orders, positions, candles, and order book snapshots.
// It has no dependency on any other internal package.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ————————————————————————————————————————————————————————————————————————
// Core enums
// ————————————————————————————————————————————————————————————————————————

// Side is the direction of a transaction or order.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Actor distinguishes a passive (price-posting) fill from an active one.
type Actor string

const (
	Maker Actor = "maker"
	Taker Actor = "taker"
)

// Direction classifies how a market's contracts settle, which determines
// the PnL formula used in internal/position.
type Direction string

const (
	Linear  Direction = "linear"
	Inverse Direction = "inverse"
)

// TimeInForce is an order's validity policy.
type TimeInForce string

const (
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
	FOK TimeInForce = "FOK"
)

// ExecutionStatus is the order lifecycle state defined by the execution
// state machine (internal/consistency).
type ExecutionStatus string

const (
	InFlight        ExecutionStatus = "in_flight"
	Created         ExecutionStatus = "created"
	PartiallyFilled ExecutionStatus = "partially_filled"
	Filled          ExecutionStatus = "filled"
	Rejected        ExecutionStatus = "rejected"
	Cancelled       ExecutionStatus = "cancelled"
)

// CancellationStatus mirrors ExecutionStatus but for the cancel-request
// sub-lifecycle.
type CancellationStatus string

const (
	CancelInFlight CancellationStatus = "in_flight"
	CancelCreated  CancellationStatus = "created"
	CancelRejected CancellationStatus = "rejected"
)

// ————————————————————————————————————————————————————————————————————————
// Market
// ————————————————————————————————————————————————————————————————————————

// Market is immutable configuration describing a tradable instrument.
type Market struct {
	Symbol      string
	BaseAsset   string
	QuoteAsset  string
	Direction   Direction
	PriceTick   decimal.Decimal
	LotSize     decimal.Decimal
	ContractVal decimal.Decimal // inverse markets: cash value of one contract
}

// ————————————————————————————————————————————————————————————————————————
// Transaction / Trade / Fee / Balance
// ————————————————————————————————————————————————————————————————————————

// Transaction is a priced movement of size on one side of the book.
type Transaction struct {
	Price decimal.Decimal
	Size  decimal.Decimal
	Side  Side
	Actor Actor
}

// Value computes size*price (linear) or size/price (inverse). Callers
// pass the market direction since Transaction itself is market-agnostic.
func (t Transaction) Value(dir Direction) decimal.Decimal {
	if t.Size.IsZero() {
		return decimal.Zero
	}
	if dir == Inverse {
		return t.Size.Div(t.Price)
	}
	return t.Size.Mul(t.Price)
}

// SignedSize returns Size for a buy and -Size for a sell.
func (t Transaction) SignedSize() decimal.Decimal {
	if t.Side == Sell {
		return t.Size.Neg()
	}
	return t.Size
}

// Fee is a signed charge or rebate attached to a trade.
type Fee struct {
	Rate          decimal.Decimal
	BalanceChange decimal.Decimal
	Asset         string
}

// NewFee derives a Fee from a rate and the gross value it applies to.
// sign(rate) determines sign(BalanceChange): a positive rate is a charge
// (negative balance change), a negative rate is a rebate.
func NewFee(rate, gross decimal.Decimal, asset string) Fee {
	return Fee{
		Rate:          rate,
		BalanceChange: gross.Mul(rate).Neg(),
		Asset:         asset,
	}
}

// Trade is a single executed fill, uniquely identified per market.
type Trade struct {
	ID        string
	Market    string
	Timestamp time.Time
	Transaction
	Fee *Fee
}

// Balance is an available amount of a single asset.
type Balance struct {
	Asset     string
	Available decimal.Decimal
}

// ————————————————————————————————————————————————————————————————————————
// Order
// ————————————————————————————————————————————————————————————————————————

// OrderParameters are the immutable terms the order was opened with.
type OrderParameters struct {
	TimeInForce TimeInForce
	Size        decimal.Decimal
	Side        Side
	Actor       Actor // empty means "unspecified": try maker, then taker
	Price       *decimal.Decimal
}

// Execution is the mutable fill progress of an order.
type Execution struct {
	Status      ExecutionStatus
	Side        Side
	FilledSize  decimal.Decimal
	FilledValue decimal.Decimal
	Fee         *Fee
}

// Cancellation is the mutable cancel-request progress of an order.
type Cancellation struct {
	Status CancellationStatus
}

// Order is the full mutable trading-state record tracked by the
// consistency engine and simulator.
type Order struct {
	ID           string
	Market       string
	Parameters   OrderParameters
	Execution    Execution
	Cancellation *Cancellation

	// Reconciliation bookkeeping (internal/consistency) — exported so the
	// reconciler can be a plain set of functions over *Order rather than a
	// wrapper type.
	IngestedTradeIDs map[string]struct{}
	RemoteExecution  *Execution
}

// Clone returns a deep-enough copy of o for safe concurrent snapshotting:
// never hand out a pointer into shared internal state.
func (o *Order) Clone() *Order {
	cp := *o
	if o.Parameters.Price != nil {
		p := *o.Parameters.Price
		cp.Parameters.Price = &p
	}
	if o.Cancellation != nil {
		c := *o.Cancellation
		cp.Cancellation = &c
	}
	if o.Execution.Fee != nil {
		f := *o.Execution.Fee
		cp.Execution.Fee = &f
	}
	if o.RemoteExecution != nil {
		r := *o.RemoteExecution
		if r.Fee != nil {
			f := *r.Fee
			r.Fee = &f
		}
		cp.RemoteExecution = &r
	}
	cp.IngestedTradeIDs = make(map[string]struct{}, len(o.IngestedTradeIDs))
	for id := range o.IngestedTradeIDs {
		cp.IngestedTradeIDs[id] = struct{}{}
	}
	return &cp
}

// ————————————————————————————————————————————————————————————————————————
// Position
// ————————————————————————————————————————————————————————————————————————

// PositionEntry is the open-lot state of a position.
type PositionEntry struct {
	Side  Side
	Size  decimal.Decimal
	Price decimal.Decimal
	Value decimal.Decimal
}

// PositionPerformance is the mark-to-market view of an open position.
type PositionPerformance struct {
	PnL      decimal.Decimal
	PnLRate  decimal.Decimal
	Equity   decimal.Decimal
	MarkPrice decimal.Decimal
}

// Position tracks one market's net exposure.
type Position struct {
	Market      string
	Entry       *PositionEntry
	Performance *PositionPerformance
}

// ————————————————————————————————————————————————————————————————————————
// Candle / Orderbook
// ————————————————————————————————————————————————————————————————————————

// Candle is one OHLCV bucket over [From,To).
type Candle struct {
	From        time.Time
	To          time.Time
	Timeframe   time.Duration
	Open        decimal.Decimal
	Close       decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Volume      decimal.Decimal
	TradesCount int64
}

// PriceLevel is one (price,size) row of an order book side.
type PriceLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// OrderbookUpdate is an incremental patch: Size==0 deletes the level.
type OrderbookUpdate struct {
	Side  Side
	Price decimal.Decimal
	Size  decimal.Decimal
}
