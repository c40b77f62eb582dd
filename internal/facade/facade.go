// Package facade defines the core's external capability interfaces:
// OrderExecution, GetCandles, GetOrderbook, and the Stream* family. Any
// collaborator implementing a subset of these can drive the core; this
// package also ships one thin REST-backed reference implementation so the
// interfaces have a concrete, swappable body.
package facade

import (
	"context"

	"tradecore/pkg/types"
)

// OrderExecution opens, cancels, and queries orders against a venue.
type OrderExecution interface {
	Open(ctx context.Context, o *types.Order) (*types.Order, error)
	Cancel(ctx context.Context, orderID string) (*types.Order, error)
	Get(ctx context.Context, orderID string) (*types.Order, error)
	GetTrades(ctx context.Context, orderID string) ([]types.Trade, error)
}

// GetCandles returns historical OHLCV buckets.
type GetCandles interface {
	GetCandles(ctx context.Context, market string, timeframe string, limit int) ([]types.Candle, error)
}

// GetOrderbook returns a point-in-time order book snapshot.
type GetOrderbook interface {
	GetOrderbook(ctx context.Context, market string) ([]types.PriceLevel, []types.PriceLevel, error)
}

// StopFunc ends a stream subscription.
type StopFunc func()

// StreamCandles, StreamOrderbook, ... each push updates onto out and
// return a StopFunc. closeOnStop indicates whether the implementation
// should close out when Stop is called (false when out is shared).
type StreamCandles interface {
	StreamCandles(ctx context.Context, market string, out chan<- types.Candle, closeOnStop bool) (StopFunc, error)
}

type StreamOrderbook interface {
	StreamOrderbook(ctx context.Context, market string, out chan<- types.OrderbookUpdate, closeOnStop bool) (StopFunc, error)
}

type StreamTrades interface {
	StreamTrades(ctx context.Context, market string, out chan<- types.Trade, closeOnStop bool) (StopFunc, error)
}

type StreamOrderUpdates interface {
	StreamOrderUpdates(ctx context.Context, out chan<- types.Order, closeOnStop bool) (StopFunc, error)
}

type StreamPositions interface {
	StreamPositions(ctx context.Context, out chan<- types.Position, closeOnStop bool) (StopFunc, error)
}

type StreamBalances interface {
	StreamBalances(ctx context.Context, out chan<- types.Balance, closeOnStop bool) (StopFunc, error)
}

type StreamHistoricalTrades interface {
	StreamHistoricalTrades(ctx context.Context, market string, from, to int64, out chan<- types.Trade, closeOnStop bool) (StopFunc, error)
}
