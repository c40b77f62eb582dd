// Package candle maintains a rolling OHLCV candle chart from an incoming
// trade stream: one bucket per timeframe window, updated in place as
// trades arrive, with tail-window reads for whatever indicator a caller
// layers on top (indicator formulas themselves are out of scope here).
//
// Built on internal/sortedmap, keyed by bucket start time ascending, so
// Tail(n) is the same O(n) slice-suffix read the order book's Snapshot
// uses — the container this package and internal/orderbook both build on.
package candle

import (
	"sync"
	"time"

	"tradecore/internal/sortedmap"
	"tradecore/pkg/types"
)

// Chart accumulates candles for one market at a fixed timeframe.
type Chart struct {
	mu        sync.Mutex
	timeframe time.Duration
	buckets   *sortedmap.Map[time.Time, *types.Candle]
}

// New builds an empty chart bucketed at timeframe.
func New(timeframe time.Duration) *Chart {
	return &Chart{
		timeframe: timeframe,
		buckets:   sortedmap.New[time.Time, *types.Candle](func(a, b time.Time) bool { return a.Before(b) }),
	}
}

// IngestTrade folds tr into its bucket, opening a new one if tr falls
// past the current last bucket's window.
func (c *Chart) IngestTrade(tr types.Trade) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := tr.Timestamp.Truncate(c.timeframe)
	cdl, ok := c.buckets.Get(start)
	if !ok {
		c.buckets.Set(start, &types.Candle{
			From:        start,
			To:          start.Add(c.timeframe),
			Timeframe:   c.timeframe,
			Open:        tr.Price,
			Close:       tr.Price,
			High:        tr.Price,
			Low:         tr.Price,
			Volume:      tr.Size,
			TradesCount: 1,
		})
		return
	}

	cdl.Close = tr.Price
	if tr.Price.GreaterThan(cdl.High) {
		cdl.High = tr.Price
	}
	if tr.Price.LessThan(cdl.Low) {
		cdl.Low = tr.Price
	}
	cdl.Volume = cdl.Volume.Add(tr.Size)
	cdl.TradesCount++
}

// Tail returns up to n of the most recent candles, oldest first.
func (c *Chart) Tail(n int) []types.Candle {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := c.buckets.Tail(n)
	out := make([]types.Candle, len(rows))
	for i, r := range rows {
		out[i] = *r.Val
	}
	return out
}
