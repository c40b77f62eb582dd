package candle

import (
	"testing"
	"time"

	"tradecore/pkg/types"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func trade(ts time.Time, price, size string) types.Trade {
	return types.Trade{
		Timestamp:   ts,
		Transaction: types.Transaction{Price: dec(price), Size: dec(size), Side: types.Buy},
	}
}

func TestIngestTradeOpensAndUpdatesBucket(t *testing.T) {
	t.Parallel()
	c := New(time.Minute)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c.IngestTrade(trade(base, "100", "1"))
	c.IngestTrade(trade(base.Add(10*time.Second), "105", "2"))
	c.IngestTrade(trade(base.Add(20*time.Second), "95", "1"))
	c.IngestTrade(trade(base.Add(90*time.Second), "102", "3"))

	rows := c.Tail(2)
	if len(rows) != 2 {
		t.Fatalf("Tail(2) len = %d, want 2", len(rows))
	}

	first := rows[0]
	if !first.Open.Equal(dec("100")) || !first.Close.Equal(dec("95")) {
		t.Fatalf("first bucket open/close = %s/%s, want 100/95", first.Open, first.Close)
	}
	if !first.High.Equal(dec("105")) || !first.Low.Equal(dec("95")) {
		t.Fatalf("first bucket high/low = %s/%s, want 105/95", first.High, first.Low)
	}
	if !first.Volume.Equal(dec("4")) || first.TradesCount != 3 {
		t.Fatalf("first bucket volume/count = %s/%d, want 4/3", first.Volume, first.TradesCount)
	}

	second := rows[1]
	if !second.Open.Equal(dec("102")) || second.TradesCount != 1 {
		t.Fatalf("second bucket open/count = %s/%d, want 102/1", second.Open, second.TradesCount)
	}
}
