package position

import (
	"testing"

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

func TestOpenThenIncrease(t *testing.T) {
	t.Parallel()
	tr := NewTracker(types.Market{Symbol: "BTC-USD", Direction: types.Linear})

	kind, change := tr.ApplyTrade(types.Transaction{Price: dec("100"), Size: dec("1"), Side: types.Buy})
	if kind != Open {
		t.Fatalf("kind = %s, want open", kind)
	}
	if !change.Equal(dec("-100")) {
		t.Errorf("balance change = %s, want -100", change)
	}

	kind, _ = tr.ApplyTrade(types.Transaction{Price: dec("110"), Size: dec("1"), Side: types.Buy})
	if kind != Increase {
		t.Fatalf("kind = %s, want increase", kind)
	}
	snap := tr.Snapshot()
	if !snap.Entry.Price.Equal(dec("105")) {
		t.Errorf("avg entry price = %s, want 105", snap.Entry.Price)
	}
}

func TestDecreaseThenClose(t *testing.T) {
	t.Parallel()
	tr := NewTracker(types.Market{Direction: types.Linear})
	tr.ApplyTrade(types.Transaction{Price: dec("100"), Size: dec("2"), Side: types.Buy})

	kind, change := tr.ApplyTrade(types.Transaction{Price: dec("110"), Size: dec("1"), Side: types.Sell})
	if kind != Decrease {
		t.Fatalf("kind = %s, want decrease", kind)
	}
	if !change.Equal(dec("110")) {
		t.Errorf("decrease balance change = %s, want 110 (100 cost recovered + 10 pnl)", change)
	}

	kind, change = tr.ApplyTrade(types.Transaction{Price: dec("120"), Size: dec("1"), Side: types.Sell})
	if kind != Close {
		t.Fatalf("kind = %s, want close", kind)
	}
	if !change.Equal(dec("120")) {
		t.Errorf("close equity = %s, want 120", change)
	}
	if tr.Snapshot().Entry != nil {
		t.Error("entry should be nil after close")
	}
}

// Mirrors the worked "taker flip, inverse market" scenario: a long
// position flips short on a single oversized opposing trade.
func TestFlipInverseMarket(t *testing.T) {
	t.Parallel()
	tr := NewTracker(types.Market{Symbol: "XBTUSD", Direction: types.Inverse})
	tr.ApplyTrade(types.Transaction{Price: dec("50000"), Size: dec("1000"), Side: types.Buy})

	kind, _ := tr.ApplyTrade(types.Transaction{Price: dec("55000"), Size: dec("1500"), Side: types.Sell})
	if kind != Flip {
		t.Fatalf("kind = %s, want flip", kind)
	}

	snap := tr.Snapshot()
	if snap.Entry.Side != types.Sell {
		t.Errorf("entry side after flip = %s, want sell", snap.Entry.Side)
	}
	if !snap.Entry.Size.Equal(dec("500")) {
		t.Errorf("entry size after flip = %s, want 500", snap.Entry.Size)
	}
	if !snap.Entry.Price.Equal(dec("55000")) {
		t.Errorf("new entry price after flip = %s, want 55000", snap.Entry.Price)
	}
}

func TestPnLLinearBuy(t *testing.T) {
	t.Parallel()
	e := types.PositionEntry{Side: types.Buy, Price: dec("100")}
	pnl := PnL(e, dec("110"), types.Linear, dec("2"))
	if !pnl.Equal(dec("20")) {
		t.Errorf("pnl = %s, want 20", pnl)
	}
}

func TestPnLInverseSell(t *testing.T) {
	t.Parallel()
	e := types.PositionEntry{Side: types.Sell, Price: dec("50000")}
	pnl := PnL(e, dec("40000"), types.Inverse, dec("1000"))
	want := dec("1000").Div(dec("40000")).Sub(dec("1000").Div(dec("50000")))
	if !pnl.Equal(want) {
		t.Errorf("pnl = %s, want %s", pnl, want)
	}
}

func TestUpdateMark(t *testing.T) {
	t.Parallel()
	tr := NewTracker(types.Market{Direction: types.Linear})
	tr.ApplyTrade(types.Transaction{Price: dec("100"), Size: dec("1"), Side: types.Buy})
	tr.UpdateMark(dec("120"))

	perf := tr.Snapshot().Performance
	if perf == nil {
		t.Fatal("expected performance to be set")
	}
	if !perf.PnL.Equal(dec("20")) {
		t.Errorf("PnL = %s, want 20", perf.PnL)
	}
}
