package limitbook

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

func makerOrder(id string, side types.Side, price string) *types.Order {
	p := dec(price)
	return &types.Order{
		ID:         id,
		Parameters: types.OrderParameters{Side: side, Price: &p, Actor: types.Maker},
	}
}

func TestAddRemoveOrder(t *testing.T) {
	t.Parallel()
	b := New()
	o := makerOrder("o1", types.Buy, "100")
	b.AddOrder(o)

	bid, _, ok := b.BestBidAsk()
	_ = bid
	if ok {
		t.Fatal("BestBidAsk should be false with no asks yet")
	}

	b.AddOrder(makerOrder("o2", types.Sell, "101"))
	bid, ask, ok := b.BestBidAsk()
	if !ok || !bid.Equal(dec("100")) || !ask.Equal(dec("101")) {
		t.Fatalf("BestBidAsk = %s/%s/%v", bid, ask, ok)
	}

	b.RemoveOrder(o)
	if _, _, ok := b.BestBidAsk(); ok {
		t.Error("BestBidAsk should be false after removing the only bid")
	}
}

func TestTouchFillsMakersAtOrBetterThanTrade(t *testing.T) {
	t.Parallel()
	b := New()
	b.AddOrder(makerOrder("ask1", types.Sell, "100"))
	b.AddOrder(makerOrder("ask2", types.Sell, "101"))
	b.AddOrder(makerOrder("ask3", types.Sell, "102"))

	trade := types.Transaction{Side: types.Buy, Price: dec("101")}
	result := b.Touch(trade, true)

	if len(result.Filled) != 2 {
		t.Fatalf("expected 2 makers filled (100, 101), got %d", len(result.Filled))
	}

	_, ask, ok := b.BestBidAsk()
	if ok && ask.Equal(dec("100")) {
		t.Error("level 100 should have been removed by touch")
	}
}

func TestTouchPassThroughFalseExcludesEqualPrice(t *testing.T) {
	t.Parallel()
	b := New()
	b.AddOrder(makerOrder("ask1", types.Sell, "100"))
	b.AddOrder(makerOrder("ask2", types.Sell, "101"))

	trade := types.Transaction{Side: types.Buy, Price: dec("100")}
	result := b.Touch(trade, false)

	if len(result.Filled) != 0 {
		t.Fatalf("pass_through=false at exact trade price should fill nothing, got %d", len(result.Filled))
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	t.Parallel()
	b := New()
	b.AddOrder(makerOrder("o1", types.Buy, "100"))
	b.AddOrder(makerOrder("a1", types.Sell, "102"))

	snap := b.Snapshot()
	b.AddOrder(makerOrder("o2", types.Buy, "101"))

	bid, _, ok := snap.BestBidAsk()
	if !ok || !bid.Equal(dec("100")) {
		t.Errorf("snapshot best bid = %s (ok=%v), want 100: later adds must not reach the snapshot", bid, ok)
	}
}
