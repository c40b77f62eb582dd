package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestTransactionValueLinear(t *testing.T) {
	t.Parallel()
	tx := Transaction{Price: dec("10"), Size: dec("2"), Side: Buy}
	if got := tx.Value(Linear); !got.Equal(dec("20")) {
		t.Errorf("Value = %s, want 20", got)
	}
}

func TestTransactionValueInverse(t *testing.T) {
	t.Parallel()
	tx := Transaction{Price: dec("50000"), Size: dec("100"), Side: Buy}
	if got := tx.Value(Inverse); !got.Equal(dec("0.002")) {
		t.Errorf("Value = %s, want 0.002", got)
	}
}

func TestTransactionSignedSize(t *testing.T) {
	t.Parallel()
	sell := Transaction{Size: dec("5"), Side: Sell}
	if got := sell.SignedSize(); !got.Equal(dec("-5")) {
		t.Errorf("SignedSize(sell) = %s, want -5", got)
	}
}

func TestNewFee(t *testing.T) {
	t.Parallel()
	fee := NewFee(dec("0.001"), dec("1000"), "USD")
	if !fee.BalanceChange.Equal(dec("-1")) {
		t.Errorf("BalanceChange = %s, want -1", fee.BalanceChange)
	}
}

func TestOrderClone(t *testing.T) {
	t.Parallel()
	price := dec("1.5")
	o := &Order{
		ID:               "o1",
		Parameters:       OrderParameters{Price: &price},
		Cancellation:     &Cancellation{Status: CancelCreated},
		IngestedTradeIDs: map[string]struct{}{"t1": {}},
	}
	cp := o.Clone()
	cp.IngestedTradeIDs["t2"] = struct{}{}
	*cp.Parameters.Price = dec("2.5")

	if _, ok := o.IngestedTradeIDs["t2"]; ok {
		t.Error("mutating clone's trade id set must not affect original")
	}
	if o.Parameters.Price.Equal(dec("2.5")) {
		t.Error("mutating clone's price must not affect original")
	}
}
