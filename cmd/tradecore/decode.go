package main

import (
	"encoding/json"
	"time"

	"tradecore/internal/wsconn"
	"tradecore/pkg/types"

	"github.com/shopspring/decimal"
)

// wireTrade is the venue's wire shape for a trade frame; decodeTrade
// converts it into the core's types.Trade.
type wireTrade struct {
	ID        string `json:"id"`
	Market    string `json:"market"`
	Timestamp int64  `json:"timestamp"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Side      string `json:"side"`
}

func decodeTrade(msg wsconn.Message) (types.Trade, error) {
	var wt wireTrade
	if err := json.Unmarshal(msg.Payload, &wt); err != nil {
		return types.Trade{}, err
	}
	price, err := decimal.NewFromString(wt.Price)
	if err != nil {
		return types.Trade{}, err
	}
	size, err := decimal.NewFromString(wt.Size)
	if err != nil {
		return types.Trade{}, err
	}
	return types.Trade{
		ID:        wt.ID,
		Market:    wt.Market,
		Timestamp: time.Unix(wt.Timestamp, 0),
		Transaction: types.Transaction{
			Price: price,
			Size:  size,
			Side:  types.Side(wt.Side),
		},
	}, nil
}

// wireOrderbookRow is the venue's wire shape for one orderbook patch row.
type wireOrderbookRow struct {
	Side  string `json:"side"`
	Price string `json:"price"`
	Size  string `json:"size"`
}

func decodeOrderbookRows(msg wsconn.Message) ([]types.OrderbookUpdate, error) {
	var wrs []wireOrderbookRow
	if err := json.Unmarshal(msg.Payload, &wrs); err != nil {
		return nil, err
	}
	rows := make([]types.OrderbookUpdate, len(wrs))
	for i, wr := range wrs {
		price, err := decimal.NewFromString(wr.Price)
		if err != nil {
			return nil, err
		}
		size, err := decimal.NewFromString(wr.Size)
		if err != nil {
			return nil, err
		}
		rows[i] = types.OrderbookUpdate{Side: types.Side(wr.Side), Price: price, Size: size}
	}
	return rows, nil
}
