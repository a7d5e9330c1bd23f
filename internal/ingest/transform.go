package ingest

import (
	"github.com/shopspring/decimal"

	"github.com/ll101/project-algo-trading/internal/marketdata"
	"github.com/ll101/project-algo-trading/internal/store"
)

// barToRow maps a fetched bar onto the storage shape. The provider's
// trade_count field never reaches this layer; the wire type drops it.
func barToRow(b marketdata.Bar, stockID int) store.Bar {
	row := store.Bar{
		StockID: stockID,
		Time:    b.Timestamp,
		Open:    b.Open,
		High:    b.High,
		Low:     b.Low,
		Close:   b.Close,
		Volume:  b.Volume,
	}
	if b.VWAP != nil {
		row.VWAP = decimal.NullDecimal{Decimal: *b.VWAP, Valid: true}
	}
	return row
}

func quoteToRow(q marketdata.Quote, stockID int) store.Quote {
	row := store.Quote{
		StockID:    stockID,
		Time:       q.Timestamp,
		BidPrice:   q.BidPrice,
		BidSize:    q.BidSize,
		AskPrice:   q.AskPrice,
		AskSize:    q.AskSize,
		Conditions: q.Conditions,
	}
	if q.BidExchange != "" {
		row.BidExchange = &q.BidExchange
	}
	if q.AskExchange != "" {
		row.AskExchange = &q.AskExchange
	}
	if q.Tape != "" {
		row.Tape = &q.Tape
	}
	if row.Conditions == nil {
		row.Conditions = []string{}
	}
	return row
}

func tradeToRow(t marketdata.Trade, stockID int) store.Trade {
	row := store.Trade{
		StockID:    stockID,
		TradeID:    t.TradeID,
		Time:       t.Timestamp,
		Price:      t.Price,
		Size:       t.Size,
		Conditions: t.Conditions,
	}
	if t.Exchange != "" {
		row.Exchange = &t.Exchange
	}
	if t.Tape != "" {
		row.Tape = &t.Tape
	}
	if row.Conditions == nil {
		row.Conditions = []string{}
	}
	return row
}
