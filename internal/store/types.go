package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock is a row in the stock dimension table
type Stock struct {
	ID          int
	Symbol      string
	CompanyName string
}

// Bar is one minute-scale OHLCV row
type Bar struct {
	StockID int
	Time    time.Time
	Open    decimal.Decimal
	High    decimal.Decimal
	Low     decimal.Decimal
	Close   decimal.Decimal
	Volume  int64
	VWAP    decimal.NullDecimal
}

// Quote is one NBBO quote row
type Quote struct {
	StockID     int
	Time        time.Time
	BidPrice    decimal.Decimal
	BidSize     int
	BidExchange *string
	AskPrice    decimal.Decimal
	AskSize     int
	AskExchange *string
	Conditions  []string
	Tape        *string
}

// Trade is one executed trade row
type Trade struct {
	StockID    int
	TradeID    int64
	Time       time.Time
	Price      decimal.Decimal
	Size       int
	Conditions []string
	Exchange   *string
	Tape       *string
}

// DataRange describes stored coverage for one symbol
type DataRange struct {
	Symbol string
	First  time.Time
	Last   time.Time
	Rows   int64
}
