package marketdata

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one OHLCV bar as returned by the data API. Field tags follow the
// wire format, trade_count (n) is intentionally not mapped because the
// storage schema does not carry it.
type Bar struct {
	Timestamp time.Time        `json:"t"`
	Open      decimal.Decimal  `json:"o"`
	High      decimal.Decimal  `json:"h"`
	Low       decimal.Decimal  `json:"l"`
	Close     decimal.Decimal  `json:"c"`
	Volume    int64            `json:"v"`
	VWAP      *decimal.Decimal `json:"vw,omitempty"`
}

// Quote is one NBBO quote as returned by the data API
type Quote struct {
	Timestamp   time.Time       `json:"t"`
	AskExchange string          `json:"ax"`
	AskPrice    decimal.Decimal `json:"ap"`
	AskSize     int             `json:"as"`
	BidExchange string          `json:"bx"`
	BidPrice    decimal.Decimal `json:"bp"`
	BidSize     int             `json:"bs"`
	Conditions  []string        `json:"c"`
	Tape        string          `json:"z"`
}

// Trade is one executed trade as returned by the data API
type Trade struct {
	Timestamp  time.Time       `json:"t"`
	TradeID    int64           `json:"i"`
	Price      decimal.Decimal `json:"p"`
	Size       int             `json:"s"`
	Exchange   string          `json:"x"`
	Conditions []string        `json:"c"`
	Tape       string          `json:"z"`
}

type barsResponse struct {
	Bars          []Bar   `json:"bars"`
	Symbol        string  `json:"symbol"`
	NextPageToken *string `json:"next_page_token"`
}

type quotesResponse struct {
	Quotes        []Quote `json:"quotes"`
	Symbol        string  `json:"symbol"`
	NextPageToken *string `json:"next_page_token"`
}

type tradesResponse struct {
	Trades        []Trade `json:"trades"`
	Symbol        string  `json:"symbol"`
	NextPageToken *string `json:"next_page_token"`
}
