package strategy

import (
	"fmt"

	"github.com/ll101/project-algo-trading/internal/ohlcv"
)

// MACrossover trades the golden/death cross of two moving averages: buy when
// the short average crosses above the long one, close when it crosses back
// below.
type MACrossover struct {
	params  MACrossoverParams
	maShort []float64
	maLong  []float64
}

// NewMACrossover creates the strategy with validated params
func NewMACrossover(params MACrossoverParams) (*MACrossover, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &MACrossover{params: params}, nil
}

func (s *MACrossover) Init(series *ohlcv.Series) error {
	ma := SMA
	if s.params.MAType == MAExponential {
		ma = EMA
	}

	var err error
	if s.maShort, err = ma(series.Close, s.params.ShortWindow); err != nil {
		return fmt.Errorf("short moving average: %w", err)
	}
	if s.maLong, err = ma(series.Close, s.params.LongWindow); err != nil {
		return fmt.Errorf("long moving average: %w", err)
	}
	return nil
}

func (s *MACrossover) Next(i int) Signal {
	if crossAbove(s.maShort, s.maLong, i) {
		return SignalBuy
	}
	if crossAbove(s.maLong, s.maShort, i) {
		return SignalClose
	}
	return SignalHold
}
