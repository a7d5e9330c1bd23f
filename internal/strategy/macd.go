package strategy

import (
	"github.com/ll101/project-algo-trading/internal/ohlcv"
)

// MACDCrossover buys when the MACD line crosses above its signal line and
// closes when it crosses back below.
type MACDCrossover struct {
	params MACDParams
	line   []float64
	signal []float64
}

// NewMACDCrossover creates the strategy with validated params
func NewMACDCrossover(params MACDParams) (*MACDCrossover, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &MACDCrossover{params: params}, nil
}

func (s *MACDCrossover) Init(series *ohlcv.Series) error {
	line, signal, _, err := MACD(series.Close, s.params.FastPeriod, s.params.SlowPeriod, s.params.SignalPeriod)
	if err != nil {
		return err
	}
	s.line = line
	s.signal = signal
	return nil
}

func (s *MACDCrossover) Next(i int) Signal {
	if crossAbove(s.line, s.signal, i) {
		return SignalBuy
	}
	if crossAbove(s.signal, s.line, i) {
		return SignalClose
	}
	return SignalHold
}
