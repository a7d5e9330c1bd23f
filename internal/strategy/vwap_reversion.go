package strategy

import (
	"math"

	"github.com/ll101/project-algo-trading/internal/ohlcv"
)

// VWAPReversion trades mean reversion against the cumulative VWAP: buy when
// price sinks more than the configured deviation below it, close once price
// is back at or above it.
type VWAPReversion struct {
	params VWAPReversionParams
	close  []float64
	vwap   []float64
}

// NewVWAPReversion creates the strategy with validated params
func NewVWAPReversion(params VWAPReversionParams) (*VWAPReversion, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &VWAPReversion{params: params}, nil
}

func (s *VWAPReversion) Init(series *ohlcv.Series) error {
	vwap, err := VWAP(series.High, series.Low, series.Close, series.Volume)
	if err != nil {
		return err
	}
	s.close = series.Close
	s.vwap = vwap
	return nil
}

func (s *VWAPReversion) Next(i int) Signal {
	price := s.close[i]
	vwap := s.vwap[i]
	if vwap <= 0 || math.IsNaN(price) || math.IsInf(vwap, 0) || math.IsNaN(vwap) {
		return SignalHold
	}
	deviation := (price - vwap) / vwap
	if deviation < -s.params.DeviationPct {
		return SignalBuy
	}
	if deviation >= 0 {
		return SignalClose
	}
	return SignalHold
}
