package strategy

import (
	"math"

	"github.com/ll101/project-algo-trading/internal/ohlcv"
)

// BollingerReversion buys when the close touches or pierces the lower band
// and closes the position once price recovers to the middle band.
type BollingerReversion struct {
	params BollingerParams
	close  []float64
	middle []float64
	lower  []float64
}

// NewBollingerReversion creates the strategy with validated params
func NewBollingerReversion(params BollingerParams) (*BollingerReversion, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &BollingerReversion{params: params}, nil
}

func (s *BollingerReversion) Init(series *ohlcv.Series) error {
	_, middle, lower, err := Bollinger(series.Close, s.params.Period, s.params.DevFactor)
	if err != nil {
		return err
	}
	s.close = series.Close
	s.middle = middle
	s.lower = lower
	return nil
}

func (s *BollingerReversion) Next(i int) Signal {
	price := s.close[i]
	if math.IsNaN(price) || math.IsNaN(s.middle[i]) {
		return SignalHold
	}
	if price <= s.lower[i] {
		return SignalBuy
	}
	if price >= s.middle[i] {
		return SignalClose
	}
	return SignalHold
}
