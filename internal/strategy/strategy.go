package strategy

import (
	"fmt"

	"github.com/ll101/project-algo-trading/internal/ohlcv"
)

// Signal is a strategy's intent for one bar. The engine owns position state,
// so a Buy while already long or a Close while flat is simply ignored there.
type Signal int

const (
	SignalHold Signal = iota
	SignalBuy
	SignalClose
)

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "buy"
	case SignalClose:
		return "close"
	default:
		return "hold"
	}
}

// Strategy turns a price series into per-bar signals. Init precomputes
// indicator columns; Next reads them at one index. Indicators are NaN over
// their warmup region, which Next treats as hold.
type Strategy interface {
	Init(series *ohlcv.Series) error
	Next(i int) Signal
}

// New builds the strategy a Params value describes, validating it first
func New(params Params) (Strategy, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s params: %w", params.Kind(), err)
	}
	switch p := params.(type) {
	case MACrossoverParams:
		return &MACrossover{params: p}, nil
	case BollingerParams:
		return &BollingerReversion{params: p}, nil
	case MACDParams:
		return &MACDCrossover{params: p}, nil
	case VWAPReversionParams:
		return &VWAPReversion{params: p}, nil
	default:
		return nil, fmt.Errorf("unknown strategy params type %T", params)
	}
}
