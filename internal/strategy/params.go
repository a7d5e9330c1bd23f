package strategy

import "fmt"

// Kind names a strategy variant
type Kind string

const (
	KindMACrossover   Kind = "ma_crossover"
	KindBollinger     Kind = "bollinger"
	KindMACD          Kind = "macd"
	KindVWAPReversion Kind = "vwap_reversion"
)

// Params is the typed configuration of one strategy variant
type Params interface {
	Kind() Kind
	Validate() error
}

// MAType selects the moving average flavor for the crossover strategy
type MAType string

const (
	MASimple      MAType = "sma"
	MAExponential MAType = "ema"
)

// MACrossoverParams configures the moving average crossover strategy
type MACrossoverParams struct {
	ShortWindow int    `json:"short_window"`
	LongWindow  int    `json:"long_window"`
	MAType      MAType `json:"ma_type"`
}

// DefaultMACrossoverParams returns the stock configuration
func DefaultMACrossoverParams() MACrossoverParams {
	return MACrossoverParams{ShortWindow: 5, LongWindow: 100, MAType: MAExponential}
}

func (p MACrossoverParams) Kind() Kind { return KindMACrossover }

func (p MACrossoverParams) Validate() error {
	if p.ShortWindow <= 0 || p.LongWindow <= 0 {
		return fmt.Errorf("windows must be positive, got short=%d long=%d", p.ShortWindow, p.LongWindow)
	}
	if p.ShortWindow >= p.LongWindow {
		return fmt.Errorf("short window (%d) must be less than long window (%d)", p.ShortWindow, p.LongWindow)
	}
	if p.MAType != MASimple && p.MAType != MAExponential {
		return fmt.Errorf("ma type must be %q or %q, got %q", MASimple, MAExponential, p.MAType)
	}
	return nil
}

// BollingerParams configures the Bollinger band reversion strategy
type BollingerParams struct {
	Period    int     `json:"period"`
	DevFactor float64 `json:"dev_factor"`
}

// DefaultBollingerParams returns the stock configuration
func DefaultBollingerParams() BollingerParams {
	return BollingerParams{Period: 20, DevFactor: 2.0}
}

func (p BollingerParams) Kind() Kind { return KindBollinger }

func (p BollingerParams) Validate() error {
	if p.Period <= 0 {
		return fmt.Errorf("period must be positive, got %d", p.Period)
	}
	if p.DevFactor <= 0 {
		return fmt.Errorf("dev factor must be positive, got %g", p.DevFactor)
	}
	return nil
}

// MACDParams configures the MACD crossover strategy
type MACDParams struct {
	FastPeriod   int `json:"fast_period"`
	SlowPeriod   int `json:"slow_period"`
	SignalPeriod int `json:"signal_period"`
}

// DefaultMACDParams returns the stock configuration
func DefaultMACDParams() MACDParams {
	return MACDParams{FastPeriod: 12, SlowPeriod: 50, SignalPeriod: 9}
}

func (p MACDParams) Kind() Kind { return KindMACD }

func (p MACDParams) Validate() error {
	if p.FastPeriod <= 0 || p.SlowPeriod <= 0 || p.SignalPeriod <= 0 {
		return fmt.Errorf("periods must be positive, got fast=%d slow=%d signal=%d", p.FastPeriod, p.SlowPeriod, p.SignalPeriod)
	}
	if p.FastPeriod >= p.SlowPeriod {
		return fmt.Errorf("fast period (%d) must be less than slow period (%d)", p.FastPeriod, p.SlowPeriod)
	}
	return nil
}

// VWAPReversionParams configures the VWAP mean reversion strategy
type VWAPReversionParams struct {
	DeviationPct float64 `json:"deviation_pct"`
}

// DefaultVWAPReversionParams returns the stock configuration
func DefaultVWAPReversionParams() VWAPReversionParams {
	return VWAPReversionParams{DeviationPct: 0.01}
}

func (p VWAPReversionParams) Kind() Kind { return KindVWAPReversion }

func (p VWAPReversionParams) Validate() error {
	if p.DeviationPct <= 0 {
		return fmt.Errorf("deviation pct must be positive, got %g", p.DeviationPct)
	}
	return nil
}
