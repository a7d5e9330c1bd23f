package strategy

import (
	"fmt"
	"math"
)

// Indicator functions operate on full price columns and return slices of the
// same length, NaN-padded over the warmup region where the value is not yet
// defined. Inputs with NaN holes produce NaN outputs at the affected indexes.

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA computes a simple moving average over close
func SMA(close []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	out := nanSlice(len(close))
	for i := period - 1; i < len(close); i++ {
		var sum float64
		for j := i - period + 1; j <= i; j++ {
			sum += close[j]
		}
		out[i] = sum / float64(period)
	}
	return out, nil
}

// EMA computes an exponential moving average seeded with the SMA of the first
// period values.
func EMA(close []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	out := nanSlice(len(close))
	if len(close) < period {
		return out, nil
	}

	var seed float64
	for i := 0; i < period; i++ {
		seed += close[i]
	}
	seed /= float64(period)
	out[period-1] = seed

	k := 2.0 / (float64(period) + 1.0)
	prev := seed
	for i := period; i < len(close); i++ {
		prev = close[i]*k + prev*(1-k)
		out[i] = prev
	}
	return out, nil
}

// Bollinger computes the upper, middle and lower bands. The middle band is an
// SMA; the others sit dev population standard deviations away from it.
func Bollinger(close []float64, period int, dev float64) (upper, middle, lower []float64, err error) {
	middle, err = SMA(close, period)
	if err != nil {
		return nil, nil, nil, err
	}
	upper = nanSlice(len(close))
	lower = nanSlice(len(close))
	for i := period - 1; i < len(close); i++ {
		var variance float64
		for j := i - period + 1; j <= i; j++ {
			d := close[j] - middle[i]
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(period))
		upper[i] = middle[i] + dev*sd
		lower[i] = middle[i] - dev*sd
	}
	return upper, middle, lower, nil
}

// MACD computes the MACD line (fast EMA minus slow EMA), a signal line (EMA of
// the MACD line) and their difference as a histogram.
func MACD(close []float64, fast, slow, signalPeriod int) (line, signal, hist []float64, err error) {
	if fast >= slow {
		return nil, nil, nil, fmt.Errorf("fast period (%d) must be less than slow period (%d)", fast, slow)
	}
	if signalPeriod <= 0 {
		return nil, nil, nil, fmt.Errorf("signal period must be positive, got %d", signalPeriod)
	}

	emaFast, err := EMA(close, fast)
	if err != nil {
		return nil, nil, nil, err
	}
	emaSlow, err := EMA(close, slow)
	if err != nil {
		return nil, nil, nil, err
	}

	line = nanSlice(len(close))
	for i := range close {
		line[i] = emaFast[i] - emaSlow[i]
	}

	// Signal line is an EMA over the defined region of the MACD line
	signal = nanSlice(len(close))
	start := slow - 1
	if len(close) >= start+signalPeriod {
		tail, err := EMA(line[start:], signalPeriod)
		if err != nil {
			return nil, nil, nil, err
		}
		copy(signal[start:], tail)
	}

	hist = nanSlice(len(close))
	for i := range close {
		hist[i] = line[i] - signal[i]
	}
	return line, signal, hist, nil
}

// RSI computes the Relative Strength Index with Wilder smoothing
func RSI(close []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	out := nanSlice(len(close))
	if len(close) < period+1 {
		return out, nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := close[i] - close[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(close); i++ {
		change := close[i] - close[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// ATR computes the Average True Range with Wilder smoothing
func ATR(high, low, close []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(high) != len(low) || len(high) != len(close) {
		return nil, fmt.Errorf("high, low and close must have the same length")
	}
	out := nanSlice(len(close))
	if len(close) < period+1 {
		return out, nil
	}

	tr := make([]float64, len(close))
	tr[0] = high[0] - low[0]
	for i := 1; i < len(close); i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	var atr float64
	for i := 1; i <= period; i++ {
		atr += tr[i]
	}
	atr /= float64(period)
	out[period] = atr

	for i := period + 1; i < len(close); i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out[i] = atr
	}
	return out, nil
}

// VWAP computes the cumulative volume weighted average price. Where no volume
// has accumulated yet the typical price stands in.
func VWAP(high, low, close, volume []float64) ([]float64, error) {
	if len(high) != len(low) || len(high) != len(close) || len(high) != len(volume) {
		return nil, fmt.Errorf("high, low, close and volume must have the same length")
	}
	out := make([]float64, len(close))
	var cumTPV, cumVol float64
	for i := range close {
		typical := (high[i] + low[i] + close[i]) / 3.0
		cumTPV += typical * volume[i]
		cumVol += volume[i]
		if cumVol > 0 {
			out[i] = cumTPV / cumVol
		} else {
			out[i] = typical
		}
	}
	return out, nil
}

// crossAbove reports whether a crossed above b between bar i-1 and bar i.
// NaN values on either side never cross.
func crossAbove(a, b []float64, i int) bool {
	if i < 1 {
		return false
	}
	return a[i] > b[i] && a[i-1] <= b[i-1]
}
