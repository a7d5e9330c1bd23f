// Package ohlcv holds the column-oriented bar series shared by the loader,
// the quality validator, the strategies and the backtest engine.
package ohlcv

import (
	"fmt"
	"math"
	"time"
)

// Series is a time-indexed OHLCV frame. Columns are parallel slices; a
// missing value is represented by NaN.
type Series struct {
	Symbol string
	Times  []time.Time
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// Len returns the number of rows
func (s *Series) Len() int {
	return len(s.Times)
}

// Empty reports whether the series has no rows
func (s *Series) Empty() bool {
	return len(s.Times) == 0
}

// Check verifies that all columns have the same length
func (s *Series) Check() error {
	n := len(s.Times)
	for name, col := range map[string][]float64{
		"Open":   s.Open,
		"High":   s.High,
		"Low":    s.Low,
		"Close":  s.Close,
		"Volume": s.Volume,
	} {
		if len(col) != n {
			return fmt.Errorf("column %s has %d rows, index has %d", name, len(col), n)
		}
	}
	return nil
}

// Resample aggregates the series into fixed buckets: open takes the first
// value, high the max, low the min, close the last, volume the sum. Buckets
// are aligned to the bucket duration in UTC and empty buckets are dropped,
// as are buckets whose aggregated OHLC still contains NaN.
func (s *Series) Resample(bucket time.Duration) (*Series, error) {
	if bucket <= 0 {
		return nil, fmt.Errorf("resample bucket must be positive, got %v", bucket)
	}
	if s.Empty() {
		return &Series{Symbol: s.Symbol}, nil
	}

	out := &Series{Symbol: s.Symbol}

	var (
		cur      time.Time
		started  bool
		o, h, l  float64
		c, v     float64
		haveOpen bool
	)

	flush := func() {
		if !started {
			return
		}
		if math.IsNaN(o) || math.IsNaN(h) || math.IsNaN(l) || math.IsNaN(c) {
			return
		}
		out.Times = append(out.Times, cur)
		out.Open = append(out.Open, o)
		out.High = append(out.High, h)
		out.Low = append(out.Low, l)
		out.Close = append(out.Close, c)
		out.Volume = append(out.Volume, v)
	}

	reset := func(t time.Time) {
		cur = t
		started = true
		haveOpen = false
		o, h, l, c = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		v = 0
	}

	for i := range s.Times {
		b := s.Times[i].UTC().Truncate(bucket)
		if !started || !b.Equal(cur) {
			flush()
			reset(b)
		}

		if !haveOpen && !math.IsNaN(s.Open[i]) {
			o = s.Open[i]
			haveOpen = true
		}
		if !math.IsNaN(s.High[i]) && (math.IsNaN(h) || s.High[i] > h) {
			h = s.High[i]
		}
		if !math.IsNaN(s.Low[i]) && (math.IsNaN(l) || s.Low[i] < l) {
			l = s.Low[i]
		}
		if !math.IsNaN(s.Close[i]) {
			c = s.Close[i]
		}
		if !math.IsNaN(s.Volume[i]) {
			v += s.Volume[i]
		}
	}
	flush()

	return out, nil
}
