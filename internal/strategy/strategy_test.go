package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ll101/project-algo-trading/internal/ohlcv"
)

func seriesFromCloses(closes []float64) *ohlcv.Series {
	s := &ohlcv.Series{Symbol: "TEST"}
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	for i, c := range closes {
		s.Times = append(s.Times, start.Add(time.Duration(i)*time.Minute))
		s.Open = append(s.Open, c)
		s.High = append(s.High, c)
		s.Low = append(s.Low, c)
		s.Close = append(s.Close, c)
		s.Volume = append(s.Volume, 100)
	}
	return s
}

func TestNewDispatchesByParamsType(t *testing.T) {
	cases := []struct {
		params Params
		want   interface{}
	}{
		{DefaultMACrossoverParams(), &MACrossover{}},
		{DefaultBollingerParams(), &BollingerReversion{}},
		{DefaultMACDParams(), &MACDCrossover{}},
		{DefaultVWAPReversionParams(), &VWAPReversion{}},
	}
	for _, tc := range cases {
		s, err := New(tc.params)
		require.NoError(t, err)
		assert.IsType(t, tc.want, s)
	}
}

func TestNewRejectsInvalidParams(t *testing.T) {
	_, err := New(MACrossoverParams{ShortWindow: 50, LongWindow: 10, MAType: MASimple})
	assert.Error(t, err)

	_, err = New(MACDParams{FastPeriod: 12, SlowPeriod: 12, SignalPeriod: 9})
	assert.Error(t, err)

	_, err = New(BollingerParams{Period: 0, DevFactor: 2})
	assert.Error(t, err)

	_, err = New(VWAPReversionParams{DeviationPct: 0})
	assert.Error(t, err)
}

func TestMACrossoverGoldenCross(t *testing.T) {
	s, err := NewMACrossover(MACrossoverParams{ShortWindow: 2, LongWindow: 3, MAType: MASimple})
	require.NoError(t, err)

	series := seriesFromCloses([]float64{5, 4, 3, 2, 1, 10, 10})
	require.NoError(t, s.Init(series))

	// SMA2 jumps above SMA3 on the rebound bar
	assert.Equal(t, SignalHold, s.Next(3))
	assert.Equal(t, SignalHold, s.Next(4))
	assert.Equal(t, SignalBuy, s.Next(5))
	assert.Equal(t, SignalHold, s.Next(6))
}

func TestMACrossoverDeathCross(t *testing.T) {
	s, err := NewMACrossover(MACrossoverParams{ShortWindow: 2, LongWindow: 3, MAType: MASimple})
	require.NoError(t, err)

	series := seriesFromCloses([]float64{1, 2, 3, 4, 5, 1, 1})
	require.NoError(t, s.Init(series))

	assert.Equal(t, SignalHold, s.Next(4))
	assert.Equal(t, SignalClose, s.Next(5))
}

func TestMACrossoverWarmupHolds(t *testing.T) {
	s, err := NewMACrossover(MACrossoverParams{ShortWindow: 2, LongWindow: 3, MAType: MAExponential})
	require.NoError(t, err)

	series := seriesFromCloses([]float64{1, 2, 3, 4})
	require.NoError(t, s.Init(series))

	assert.Equal(t, SignalHold, s.Next(0))
	assert.Equal(t, SignalHold, s.Next(1))
	assert.Equal(t, SignalHold, s.Next(2))
}

func TestBollingerReversionEntryAndExit(t *testing.T) {
	s, err := NewBollingerReversion(BollingerParams{Period: 3, DevFactor: 1})
	require.NoError(t, err)

	series := seriesFromCloses([]float64{10, 10, 10, 5, 12})
	require.NoError(t, s.Init(series))

	// Warmup region
	assert.Equal(t, SignalHold, s.Next(0))
	assert.Equal(t, SignalHold, s.Next(1))
	// Drop through the lower band
	assert.Equal(t, SignalBuy, s.Next(3))
	// Recovery past the middle band
	assert.Equal(t, SignalClose, s.Next(4))
}

func TestMACDCrossoverSignalsOnTrendFlip(t *testing.T) {
	s, err := NewMACDCrossover(MACDParams{FastPeriod: 3, SlowPeriod: 6, SignalPeriod: 3})
	require.NoError(t, err)

	closes := make([]float64, 0, 30)
	for i := 0; i < 15; i++ {
		closes = append(closes, 100-float64(i))
	}
	for i := 0; i < 15; i++ {
		closes = append(closes, 86+2*float64(i))
	}
	series := seriesFromCloses(closes)
	require.NoError(t, s.Init(series))

	var sawBuy bool
	for i := 0; i < series.Len(); i++ {
		if s.Next(i) == SignalBuy {
			sawBuy = true
		}
	}
	assert.True(t, sawBuy, "trend flip should produce a line/signal cross")
	assert.Equal(t, SignalHold, s.Next(0))
}

func TestVWAPReversionEntryAndExit(t *testing.T) {
	s, err := NewVWAPReversion(VWAPReversionParams{DeviationPct: 0.01})
	require.NoError(t, err)

	series := seriesFromCloses([]float64{10, 10, 10, 8, 10})
	require.NoError(t, s.Init(series))

	// Price well under VWAP
	assert.Equal(t, SignalBuy, s.Next(3))
	// Back at or above VWAP
	assert.Equal(t, SignalClose, s.Next(4))
}
