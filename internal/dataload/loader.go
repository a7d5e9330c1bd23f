// Package dataload turns stored bars into the column-oriented series the
// backtest stack consumes, with validation and optional resampling on the way.
package dataload

import (
	"context"
	"fmt"
	"time"

	"github.com/ll101/project-algo-trading/internal/ohlcv"
	"github.com/ll101/project-algo-trading/internal/quality"
	"github.com/ll101/project-algo-trading/internal/store"
	"github.com/ll101/project-algo-trading/pkg/logger"
	"github.com/ll101/project-algo-trading/pkg/redis"
)

// Loader reads bars from the store and produces validated series
type Loader struct {
	bars    *store.Bars
	stocks  *store.Stocks
	cache   *redis.Cache
	logger  *logger.Logger
	quality quality.Options
}

// New creates a loader. The cache may be a disabled client, lookups then
// always go to the database.
func New(bars *store.Bars, stocks *store.Stocks, cache *redis.Cache, log *logger.Logger) *Loader {
	return &Loader{
		bars:    bars,
		stocks:  stocks,
		cache:   cache,
		logger:  log.WithField("component", "dataload"),
		quality: quality.DefaultOptions(),
	}
}

// WithQualityOptions overrides the validation thresholds
func (l *Loader) WithQualityOptions(opts quality.Options) *Loader {
	l.quality = opts
	return l
}

// Load reads bars for a symbol in [from, to), optionally resamples them into
// fixed buckets (resample <= 0 keeps the stored resolution), and validates
// the result. The quality report is always returned so the caller decides
// whether to proceed; quality findings are never an error.
func (l *Loader) Load(ctx context.Context, symbol string, from, to time.Time, resample time.Duration) (*ohlcv.Series, *quality.Report, error) {
	if symbol == "" {
		return nil, nil, fmt.Errorf("symbol is required")
	}
	if !from.Before(to) {
		return nil, nil, fmt.Errorf("invalid range: from %s is not before to %s",
			from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	rows, err := l.bars.LoadRange(ctx, symbol, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load bars for %s: %w", symbol, err)
	}

	series := toSeries(symbol, rows)

	if resample > 0 {
		series, err = series.Resample(resample)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resample bars for %s: %w", symbol, err)
		}
	}

	report := quality.Validate(series, l.quality)
	if len(report.Warnings) > 0 {
		l.logger.WithFields(map[string]interface{}{
			"symbol":   symbol,
			"valid":    report.IsValid,
			"warnings": report.Warnings,
		}).Warn("Data quality issues")
	} else {
		l.logger.WithField("symbol", symbol).Debug("Data quality check passed")
	}

	return series, report, nil
}

// AvailableSymbols lists symbols that have stored bars. The result is cached
// for ten minutes because the set changes only when ingestion runs.
func (l *Loader) AvailableSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	err := l.cache.GetOrSet(ctx, redis.AvailableSymbolsKey(), &symbols, redis.TTLMedium,
		func() (interface{}, error) {
			return l.stocks.ListWithBars(ctx)
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list available symbols: %w", err)
	}
	return symbols, nil
}

// SymbolRange returns the stored coverage for one symbol
func (l *Loader) SymbolRange(ctx context.Context, symbol string) (*store.DataRange, error) {
	dr, err := l.stocks.DataRange(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get data range for %s: %w", symbol, err)
	}
	return dr, nil
}

// toSeries converts stored rows into the column-oriented series. Decimal
// prices become float64 here; everything downstream is float math.
func toSeries(symbol string, rows []store.Bar) *ohlcv.Series {
	s := &ohlcv.Series{
		Symbol: symbol,
		Times:  make([]time.Time, 0, len(rows)),
		Open:   make([]float64, 0, len(rows)),
		High:   make([]float64, 0, len(rows)),
		Low:    make([]float64, 0, len(rows)),
		Close:  make([]float64, 0, len(rows)),
		Volume: make([]float64, 0, len(rows)),
	}
	for _, b := range rows {
		s.Times = append(s.Times, b.Time)
		s.Open = append(s.Open, b.Open.InexactFloat64())
		s.High = append(s.High, b.High.InexactFloat64())
		s.Low = append(s.Low, b.Low.InexactFloat64())
		s.Close = append(s.Close, b.Close.InexactFloat64())
		s.Volume = append(s.Volume, float64(b.Volume))
	}
	return s
}
