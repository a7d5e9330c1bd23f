// Package ingest brings stored market data history up to a requested end
// timestamp without re-fetching ranges already present and without ever
// creating duplicate rows, even under repeated invocation.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/ll101/project-algo-trading/internal/marketdata"
	"github.com/ll101/project-algo-trading/internal/store"
	"github.com/ll101/project-algo-trading/pkg/logger"
)

// Dataset selects which fact table a pipeline call targets
type Dataset string

const (
	DatasetBars   Dataset = "bars"
	DatasetQuotes Dataset = "quotes"
	DatasetTrades Dataset = "trades"
)

// DefaultSkipTolerance is how close to the requested end the stored tail may
// be before a symbol is skipped entirely.
const DefaultSkipTolerance = 60 * time.Minute

// Fetcher is the slice of the market data client the pipeline needs
type Fetcher interface {
	GetBars(ctx context.Context, symbol string, start, end time.Time, timeframe string) ([]marketdata.Bar, error)
	GetQuotes(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.Quote, error)
	GetTrades(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.Trade, error)
}

type stockStore interface {
	GetOrCreate(ctx context.Context, symbol, companyName string) (int, error)
}

type barStore interface {
	InsertBatch(ctx context.Context, bars []store.Bar) (int64, error)
	LastTimestamp(ctx context.Context, symbol string) (*time.Time, error)
}

type quoteStore interface {
	InsertBatch(ctx context.Context, quotes []store.Quote) (int64, error)
	LastTimestamp(ctx context.Context, symbol string) (*time.Time, error)
}

type tradeStore interface {
	InsertBatch(ctx context.Context, trades []store.Trade) (int64, error)
	LastTimestamp(ctx context.Context, symbol string) (*time.Time, error)
}

// Pipeline implements the incremental fetch-then-write flow for one dataset
// at a time.
type Pipeline struct {
	fetcher   Fetcher
	stocks    stockStore
	bars      barStore
	quotes    quoteStore
	trades    tradeStore
	logger    *logger.Logger
	tolerance time.Duration
}

// NewPipeline wires the pipeline. tolerance <= 0 selects the default.
func NewPipeline(fetcher Fetcher, stocks *store.Stocks, bars *store.Bars, quotes *store.Quotes, trades *store.Trades, log *logger.Logger, tolerance time.Duration) *Pipeline {
	if tolerance <= 0 {
		tolerance = DefaultSkipTolerance
	}
	return &Pipeline{
		fetcher:   fetcher,
		stocks:    stocks,
		bars:      bars,
		quotes:    quotes,
		trades:    trades,
		logger:    log.WithField("component", "ingest"),
		tolerance: tolerance,
	}
}

// lastTimestamp returns the stored tail for a symbol in the given dataset
func (p *Pipeline) lastTimestamp(ctx context.Context, symbol string, dataset Dataset) (*time.Time, error) {
	switch dataset {
	case DatasetBars:
		return p.bars.LastTimestamp(ctx, symbol)
	case DatasetQuotes:
		return p.quotes.LastTimestamp(ctx, symbol)
	case DatasetTrades:
		return p.trades.LastTimestamp(ctx, symbol)
	default:
		return nil, fmt.Errorf("unknown dataset %q", dataset)
	}
}

// EffectiveStart computes where fetching should begin for a symbol. With no
// stored data, or a stored tail before the requested start, the requested
// start wins; historical holes are not backfilled here. Otherwise fetching
// resumes one minute after the stored tail.
func (p *Pipeline) EffectiveStart(ctx context.Context, symbol string, requestedStart time.Time, dataset Dataset) (time.Time, error) {
	last, err := p.lastTimestamp(ctx, symbol, dataset)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read last timestamp for %s: %w", symbol, err)
	}
	return effectiveStart(last, requestedStart), nil
}

// ShouldSkip reports whether the stored tail is already within tolerance of
// the requested end. The boundary is inclusive: a tail exactly tolerance
// behind the end still skips.
func (p *Pipeline) ShouldSkip(ctx context.Context, symbol string, requestedEnd time.Time, dataset Dataset) (bool, error) {
	last, err := p.lastTimestamp(ctx, symbol, dataset)
	if err != nil {
		return false, fmt.Errorf("failed to read last timestamp for %s: %w", symbol, err)
	}
	return shouldSkip(last, requestedEnd, p.tolerance), nil
}

func effectiveStart(last *time.Time, requestedStart time.Time) time.Time {
	if last == nil || last.Before(requestedStart) {
		return requestedStart
	}
	return last.Add(time.Minute)
}

func shouldSkip(last *time.Time, requestedEnd time.Time, tolerance time.Duration) bool {
	if last == nil {
		return false
	}
	return requestedEnd.Sub(*last) <= tolerance
}

// IngestBars runs the incremental pipeline for minute bars. Returns the
// number of rows actually inserted and whether the symbol was skipped as
// already up to date.
func (p *Pipeline) IngestBars(ctx context.Context, symbol string, start, end time.Time) (int64, bool, error) {
	skip, err := p.ShouldSkip(ctx, symbol, end, DatasetBars)
	if err != nil {
		return 0, false, err
	}
	if skip {
		p.logger.WithField("symbol", symbol).Info("Bars already up to date, skipping")
		return 0, true, nil
	}

	effStart, err := p.EffectiveStart(ctx, symbol, start, DatasetBars)
	if err != nil {
		return 0, false, err
	}
	if !effStart.Before(end) {
		return 0, false, nil
	}

	// No display name is known at ingest time; empty leaves any stored one alone
	stockID, err := p.stocks.GetOrCreate(ctx, symbol, "")
	if err != nil {
		return 0, false, err
	}

	fetched, err := p.fetcher.GetBars(ctx, symbol, effStart, end, marketdata.TimeframeMinute)
	if err != nil {
		return 0, false, fmt.Errorf("failed to fetch bars for %s: %w", symbol, err)
	}

	rows := make([]store.Bar, 0, len(fetched))
	for _, b := range fetched {
		rows = append(rows, barToRow(b, stockID))
	}

	inserted, err := p.bars.InsertBatch(ctx, rows)
	if err != nil {
		return 0, false, err
	}

	p.logger.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"fetched":  len(fetched),
		"inserted": inserted,
		"start":    effStart,
		"end":      end,
	}).Info("Ingested bars")

	return inserted, false, nil
}

// IngestQuotes runs the incremental pipeline for quotes
func (p *Pipeline) IngestQuotes(ctx context.Context, symbol string, start, end time.Time) (int64, bool, error) {
	skip, err := p.ShouldSkip(ctx, symbol, end, DatasetQuotes)
	if err != nil {
		return 0, false, err
	}
	if skip {
		p.logger.WithField("symbol", symbol).Info("Quotes already up to date, skipping")
		return 0, true, nil
	}

	effStart, err := p.EffectiveStart(ctx, symbol, start, DatasetQuotes)
	if err != nil {
		return 0, false, err
	}
	if !effStart.Before(end) {
		return 0, false, nil
	}

	// No display name is known at ingest time; empty leaves any stored one alone
	stockID, err := p.stocks.GetOrCreate(ctx, symbol, "")
	if err != nil {
		return 0, false, err
	}

	fetched, err := p.fetcher.GetQuotes(ctx, symbol, effStart, end)
	if err != nil {
		return 0, false, fmt.Errorf("failed to fetch quotes for %s: %w", symbol, err)
	}

	rows := make([]store.Quote, 0, len(fetched))
	for _, q := range fetched {
		rows = append(rows, quoteToRow(q, stockID))
	}

	inserted, err := p.quotes.InsertBatch(ctx, rows)
	if err != nil {
		return 0, false, err
	}

	p.logger.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"fetched":  len(fetched),
		"inserted": inserted,
	}).Info("Ingested quotes")

	return inserted, false, nil
}

// IngestTrades runs the incremental pipeline for trades
func (p *Pipeline) IngestTrades(ctx context.Context, symbol string, start, end time.Time) (int64, bool, error) {
	skip, err := p.ShouldSkip(ctx, symbol, end, DatasetTrades)
	if err != nil {
		return 0, false, err
	}
	if skip {
		p.logger.WithField("symbol", symbol).Info("Trades already up to date, skipping")
		return 0, true, nil
	}

	effStart, err := p.EffectiveStart(ctx, symbol, start, DatasetTrades)
	if err != nil {
		return 0, false, err
	}
	if !effStart.Before(end) {
		return 0, false, nil
	}

	// No display name is known at ingest time; empty leaves any stored one alone
	stockID, err := p.stocks.GetOrCreate(ctx, symbol, "")
	if err != nil {
		return 0, false, err
	}

	fetched, err := p.fetcher.GetTrades(ctx, symbol, effStart, end)
	if err != nil {
		return 0, false, fmt.Errorf("failed to fetch trades for %s: %w", symbol, err)
	}

	rows := make([]store.Trade, 0, len(fetched))
	for _, tr := range fetched {
		rows = append(rows, tradeToRow(tr, stockID))
	}

	inserted, err := p.trades.InsertBatch(ctx, rows)
	if err != nil {
		return 0, false, err
	}

	p.logger.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"fetched":  len(fetched),
		"inserted": inserted,
	}).Info("Ingested trades")

	return inserted, false, nil
}

// Ingest dispatches on dataset
func (p *Pipeline) Ingest(ctx context.Context, symbol string, start, end time.Time, dataset Dataset) (int64, bool, error) {
	switch dataset {
	case DatasetBars:
		return p.IngestBars(ctx, symbol, start, end)
	case DatasetQuotes:
		return p.IngestQuotes(ctx, symbol, start, end)
	case DatasetTrades:
		return p.IngestTrades(ctx, symbol, start, end)
	default:
		return 0, false, fmt.Errorf("unknown dataset %q", dataset)
	}
}
