package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ll101/project-algo-trading/internal/marketdata"
	"github.com/ll101/project-algo-trading/internal/store"
	"github.com/ll101/project-algo-trading/pkg/config"
	"github.com/ll101/project-algo-trading/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

type fakeFetcher struct {
	bars      []marketdata.Bar
	barCalls  []time.Time
	barErr    error
	quotes    []marketdata.Quote
	trades    []marketdata.Trade
	fetchErrs map[string]error
}

func (f *fakeFetcher) GetBars(ctx context.Context, symbol string, start, end time.Time, timeframe string) ([]marketdata.Bar, error) {
	f.barCalls = append(f.barCalls, start)
	if f.barErr != nil {
		return nil, f.barErr
	}
	if err, ok := f.fetchErrs[symbol]; ok {
		return nil, err
	}
	return f.bars, nil
}

func (f *fakeFetcher) GetQuotes(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.Quote, error) {
	return f.quotes, nil
}

func (f *fakeFetcher) GetTrades(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.Trade, error) {
	return f.trades, nil
}

type fakeStocks struct{ id int }

func (f *fakeStocks) GetOrCreate(ctx context.Context, symbol, companyName string) (int, error) {
	return f.id, nil
}

type fakeBars struct {
	last     *time.Time
	inserted [][]store.Bar
}

func (f *fakeBars) InsertBatch(ctx context.Context, bars []store.Bar) (int64, error) {
	f.inserted = append(f.inserted, bars)
	return int64(len(bars)), nil
}

func (f *fakeBars) LastTimestamp(ctx context.Context, symbol string) (*time.Time, error) {
	return f.last, nil
}

type fakeQuotes struct {
	last *time.Time
	rows []store.Quote
}

func (f *fakeQuotes) InsertBatch(ctx context.Context, quotes []store.Quote) (int64, error) {
	f.rows = append(f.rows, quotes...)
	return int64(len(quotes)), nil
}

func (f *fakeQuotes) LastTimestamp(ctx context.Context, symbol string) (*time.Time, error) {
	return f.last, nil
}

type fakeTrades struct {
	last *time.Time
	rows []store.Trade
}

func (f *fakeTrades) InsertBatch(ctx context.Context, trades []store.Trade) (int64, error) {
	f.rows = append(f.rows, trades...)
	return int64(len(trades)), nil
}

func (f *fakeTrades) LastTimestamp(ctx context.Context, symbol string) (*time.Time, error) {
	return f.last, nil
}

func testPipeline(fetcher Fetcher, bars *fakeBars, quotes *fakeQuotes, trades *fakeTrades) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		stocks:    &fakeStocks{id: 7},
		bars:      bars,
		quotes:    quotes,
		trades:    trades,
		logger:    testLogger(),
		tolerance: DefaultSkipTolerance,
	}
}

func TestEffectiveStart(t *testing.T) {
	requested := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	t.Run("no prior data", func(t *testing.T) {
		got := effectiveStart(nil, requested)
		assert.True(t, got.Equal(requested))
	})

	t.Run("tail before requested start", func(t *testing.T) {
		last := requested.Add(-48 * time.Hour)
		got := effectiveStart(&last, requested)
		assert.True(t, got.Equal(requested), "historical holes are not backfilled")
	})

	t.Run("tail at requested start", func(t *testing.T) {
		last := requested
		got := effectiveStart(&last, requested)
		assert.True(t, got.Equal(requested.Add(time.Minute)))
	})

	t.Run("tail after requested start", func(t *testing.T) {
		last := requested.Add(3 * time.Hour)
		got := effectiveStart(&last, requested)
		assert.True(t, got.Equal(last.Add(time.Minute)))
	})
}

func TestShouldSkip(t *testing.T) {
	end := time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC)
	tolerance := 60 * time.Minute

	t.Run("no prior data", func(t *testing.T) {
		assert.False(t, shouldSkip(nil, end, tolerance))
	})

	t.Run("tail exactly at tolerance boundary", func(t *testing.T) {
		last := end.Add(-60 * time.Minute)
		assert.True(t, shouldSkip(&last, end, tolerance), "boundary is inclusive")
	})

	t.Run("tail just outside tolerance", func(t *testing.T) {
		last := end.Add(-61 * time.Minute)
		assert.False(t, shouldSkip(&last, end, tolerance))
	})

	t.Run("tail after requested end", func(t *testing.T) {
		last := end.Add(10 * time.Minute)
		assert.True(t, shouldSkip(&last, end, tolerance))
	})
}

func TestIngestBarsFreshSymbol(t *testing.T) {
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)

	vw := decimal.NewFromFloat(100.2)
	fetcher := &fakeFetcher{
		bars: []marketdata.Bar{
			{Timestamp: start, Open: decimal.NewFromInt(100), High: decimal.NewFromInt(101), Low: decimal.NewFromInt(99), Close: decimal.NewFromInt(100), Volume: 500, VWAP: &vw},
			{Timestamp: start.Add(time.Minute), Open: decimal.NewFromInt(100), High: decimal.NewFromInt(102), Low: decimal.NewFromInt(100), Close: decimal.NewFromInt(101), Volume: 300},
		},
	}
	bars := &fakeBars{}
	p := testPipeline(fetcher, bars, &fakeQuotes{}, &fakeTrades{})

	inserted, skipped, err := p.IngestBars(context.Background(), "AAPL", start, end)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Equal(t, int64(2), inserted)

	// No stored tail, fetch begins at the requested start
	require.Len(t, fetcher.barCalls, 1)
	assert.True(t, fetcher.barCalls[0].Equal(start))

	require.Len(t, bars.inserted, 1)
	row := bars.inserted[0][0]
	assert.Equal(t, 7, row.StockID)
	assert.True(t, row.VWAP.Valid)
	assert.False(t, bars.inserted[0][1].VWAP.Valid)
}

func TestIngestBarsResumesAfterTail(t *testing.T) {
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	last := start.Add(4 * time.Hour)

	fetcher := &fakeFetcher{}
	bars := &fakeBars{last: &last}
	p := testPipeline(fetcher, bars, &fakeQuotes{}, &fakeTrades{})

	_, skipped, err := p.IngestBars(context.Background(), "AAPL", start, end)
	require.NoError(t, err)
	assert.False(t, skipped)

	require.Len(t, fetcher.barCalls, 1)
	assert.True(t, fetcher.barCalls[0].Equal(last.Add(time.Minute)))
}

func TestIngestBarsSkipsUpToDateSymbol(t *testing.T) {
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	last := end.Add(-30 * time.Minute)

	fetcher := &fakeFetcher{}
	bars := &fakeBars{last: &last}
	p := testPipeline(fetcher, bars, &fakeQuotes{}, &fakeTrades{})

	inserted, skipped, err := p.IngestBars(context.Background(), "AAPL", start, end)
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Zero(t, inserted)
	assert.Empty(t, fetcher.barCalls, "skipped symbols must not hit the API")
}

func TestIngestBarsNoopWhenEffectiveStartReachesEnd(t *testing.T) {
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	// Tail one minute before the end: not close enough to skip under a tiny
	// tolerance, but resuming one minute past it leaves nothing to fetch.
	last := end.Add(-time.Minute)

	fetcher := &fakeFetcher{}
	bars := &fakeBars{last: &last}
	p := &Pipeline{
		fetcher:   fetcher,
		stocks:    &fakeStocks{id: 7},
		bars:      bars,
		logger:    testLogger(),
		tolerance: time.Nanosecond,
	}

	inserted, skipped, err := p.IngestBars(context.Background(), "AAPL", start, end)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Zero(t, inserted)
	assert.Empty(t, fetcher.barCalls)
}

func TestIngestQuotesAndTradesTransform(t *testing.T) {
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	fetcher := &fakeFetcher{
		quotes: []marketdata.Quote{
			{Timestamp: start, AskExchange: "V", AskPrice: decimal.NewFromFloat(100.05), AskSize: 2, BidExchange: "N", BidPrice: decimal.NewFromFloat(99.95), BidSize: 1, Tape: "A"},
		},
		trades: []marketdata.Trade{
			{Timestamp: start, TradeID: 42, Price: decimal.NewFromFloat(100.0), Size: 10, Exchange: "V", Tape: "A"},
		},
	}
	quotes := &fakeQuotes{}
	trades := &fakeTrades{}
	p := testPipeline(fetcher, &fakeBars{}, quotes, trades)

	inserted, skipped, err := p.IngestQuotes(context.Background(), "AAPL", start, end)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Equal(t, int64(1), inserted)

	require.Len(t, quotes.rows, 1)
	q := quotes.rows[0]
	assert.Equal(t, 7, q.StockID)
	require.NotNil(t, q.AskExchange)
	assert.Equal(t, "V", *q.AskExchange)
	assert.NotNil(t, q.Conditions, "conditions default to an empty list")

	inserted, _, err = p.IngestTrades(context.Background(), "AAPL", start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted)
	assert.Equal(t, int64(42), trades.rows[0].TradeID)
}

func TestRunnerFailureDoesNotAbortSiblings(t *testing.T) {
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	fetcher := &fakeFetcher{
		bars: []marketdata.Bar{
			{Timestamp: start, Open: decimal.NewFromInt(1), High: decimal.NewFromInt(1), Low: decimal.NewFromInt(1), Close: decimal.NewFromInt(1), Volume: 1},
		},
		fetchErrs: map[string]error{"BAD": errors.New("provider exploded")},
	}
	p := testPipeline(fetcher, &fakeBars{}, &fakeQuotes{}, &fakeTrades{})
	runner := NewRunner(p, testLogger(), 3)

	results := runner.Run(context.Background(), []string{"AAPL", "BAD", "MSFT"}, start, end, DatasetBars)
	require.Len(t, results, 3)

	// Results come back in input order
	assert.Equal(t, "AAPL", results[0].Symbol)
	assert.Equal(t, "BAD", results[1].Symbol)
	assert.Equal(t, "MSFT", results[2].Symbol)

	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Equal(t, StatusFailed, results[1].Status)
	require.Error(t, results[1].Err)
	assert.Equal(t, StatusSuccess, results[2].Status)

	summary := Summarize(results)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, int64(2), summary.Inserted)
}

func TestRunnerUnknownDataset(t *testing.T) {
	p := testPipeline(&fakeFetcher{}, &fakeBars{}, &fakeQuotes{}, &fakeTrades{})
	runner := NewRunner(p, testLogger(), 1)

	results := runner.Run(context.Background(), []string{"AAPL"}, time.Now(), time.Now().Add(time.Hour), Dataset("nope"))
	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
}
