package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/ll101/project-algo-trading/internal/ingest"
	"github.com/ll101/project-algo-trading/internal/store"
	"github.com/ll101/project-algo-trading/pkg/logger"
)

// DefaultIngestLookback is how far back the nightly job asks for bars. The
// pipeline resumes from each symbol's stored tail, so the window only matters
// for symbols that fell far behind.
const DefaultIngestLookback = 7 * 24 * time.Hour

// IngestBarsJob runs the incremental bar ingestion for every stored symbol
type IngestBarsJob struct {
	runner   *ingest.Runner
	stocks   *store.Stocks
	logger   *logger.Logger
	lookback time.Duration
}

// NewIngestBarsJob creates the nightly ingestion job
func NewIngestBarsJob(runner *ingest.Runner, stocks *store.Stocks, log *logger.Logger) *IngestBarsJob {
	return &IngestBarsJob{
		runner:   runner,
		stocks:   stocks,
		logger:   log,
		lookback: DefaultIngestLookback,
	}
}

// Name returns the job name
func (j *IngestBarsJob) Name() string {
	return "ingest_bars"
}

// Schedule runs daily at 01:30 UTC, after the US session settles
func (j *IngestBarsJob) Schedule() string {
	return "0 30 1 * * *"
}

// Run ingests recent bars for every symbol that already has data
func (j *IngestBarsJob) Run(ctx context.Context) error {
	symbols, err := j.stocks.ListWithBars(ctx)
	if err != nil {
		return fmt.Errorf("failed to list symbols: %w", err)
	}
	if len(symbols) == 0 {
		j.logger.Info("No symbols with bars yet, nothing to ingest")
		return nil
	}

	end := time.Now().UTC()
	start := end.Add(-j.lookback)

	results := j.runner.Run(ctx, symbols, start, end, ingest.DatasetBars)
	summary := ingest.Summarize(results)

	j.logger.WithFields(map[string]interface{}{
		"symbols":   len(symbols),
		"succeeded": summary.Succeeded,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"inserted":  summary.Inserted,
	}).Info("Nightly bar ingestion finished")

	if summary.Failed == len(symbols) {
		return fmt.Errorf("bar ingestion failed for all %d symbols", len(symbols))
	}
	return nil
}
