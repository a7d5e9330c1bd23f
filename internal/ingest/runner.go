package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/ll101/project-algo-trading/pkg/logger"
)

// Status classifies the outcome for one symbol in a batch run
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result is the per-symbol outcome of a batch run. Failures are data, not
// control flow: one symbol failing never aborts its siblings.
type Result struct {
	Symbol   string
	Status   Status
	Inserted int64
	Err      error
}

// Summary aggregates a batch run
type Summary struct {
	Succeeded int
	Skipped   int
	Failed    int
	Inserted  int64
}

// Summarize folds results into totals
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			s.Succeeded++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
		s.Inserted += r.Inserted
	}
	return s
}

// Runner drives the pipeline across many symbols with a small worker pool
type Runner struct {
	pipeline *Pipeline
	logger   *logger.Logger
	workers  int
}

// NewRunner creates a batch runner. workers <= 0 means sequential.
func NewRunner(pipeline *Pipeline, log *logger.Logger, workers int) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		pipeline: pipeline,
		logger:   log.WithField("component", "ingest-runner"),
		workers:  workers,
	}
}

// Run ingests one dataset for every symbol and returns a result per symbol
// in input order.
func (r *Runner) Run(ctx context.Context, symbols []string, start, end time.Time, dataset Dataset) []Result {
	r.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"dataset": string(dataset),
		"workers": r.workers,
		"from":    start.Format("2006-01-02"),
		"to":      end.Format("2006-01-02"),
	}).Info("Starting batch ingestion")

	results := make([]Result, len(symbols))

	type job struct {
		idx    int
		symbol string
	}

	jobCh := make(chan job, len(symbols))
	var wg sync.WaitGroup

	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				results[j.idx] = r.runOne(ctx, j.symbol, start, end, dataset)
			}
		}()
	}

	for i, symbol := range symbols {
		jobCh <- job{idx: i, symbol: symbol}
	}
	close(jobCh)
	wg.Wait()

	summary := Summarize(results)
	r.logger.WithFields(map[string]interface{}{
		"succeeded": summary.Succeeded,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"inserted":  summary.Inserted,
	}).Info("Batch ingestion completed")

	return results
}

func (r *Runner) runOne(ctx context.Context, symbol string, start, end time.Time, dataset Dataset) Result {
	select {
	case <-ctx.Done():
		return Result{Symbol: symbol, Status: StatusFailed, Err: ctx.Err()}
	default:
	}

	inserted, skipped, err := r.pipeline.Ingest(ctx, symbol, start, end, dataset)
	switch {
	case err != nil:
		r.logger.WithError(err).WithField("symbol", symbol).Error("Symbol ingestion failed")
		return Result{Symbol: symbol, Status: StatusFailed, Err: err}
	case skipped:
		return Result{Symbol: symbol, Status: StatusSkipped}
	default:
		return Result{Symbol: symbol, Status: StatusSuccess, Inserted: inserted}
	}
}
