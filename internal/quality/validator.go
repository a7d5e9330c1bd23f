// Package quality inspects a loaded OHLCV series and produces a structured
// report. The report is computed fresh on every load and never persisted.
package quality

import (
	"fmt"
	"math"
	"time"

	"github.com/ll101/project-algo-trading/internal/ohlcv"
)

// Defaults for Options
const (
	DefaultMaxGap    = 24 * time.Hour
	DefaultMinPoints = 10
)

// Options tunes the validation thresholds
type Options struct {
	MaxGap    time.Duration
	MinPoints int
}

// DefaultOptions returns the standard thresholds
func DefaultOptions() Options {
	return Options{
		MaxGap:    DefaultMaxGap,
		MinPoints: DefaultMinPoints,
	}
}

// Gap is one interval between consecutive rows exceeding MaxGap.
// Start is nil when the gap opens the series.
type Gap struct {
	Start    *time.Time    `json:"start"`
	End      time.Time     `json:"end"`
	Duration time.Duration `json:"duration"`
}

// Report is the validation outcome for one series
type Report struct {
	IsValid             bool           `json:"is_valid"`
	TotalRows           int            `json:"total_rows"`
	MissingValues       map[string]int `json:"missing_values"`
	Gaps                []Gap          `json:"gaps"`
	GapCount            int            `json:"gap_count"`
	DuplicateTimestamps int            `json:"duplicate_timestamps"`
	InvalidOHLC         int            `json:"invalid_ohlc"`
	NonPositiveVolume   int            `json:"non_positive_volume"`
	Warnings            []string       `json:"warnings"`
}

// Validate checks a time-ordered series against the quality rules. Missing
// values, duplicate timestamps, too few rows and broken OHLC ordering
// invalidate the report; gaps and non-positive volume are advisory only
// because market closures and illiquid periods are expected.
func Validate(s *ohlcv.Series, opts Options) *Report {
	if opts.MaxGap <= 0 {
		opts.MaxGap = DefaultMaxGap
	}
	if opts.MinPoints <= 0 {
		opts.MinPoints = DefaultMinPoints
	}

	report := &Report{
		IsValid:       true,
		MissingValues: map[string]int{},
	}

	if s == nil || s.Empty() {
		report.IsValid = false
		report.Warnings = append(report.Warnings, "series is empty")
		return report
	}

	n := s.Len()
	report.TotalRows = n

	// Minimum data points
	if n < opts.MinPoints {
		report.IsValid = false
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("only %d data points, minimum required: %d", n, opts.MinPoints))
	}

	// Missing values per column
	columns := []struct {
		name string
		col  []float64
	}{
		{"Open", s.Open},
		{"High", s.High},
		{"Low", s.Low},
		{"Close", s.Close},
		{"Volume", s.Volume},
	}
	for _, c := range columns {
		missing := 0
		for _, v := range c.col {
			if math.IsNaN(v) {
				missing++
			}
		}
		if missing > 0 {
			report.MissingValues[c.name] = missing
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("missing values in %s: %d", c.name, missing))
			report.IsValid = false
		}
	}

	// Duplicate timestamps: occurrences after the first
	seen := make(map[int64]int, n)
	for _, ts := range s.Times {
		seen[ts.UnixNano()]++
	}
	duplicates := n - len(seen)
	if duplicates > 0 {
		report.DuplicateTimestamps = duplicates
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("duplicate timestamps: %d", duplicates))
		report.IsValid = false
	}

	// Gaps between consecutive rows, advisory only
	for i := 1; i < n; i++ {
		delta := s.Times[i].Sub(s.Times[i-1])
		if delta > opts.MaxGap {
			start := s.Times[i-1]
			report.Gaps = append(report.Gaps, Gap{
				Start:    &start,
				End:      s.Times[i],
				Duration: delta,
			})
		}
	}
	if len(report.Gaps) > 0 {
		report.GapCount = len(report.Gaps)
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("found %d gaps larger than %v", report.GapCount, opts.MaxGap))
	}

	// OHLC ordering
	invalid := 0
	for i := 0; i < n; i++ {
		h, l, o, c := s.High[i], s.Low[i], s.Open[i], s.Close[i]
		if h < l || h < o || h < c || l > o || l > c {
			invalid++
		}
	}
	if invalid > 0 {
		report.InvalidOHLC = invalid
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("invalid OHLC relationships: %d rows", invalid))
		report.IsValid = false
	}

	// Volume sign, advisory only
	badVolume := 0
	for _, v := range s.Volume {
		if !math.IsNaN(v) && v <= 0 {
			badVolume++
		}
	}
	if badVolume > 0 {
		report.NonPositiveVolume = badVolume
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("invalid volume (<=0): %d rows", badVolume))
	}

	return report
}
