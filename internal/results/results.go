package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ll101/project-algo-trading/internal/backtest"
	"github.com/ll101/project-algo-trading/internal/strategy"
	"github.com/ll101/project-algo-trading/pkg/logger"
)

// Record is the persisted form of one backtest run
type Record struct {
	RunID       string                 `json:"run_id"`
	Symbol      string                 `json:"symbol"`
	Strategy    strategy.Kind          `json:"strategy"`
	Parameters  json.RawMessage        `json:"parameters"`
	Config      backtest.Config        `json:"config"`
	Metrics     backtest.Stats         `json:"metrics"`
	Timestamp   time.Time              `json:"timestamp"`
	NumTrades   int                    `json:"num_trades"`
	EquityCurve []backtest.EquityPoint `json:"equity_curve"`
}

// DecodeParams reconstructs the typed strategy params from the record
func (r *Record) DecodeParams() (strategy.Params, error) {
	switch r.Strategy {
	case strategy.KindMACrossover:
		var p strategy.MACrossoverParams
		if err := json.Unmarshal(r.Parameters, &p); err != nil {
			return nil, err
		}
		return p, nil
	case strategy.KindBollinger:
		var p strategy.BollingerParams
		if err := json.Unmarshal(r.Parameters, &p); err != nil {
			return nil, err
		}
		return p, nil
	case strategy.KindMACD:
		var p strategy.MACDParams
		if err := json.Unmarshal(r.Parameters, &p); err != nil {
			return nil, err
		}
		return p, nil
	case strategy.KindVWAPReversion:
		var p strategy.VWAPReversionParams
		if err := json.Unmarshal(r.Parameters, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown strategy kind %q", r.Strategy)
	}
}

// Store writes and reads backtest records as JSON files under a results
// directory, optionally grouped per experiment in a subdirectory.
type Store struct {
	dir    string
	logger *logger.Logger
}

// NewStore creates the store, making the results directory if needed
func NewStore(dir string, log *logger.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("results directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: log.WithField("component", "results"),
	}, nil
}

// Save persists one backtest result and returns the file path
func (s *Store) Save(result *backtest.Result, params strategy.Params, experiment string) (string, error) {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode params: %w", err)
	}

	now := time.Now().UTC()
	record := Record{
		RunID:       uuid.NewString(),
		Symbol:      result.Symbol,
		Strategy:    result.Strategy,
		Parameters:  rawParams,
		Config:      result.Config,
		Metrics:     result.Stats,
		Timestamp:   now,
		NumTrades:   len(result.Trades),
		EquityCurve: result.EquityCurve,
	}

	dir := s.dir
	if experiment != "" {
		dir = filepath.Join(s.dir, experiment)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create experiment directory: %w", err)
		}
	}

	filename := fmt.Sprintf("%s_%s_%s.json", result.Symbol, result.Strategy, now.Format("20060102_150405"))
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write result file: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id": record.RunID,
		"path":   path,
	}).Info("Saved backtest result")

	return path, nil
}

// List returns result file paths, most recent name first
func (s *Store) List(experiment string) ([]string, error) {
	dir := s.dir
	if experiment != "" {
		dir = filepath.Join(s.dir, experiment)
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read results directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}

// Load reads one record back
func (s *Store) Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode result file %s: %w", path, err)
	}
	return &record, nil
}

// LoadExperiment reads every record in an experiment. Unreadable files are
// logged and skipped.
func (s *Store) LoadExperiment(experiment string) ([]Record, error) {
	paths, err := s.List(experiment)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(paths))
	for _, path := range paths {
		record, err := s.Load(path)
		if err != nil {
			s.logger.WithError(err).WithField("path", path).Warn("Skipping unreadable result")
			continue
		}
		records = append(records, *record)
	}
	return records, nil
}
