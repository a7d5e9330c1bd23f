package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ll101/project-algo-trading/pkg/logger"
)

// Schema manages DDL for the trading schema and its TimescaleDB hypertables
type Schema struct {
	pool   *pgxpool.Pool
	name   string
	logger *logger.Logger
}

// NewSchema creates a schema manager for the given schema name
func NewSchema(pool *pgxpool.Pool, name string, log *logger.Logger) *Schema {
	return &Schema{
		pool:   pool,
		name:   name,
		logger: log.WithField("component", "schema"),
	}
}

// Initialize creates the schema, enables the timescaledb extension, creates all
// tables and converts the fact tables to hypertables. Every statement is
// idempotent so Initialize can be re-run safely.
func (s *Schema) Initialize(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"create schema", s.createSchema},
		{"enable timescaledb extension", s.enableTimescale},
		{"create stock table", s.createStockTable},
		{"create bars table", s.createBarsTable},
		{"create quotes table", s.createQuotesTable},
		{"create trades table", s.createTradesTable},
		{"create bars hypertable", func(ctx context.Context) error {
			return s.createHypertable(ctx, "bars", "INTERVAL '6 hours'")
		}},
		{"create quotes hypertable", func(ctx context.Context) error {
			return s.createHypertable(ctx, "quotes", "INTERVAL '1 day'")
		}},
		{"create trades hypertable", func(ctx context.Context) error {
			return s.createHypertable(ctx, "trades", "INTERVAL '1 day'")
		}},
	}

	for _, step := range steps {
		s.logger.WithField("step", step.name).Debug("Running schema step")
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("schema step %q failed: %w", step.name, err)
		}
	}

	s.logger.Info("Database schema initialized")
	return nil
}

func (s *Schema) createSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", s.name))
	return err
}

func (s *Schema) enableTimescale(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb")
	return err
}

func (s *Schema) createStockTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.stock (
			id SERIAL PRIMARY KEY,
			symbol TEXT NOT NULL UNIQUE,
			company_name TEXT NOT NULL
		)`, s.name))
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_stock_id ON %s.stock (id)", s.name))
	return err
}

func (s *Schema) createBarsTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.bars (
			stock_id INTEGER NOT NULL,
			time TIMESTAMPTZ NOT NULL,
			open NUMERIC(18, 4) NOT NULL,
			high NUMERIC(18, 4) NOT NULL,
			low NUMERIC(18, 4) NOT NULL,
			close NUMERIC(18, 4) NOT NULL,
			volume BIGINT NOT NULL,
			vwap NUMERIC(18, 4),
			PRIMARY KEY (time, stock_id),
			FOREIGN KEY (stock_id) REFERENCES %s.stock(id) ON DELETE CASCADE
		)`, s.name, s.name))
	if err != nil {
		return err
	}

	for _, stmt := range []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_bars_stock_id ON %s.bars (stock_id)", s.name),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_bars_time_stock_id ON %s.bars (time DESC, stock_id)", s.name),
	} {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) createQuotesTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.quotes (
			id SERIAL,
			stock_id INTEGER NOT NULL,
			time TIMESTAMPTZ NOT NULL,
			bid_price NUMERIC(18, 4) NOT NULL,
			bid_size INTEGER NOT NULL,
			bid_exchange VARCHAR(1),
			ask_price NUMERIC(18, 4) NOT NULL,
			ask_size INTEGER NOT NULL,
			ask_exchange VARCHAR(1),
			conditions TEXT[],
			tape VARCHAR(1),
			PRIMARY KEY (time, stock_id, id),
			FOREIGN KEY (stock_id) REFERENCES %s.stock(id) ON DELETE CASCADE,
			UNIQUE (time, stock_id, bid_price, bid_size, ask_price, ask_size, bid_exchange, ask_exchange, tape)
		)`, s.name, s.name))
	if err != nil {
		return err
	}

	for _, stmt := range []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_quotes_stock_id ON %s.quotes (stock_id)", s.name),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_quotes_time_stock_id ON %s.quotes (time DESC, stock_id)", s.name),
	} {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) createTradesTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.trades (
			stock_id INTEGER NOT NULL,
			trade_id BIGINT NOT NULL,
			time TIMESTAMPTZ NOT NULL,
			price NUMERIC(18, 4) NOT NULL,
			size INTEGER NOT NULL,
			conditions TEXT[],
			exchange VARCHAR(1),
			tape VARCHAR(1),
			PRIMARY KEY (time, stock_id, trade_id),
			FOREIGN KEY (stock_id) REFERENCES %s.stock(id) ON DELETE CASCADE
		)`, s.name, s.name))
	if err != nil {
		return err
	}

	for _, stmt := range []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_trades_stock_id ON %s.trades (stock_id)", s.name),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_trades_time_stock_id ON %s.trades (time DESC, stock_id)", s.name),
	} {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// createHypertable converts a fact table to a hypertable unless it already is one.
// Bars use a 6 hour chunk because minute-scale data is dense; quotes and trades
// default to 1 day.
func (s *Schema) createHypertable(ctx context.Context, table, chunkInterval string) error {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM timescaledb_information.hypertables
		WHERE hypertable_schema = $1 AND hypertable_name = $2`,
		s.name, table,
	).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(`
		SELECT create_hypertable(
			'%s.%s',
			'time',
			chunk_time_interval => %s,
			if_not_exists => TRUE
		)`, s.name, table, chunkInterval))
	return err
}

// Verify checks that the schema, extension, tables and hypertables all exist.
// Returns (true, nil) when the schema is fully set up, otherwise (false, issues).
func (s *Schema) Verify(ctx context.Context) (bool, []string) {
	var issues []string

	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)",
		s.name,
	).Scan(&exists)
	if err != nil {
		return false, []string{fmt.Sprintf("error during verification: %v", err)}
	}
	if !exists {
		issues = append(issues, fmt.Sprintf("schema %q does not exist", s.name))
	}

	err = s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'timescaledb')",
	).Scan(&exists)
	if err != nil {
		return false, []string{fmt.Sprintf("error during verification: %v", err)}
	}
	if !exists {
		issues = append(issues, "timescaledb extension is not enabled")
	}

	for _, table := range []string{"stock", "bars", "quotes", "trades"} {
		err := s.pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = $1 AND table_name = $2
			)`, s.name, table,
		).Scan(&exists)
		if err != nil {
			return false, []string{fmt.Sprintf("error during verification: %v", err)}
		}
		if !exists {
			issues = append(issues, fmt.Sprintf("table %s.%s does not exist", s.name, table))
		}
	}

	// stock is a plain dimension table, only the fact tables are hypertables
	for _, table := range []string{"bars", "quotes", "trades"} {
		err := s.pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM timescaledb_information.hypertables
				WHERE hypertable_schema = $1 AND hypertable_name = $2
			)`, s.name, table,
		).Scan(&exists)
		if err != nil {
			return false, []string{fmt.Sprintf("error during verification: %v", err)}
		}
		if !exists {
			issues = append(issues, fmt.Sprintf("hypertable %s.%s does not exist", s.name, table))
		}
	}

	return len(issues) == 0, issues
}
