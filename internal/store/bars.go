package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Bars is the repository for the minute-scale OHLCV table
type Bars struct {
	pool   *pgxpool.Pool
	schema string
}

// NewBars creates a new bars repository
func NewBars(pool *pgxpool.Pool, schema string) *Bars {
	return &Bars{pool: pool, schema: schema}
}

// InsertBatch inserts bars idempotently inside one transaction. Rows whose
// (time, stock_id) already exists are skipped. Returns the number of rows
// actually inserted, conflicts excluded.
func (r *Bars) InsertBatch(ctx context.Context, bars []Bar) (int64, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s.bars (stock_id, time, open, high, low, close, volume, vwap)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (time, stock_id) DO NOTHING`, r.schema)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(query, b.StockID, b.Time, b.Open, b.High, b.Low, b.Close, b.Volume, b.VWAP)
	}

	results := tx.SendBatch(ctx, batch)
	var inserted int64
	for range bars {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, fmt.Errorf("failed to insert bars: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit bars: %w", err)
	}

	return inserted, nil
}

// LastTimestamp returns the latest bar time for a symbol, or nil when the
// symbol has no bars.
func (r *Bars) LastTimestamp(ctx context.Context, symbol string) (*time.Time, error) {
	var last *time.Time
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT MAX(b.time)
		FROM %s.bars b
		JOIN %s.stock s ON s.id = b.stock_id
		WHERE s.symbol = $1`, r.schema, r.schema),
		symbol,
	).Scan(&last)
	if err != nil {
		return nil, err
	}
	return last, nil
}

// LoadRange returns bars for a symbol in [from, to), ordered by time ascending
func (r *Bars) LoadRange(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT b.stock_id, b.time, b.open, b.high, b.low, b.close, b.volume, b.vwap
		FROM %s.bars b
		JOIN %s.stock s ON s.id = b.stock_id
		WHERE s.symbol = $1 AND b.time >= $2 AND b.time < $3
		ORDER BY b.time ASC`, r.schema, r.schema),
		symbol, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []Bar
	for rows.Next() {
		var b Bar
		if err := rows.Scan(&b.StockID, &b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.VWAP); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Count returns the number of stored bars for a symbol
func (r *Bars) Count(ctx context.Context, symbol string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s.bars b
		JOIN %s.stock s ON s.id = b.stock_id
		WHERE s.symbol = $1`, r.schema, r.schema),
		symbol,
	).Scan(&count)
	return count, err
}
