package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Trades is the repository for the executed trade table
type Trades struct {
	pool   *pgxpool.Pool
	schema string
}

// NewTrades creates a new trades repository
func NewTrades(pool *pgxpool.Pool, schema string) *Trades {
	return &Trades{pool: pool, schema: schema}
}

// InsertBatch inserts trades idempotently inside one transaction, keyed on
// (time, stock_id, trade_id). Returns rows actually inserted.
func (r *Trades) InsertBatch(ctx context.Context, trades []Trade) (int64, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s.trades (
			stock_id, trade_id, time, price, size, conditions, exchange, tape
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (time, stock_id, trade_id) DO NOTHING`, r.schema)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, t := range trades {
		batch.Queue(query,
			t.StockID, t.TradeID, t.Time, t.Price, t.Size, t.Conditions, t.Exchange, t.Tape)
	}

	results := tx.SendBatch(ctx, batch)
	var inserted int64
	for range trades {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, fmt.Errorf("failed to insert trades: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit trades: %w", err)
	}

	return inserted, nil
}

// LastTimestamp returns the latest trade time for a symbol, or nil when the
// symbol has no trades.
func (r *Trades) LastTimestamp(ctx context.Context, symbol string) (*time.Time, error) {
	var last *time.Time
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT MAX(t.time)
		FROM %s.trades t
		JOIN %s.stock s ON s.id = t.stock_id
		WHERE s.symbol = $1`, r.schema, r.schema),
		symbol,
	).Scan(&last)
	if err != nil {
		return nil, err
	}
	return last, nil
}
