package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Quotes is the repository for the NBBO quote table
type Quotes struct {
	pool   *pgxpool.Pool
	schema string
}

// NewQuotes creates a new quotes repository
func NewQuotes(pool *pgxpool.Pool, schema string) *Quotes {
	return &Quotes{pool: pool, schema: schema}
}

// InsertBatch inserts quotes idempotently inside one transaction. The conflict
// key is the full value tuple because quote streams have no provider id, so an
// identical quote at the same instant is treated as a duplicate. Returns rows
// actually inserted.
func (r *Quotes) InsertBatch(ctx context.Context, quotes []Quote) (int64, error) {
	if len(quotes) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s.quotes (
			stock_id, time, bid_price, bid_size, bid_exchange,
			ask_price, ask_size, ask_exchange, conditions, tape
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (time, stock_id, bid_price, bid_size, ask_price, ask_size,
			bid_exchange, ask_exchange, tape) DO NOTHING`, r.schema)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, q := range quotes {
		batch.Queue(query,
			q.StockID, q.Time, q.BidPrice, q.BidSize, q.BidExchange,
			q.AskPrice, q.AskSize, q.AskExchange, q.Conditions, q.Tape)
	}

	results := tx.SendBatch(ctx, batch)
	var inserted int64
	for range quotes {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, fmt.Errorf("failed to insert quotes: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit quotes: %w", err)
	}

	return inserted, nil
}

// LastTimestamp returns the latest quote time for a symbol, or nil when the
// symbol has no quotes.
func (r *Quotes) LastTimestamp(ctx context.Context, symbol string) (*time.Time, error) {
	var last *time.Time
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT MAX(q.time)
		FROM %s.quotes q
		JOIN %s.stock s ON s.id = q.stock_id
		WHERE s.symbol = $1`, r.schema, r.schema),
		symbol,
	).Scan(&last)
	if err != nil {
		return nil, err
	}
	return last, nil
}
