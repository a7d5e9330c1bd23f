package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Stocks is the repository for the stock dimension table
type Stocks struct {
	pool   *pgxpool.Pool
	schema string
}

// NewStocks creates a new stock repository
func NewStocks(pool *pgxpool.Pool, schema string) *Stocks {
	return &Stocks{pool: pool, schema: schema}
}

// GetOrCreate returns the id for a symbol, inserting the row if it does not
// exist. A non-empty companyName refreshes a stale stored name, so re-runs
// with a newer display name converge; an empty companyName never overwrites
// an existing one.
func (r *Stocks) GetOrCreate(ctx context.Context, symbol, companyName string) (int, error) {
	var (
		id     int
		stored string
	)

	err := r.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT id, company_name FROM %s.stock WHERE symbol = $1", r.schema),
		symbol,
	).Scan(&id, &stored)
	if err == nil {
		if companyName == "" || companyName == stored {
			return id, nil
		}
		if _, err := r.pool.Exec(ctx,
			fmt.Sprintf("UPDATE %s.stock SET company_name = $1 WHERE id = $2", r.schema),
			companyName, id,
		); err != nil {
			return 0, fmt.Errorf("failed to rename stock %s: %w", symbol, err)
		}
		return id, nil
	}
	if err != pgx.ErrNoRows {
		return 0, fmt.Errorf("failed to look up stock %s: %w", symbol, err)
	}

	if companyName == "" {
		companyName = symbol
	}
	err = r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s.stock (symbol, company_name)
		VALUES ($1, $2)
		ON CONFLICT (symbol) DO UPDATE SET company_name = EXCLUDED.company_name
		RETURNING id`, r.schema),
		symbol, companyName,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create stock %s: %w", symbol, err)
	}

	return id, nil
}

// GetBySymbol returns the stock row for a symbol
func (r *Stocks) GetBySymbol(ctx context.Context, symbol string) (*Stock, error) {
	var s Stock
	err := r.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT id, symbol, company_name FROM %s.stock WHERE symbol = $1", r.schema),
		symbol,
	).Scan(&s.ID, &s.Symbol, &s.CompanyName)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertMany inserts or refreshes a batch of stocks and returns symbol to id
func (r *Stocks) UpsertMany(ctx context.Context, stocks []Stock) (map[string]int, error) {
	ids := make(map[string]int, len(stocks))

	for _, s := range stocks {
		id, err := r.GetOrCreate(ctx, s.Symbol, s.CompanyName)
		if err != nil {
			return nil, err
		}
		ids[s.Symbol] = id
	}

	return ids, nil
}

// List returns all stocks ordered by symbol
func (r *Stocks) List(ctx context.Context) ([]Stock, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf("SELECT id, symbol, company_name FROM %s.stock ORDER BY symbol", r.schema))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stocks []Stock
	for rows.Next() {
		var s Stock
		if err := rows.Scan(&s.ID, &s.Symbol, &s.CompanyName); err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

// ListWithBars returns symbols that have at least one bar stored
func (r *Stocks) ListWithBars(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT DISTINCT s.symbol
		FROM %s.stock s
		JOIN %s.bars b ON b.stock_id = s.id
		ORDER BY s.symbol`, r.schema, r.schema))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// DataRange returns the stored bar coverage for a symbol.
// Returns pgx.ErrNoRows when the symbol has no bars.
func (r *Stocks) DataRange(ctx context.Context, symbol string) (*DataRange, error) {
	var (
		first, last *time.Time
		count       int64
	)
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT MIN(b.time), MAX(b.time), COUNT(*)
		FROM %s.bars b
		JOIN %s.stock s ON s.id = b.stock_id
		WHERE s.symbol = $1`, r.schema, r.schema),
		symbol,
	).Scan(&first, &last, &count)
	if err != nil {
		return nil, err
	}
	if count == 0 || first == nil || last == nil {
		return nil, pgx.ErrNoRows
	}

	return &DataRange{
		Symbol: symbol,
		First:  *first,
		Last:   *last,
		Rows:   count,
	}, nil
}
