package commands

import (
	"fmt"
	"time"

	"github.com/ll101/project-algo-trading/internal/dataload"
	"github.com/ll101/project-algo-trading/internal/ingest"
	"github.com/ll101/project-algo-trading/internal/marketdata"
	"github.com/ll101/project-algo-trading/internal/store"
	"github.com/ll101/project-algo-trading/internal/universe"
	"github.com/ll101/project-algo-trading/pkg/config"
	"github.com/ll101/project-algo-trading/pkg/database"
	"github.com/ll101/project-algo-trading/pkg/httputil"
	"github.com/ll101/project-algo-trading/pkg/logger"
	"github.com/ll101/project-algo-trading/pkg/redis"
)

// app bundles the shared dependencies commands wire up on demand
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client
	cache *redis.Cache

	stocks *store.Stocks
	bars   *store.Bars
	quotes *store.Quotes
	trades *store.Trades
}

// initApp loads config and the logger. Commands that need storage call
// connectData afterwards.
func initApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &app{cfg: cfg, log: logger.New(cfg)}, nil
}

// connectData opens the database and redis and builds the repositories
func (a *app) connectData() error {
	db, err := database.New(a.cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	a.db = db

	rdb, err := redis.New(a.cfg)
	if err != nil {
		a.log.WithError(err).Warn("Redis unavailable, caching disabled")
		rdb = &redis.Client{}
	}
	a.redis = rdb
	a.cache = redis.NewCache(rdb, "quant")

	schema := a.cfg.Database.Schema
	a.stocks = store.NewStocks(db.Pool, schema)
	a.bars = store.NewBars(db.Pool, schema)
	a.quotes = store.NewQuotes(db.Pool, schema)
	a.trades = store.NewTrades(db.Pool, schema)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

// newRunner wires the Alpaca client into the batch ingestion runner
func (a *app) newRunner(workers int) (*ingest.Runner, error) {
	httpClient := httputil.New(a.cfg, a.log)
	client, err := marketdata.NewClient(a.cfg.Alpaca, httpClient, a.log)
	if err != nil {
		return nil, err
	}

	tolerance := time.Duration(a.cfg.Ingest.SkipToleranceMinutes) * time.Minute
	pipeline := ingest.NewPipeline(client, a.stocks, a.bars, a.quotes, a.trades, a.log, tolerance)

	if workers <= 0 {
		workers = a.cfg.Ingest.Workers
	}
	return ingest.NewRunner(pipeline, a.log, workers), nil
}

// newLoader builds the backtest data loader
func (a *app) newLoader() *dataload.Loader {
	return dataload.New(a.bars, a.stocks, a.cache, a.log)
}

// newUniverseFetcher builds the constituent scraper with polite rate limiting
func (a *app) newUniverseFetcher() *universe.Fetcher {
	httpClient := httputil.New(a.cfg, a.log)
	if a.redis != nil && a.redis.Enabled() {
		limiter := redis.NewRateLimiter(a.redis, "quant")
		httpClient = httpClient.WithRateLimiter(limiter, redis.WikipediaRateLimit)
	}
	return universe.NewFetcher(httpClient, a.stocks, a.log)
}
