package dataload

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ll101/project-algo-trading/internal/store"
	"github.com/ll101/project-algo-trading/pkg/config"
	"github.com/ll101/project-algo-trading/pkg/logger"
	"github.com/ll101/project-algo-trading/pkg/redis"
)

func testLoader(t *testing.T) *Loader {
	t.Helper()

	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
		Redis:     config.RedisConfig{Enabled: false},
	}
	log := logger.New(cfg)
	client, err := redis.New(cfg)
	require.NoError(t, err)
	cache := redis.NewCache(client, "test")

	return New(nil, nil, cache, log)
}

func TestLoadRejectsBadArguments(t *testing.T) {
	l := testLoader(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, _, err := l.Load(ctx, "", now.Add(-time.Hour), now, 0)
	assert.Error(t, err)

	_, _, err = l.Load(ctx, "AAPL", now, now, 0)
	assert.Error(t, err)

	_, _, err = l.Load(ctx, "AAPL", now, now.Add(-time.Hour), 0)
	assert.Error(t, err)
}

func TestToSeries(t *testing.T) {
	base := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	rows := []store.Bar{
		{
			Time:   base,
			Open:   decimal.NewFromFloat(100.5),
			High:   decimal.NewFromFloat(101.25),
			Low:    decimal.NewFromFloat(100.0),
			Close:  decimal.NewFromFloat(101.0),
			Volume: 1500,
		},
		{
			Time:   base.Add(time.Minute),
			Open:   decimal.NewFromFloat(101.0),
			High:   decimal.NewFromFloat(101.5),
			Low:    decimal.NewFromFloat(100.75),
			Close:  decimal.NewFromFloat(101.4),
			Volume: 900,
		},
	}

	s := toSeries("AAPL", rows)

	require.NoError(t, s.Check())
	require.Equal(t, 2, s.Len())
	assert.Equal(t, "AAPL", s.Symbol)
	assert.Equal(t, 100.5, s.Open[0])
	assert.Equal(t, 101.25, s.High[0])
	assert.Equal(t, 1500.0, s.Volume[0])
	assert.Equal(t, 101.4, s.Close[1])
}

func TestToSeriesEmpty(t *testing.T) {
	s := toSeries("AAPL", nil)
	assert.True(t, s.Empty())
	assert.NoError(t, s.Check())
}
