package universe

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ll101/project-algo-trading/pkg/config"
	"github.com/ll101/project-algo-trading/pkg/httputil"
	"github.com/ll101/project-algo-trading/pkg/logger"
)

const samplePage = `
<html><body>
<table class="wikitable sortable" id="constituents">
<tbody>
<tr><th>Ticker</th><th>Company</th><th>GICS Sector</th></tr>
<tr><td>AAPL</td><td>Apple Inc.</td><td>Information Technology</td></tr>
<tr><td>MSFT</td><td>Microsoft</td><td>Information Technology</td></tr>
<tr><td>NVDA</td><td>Nvidia</td><td>Information Technology</td></tr>
</tbody>
</table>
</body></html>`

const legacyPage = `
<html><body>
<table class="wikitable sortable">
<tbody>
<tr><th>Company</th><th>Symbol</th></tr>
<tr><td>Apple Inc.</td><td>AAPL</td></tr>
<tr><td>Adobe Inc.</td><td>ADBE</td></tr>
</tbody>
</table>
</body></html>`

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func TestParseConstituents(t *testing.T) {
	constituents, err := parseConstituents(samplePage)
	require.NoError(t, err)
	require.Len(t, constituents, 3)

	assert.Equal(t, "AAPL", constituents[0].Symbol)
	assert.Equal(t, "Apple Inc.", constituents[0].Company)
	assert.Equal(t, "NVDA", constituents[2].Symbol)
}

func TestParseConstituentsLegacyColumnOrder(t *testing.T) {
	constituents, err := parseConstituents(legacyPage)
	require.NoError(t, err)
	require.Len(t, constituents, 2)

	assert.Equal(t, "AAPL", constituents[0].Symbol)
	assert.Equal(t, "Apple Inc.", constituents[0].Company)
	assert.Equal(t, "ADBE", constituents[1].Symbol)
}

func TestParseConstituentsNoTable(t *testing.T) {
	_, err := parseConstituents("<html><body><p>nothing here</p></body></html>")
	require.Error(t, err)
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, samplePage)
	}))
	defer server.Close()

	log := testLogger()
	httpClient := httputil.New(&config.Config{}, log).DisableRetry()

	fetcher := NewFetcher(httpClient, nil, log).WithSourceURL(server.URL)
	constituents, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, constituents, 3)
}

func TestFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	log := testLogger()
	httpClient := httputil.New(&config.Config{}, log).DisableRetry()

	fetcher := NewFetcher(httpClient, nil, log).WithSourceURL(server.URL)
	_, err := fetcher.Fetch(context.Background())
	require.Error(t, err)
}
