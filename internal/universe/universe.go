package universe

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ll101/project-algo-trading/internal/store"
	"github.com/ll101/project-algo-trading/pkg/httputil"
	"github.com/ll101/project-algo-trading/pkg/logger"
)

// DefaultSourceURL is the Wikipedia page listing Nasdaq-100 constituents
const DefaultSourceURL = "https://en.wikipedia.org/wiki/Nasdaq-100"

// Constituent is one index member
type Constituent struct {
	Symbol  string
	Company string
}

// Fetcher scrapes the Nasdaq-100 constituent table and loads it into the
// stock dimension table.
type Fetcher struct {
	httpClient *httputil.Client
	stocks     *store.Stocks
	logger     *logger.Logger
	sourceURL  string
}

// NewFetcher creates a universe fetcher
func NewFetcher(httpClient *httputil.Client, stocks *store.Stocks, log *logger.Logger) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		stocks:     stocks,
		logger:     log.WithField("component", "universe"),
		sourceURL:  DefaultSourceURL,
	}
}

// WithSourceURL overrides the scrape target, used in tests
func (f *Fetcher) WithSourceURL(url string) *Fetcher {
	f.sourceURL = url
	return f
}

// Fetch downloads and parses the constituent table
func (f *Fetcher) Fetch(ctx context.Context) ([]Constituent, error) {
	resp, err := f.httpClient.Get(ctx, f.sourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch universe page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("universe page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read universe page: %w", err)
	}

	constituents, err := parseConstituents(string(body))
	if err != nil {
		return nil, err
	}

	f.logger.WithField("count", len(constituents)).Info("Fetched index constituents")
	return constituents, nil
}

// Load fetches the constituents and upserts them into the stock table,
// returning symbol to stock id.
func (f *Fetcher) Load(ctx context.Context) (map[string]int, error) {
	constituents, err := f.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	stocks := make([]store.Stock, 0, len(constituents))
	for _, c := range constituents {
		stocks = append(stocks, store.Stock{Symbol: c.Symbol, CompanyName: c.Company})
	}

	ids, err := f.stocks.UpsertMany(ctx, stocks)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert universe: %w", err)
	}

	f.logger.WithField("count", len(ids)).Info("Loaded universe into stock table")
	return ids, nil
}

// parseConstituents extracts the constituent table from the page HTML.
// The table layout has shifted over the years, so the ticker and company
// columns are located by header text instead of position.
func parseConstituents(html string) ([]Constituent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse universe page: %w", err)
	}

	table := doc.Find("table#constituents")
	if table.Length() == 0 {
		// Fall back to the first sortable wikitable
		table = doc.Find("table.wikitable.sortable").First()
	}
	if table.Length() == 0 {
		return nil, fmt.Errorf("constituent table not found")
	}

	tickerCol, companyCol := -1, -1
	table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
		header := strings.ToLower(strings.TrimSpace(th.Text()))
		switch {
		case strings.Contains(header, "ticker") || strings.Contains(header, "symbol"):
			tickerCol = i
		case strings.Contains(header, "company"):
			companyCol = i
		}
	})
	if tickerCol < 0 || companyCol < 0 {
		return nil, fmt.Errorf("constituent table headers not recognized")
	}

	var constituents []Constituent
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := tr.Find("td")
		if cells.Length() <= tickerCol || cells.Length() <= companyCol {
			return
		}

		symbol := strings.TrimSpace(cells.Eq(tickerCol).Text())
		company := strings.TrimSpace(cells.Eq(companyCol).Text())
		if symbol == "" || company == "" {
			return
		}

		constituents = append(constituents, Constituent{
			Symbol:  symbol,
			Company: company,
		})
	})

	if len(constituents) == 0 {
		return nil, fmt.Errorf("constituent table was empty")
	}

	return constituents, nil
}
