package marketdata

import (
	"context"
	"fmt"
	"time"
)

// GetQuotes fetches all quotes for a symbol in [start, end], following
// pagination until exhausted. Quote streams are dense, expect many pages for
// wide ranges.
func (c *Client) GetQuotes(ctx context.Context, symbol string, start, end time.Time) ([]Quote, error) {
	params := c.baseParams(start, end)
	path := fmt.Sprintf("/v2/stocks/%s/quotes", symbol)

	var all []Quote
	for {
		var page quotesResponse
		if err := c.get(ctx, path, params, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch quotes for %s: %w", symbol, err)
		}

		all = append(all, page.Quotes...)

		if page.NextPageToken == nil || *page.NextPageToken == "" {
			break
		}
		params.Set("page_token", *page.NextPageToken)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"quotes": len(all),
	}).Debug("Fetched quotes")

	return all, nil
}
