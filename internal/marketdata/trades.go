package marketdata

import (
	"context"
	"fmt"
	"time"
)

// GetTrades fetches all trades for a symbol in [start, end], following
// pagination until exhausted.
func (c *Client) GetTrades(ctx context.Context, symbol string, start, end time.Time) ([]Trade, error) {
	params := c.baseParams(start, end)
	path := fmt.Sprintf("/v2/stocks/%s/trades", symbol)

	var all []Trade
	for {
		var page tradesResponse
		if err := c.get(ctx, path, params, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch trades for %s: %w", symbol, err)
		}

		all = append(all, page.Trades...)

		if page.NextPageToken == nil || *page.NextPageToken == "" {
			break
		}
		params.Set("page_token", *page.NextPageToken)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"trades": len(all),
	}).Debug("Fetched trades")

	return all, nil
}
