package marketdata

import (
	"context"
	"fmt"
	"time"
)

// Timeframe values accepted by GetBars
const (
	TimeframeMinute = "1Min"
	TimeframeHour   = "1Hour"
	TimeframeDay    = "1Day"
)

// GetBars fetches all bars for a symbol in [start, end], following pagination
// until the API stops returning a page token.
func (c *Client) GetBars(ctx context.Context, symbol string, start, end time.Time, timeframe string) ([]Bar, error) {
	if timeframe == "" {
		timeframe = TimeframeMinute
	}

	params := c.baseParams(start, end)
	params.Set("timeframe", timeframe)
	params.Set("adjustment", "raw")

	path := fmt.Sprintf("/v2/stocks/%s/bars", symbol)

	var all []Bar
	for {
		var page barsResponse
		if err := c.get(ctx, path, params, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch bars for %s: %w", symbol, err)
		}

		all = append(all, page.Bars...)

		if page.NextPageToken == nil || *page.NextPageToken == "" {
			break
		}
		params.Set("page_token", *page.NextPageToken)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"bars":   len(all),
	}).Debug("Fetched bars")

	return all, nil
}
