// Package fetcher pulls daily OHLCV history from the Yahoo Finance chart API.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"gravion/types"
)

// ErrNoData means the source returned an empty or unusable series.
var ErrNoData = errors.New("no chart data returned")

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client is a minimal Yahoo chart API client.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New creates a Client. An empty baseURL selects the public Yahoo endpoint.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailyHistory fetches a symbol's daily bars for a Yahoo range expression
// such as "2d" or "6mo". Bars come back ordered by ascending date.
func (c *Client) DailyHistory(ctx context.Context, symbol, rangeExpr string) ([]types.Bar, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(rangeExpr))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build chart request: %w", err)
	}
	req.Header.Set("User-Agent", "gravion/1.0")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch chart for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch chart for %s: unexpected status %d", symbol, resp.StatusCode)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode chart for %s: %w", symbol, err)
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("chart error for %s: %s", symbol, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	result := payload.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]types.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bar := types.Bar{Date: time.Unix(ts, 0).UTC().Format("2006-01-02")}
		if i < len(quote.Open) {
			bar.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			bar.High = quote.High[i]
		}
		if i < len(quote.Low) {
			bar.Low = quote.Low[i]
		}
		if i < len(quote.Close) {
			bar.Close = quote.Close[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return bars, nil
}

// Quote derives the latest snapshot of a symbol from its last two daily bars.
func (c *Client) Quote(ctx context.Context, symbol string) (types.StockQuote, error) {
	bars, err := c.DailyHistory(ctx, symbol, "5d")
	if err != nil {
		return types.StockQuote{}, err
	}

	var valid []types.Bar
	for _, b := range bars {
		if b.HasClose() {
			valid = append(valid, b)
		}
	}
	if len(valid) == 0 {
		return types.StockQuote{}, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	last := valid[len(valid)-1]
	q := types.StockQuote{
		Symbol:      symbol,
		Name:        symbol,
		Price:       *last.Close,
		Close:       *last.Close,
		Volume:      last.Volume,
		LastFetched: time.Now().UTC(),
	}
	if last.Open != nil {
		q.Open = *last.Open
	}
	if last.High != nil {
		q.High = *last.High
	}
	if last.Low != nil {
		q.Low = *last.Low
	}
	if len(valid) >= 2 {
		prev := *valid[len(valid)-2].Close
		if prev != 0 {
			q.ChangePercent = round2((*last.Close - prev) / prev * 100)
		}
	}
	return q, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
