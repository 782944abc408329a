package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/futureeconomy/indices/pkg/config"
	"github.com/futureeconomy/indices/pkg/httputil"
	"github.com/futureeconomy/indices/pkg/logger"
)

// Client handles communication with the Polygon.io reference and
// fundamentals APIs. All Polygon calls go through this client so that
// pacing and retries are applied consistently.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	apiKey     string
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates a new Polygon client. The per-second pacing comes
// from config; retries and backoff are handled by the shared HTTP client.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) (*Client, error) {
	if cfg.Polygon.APIKey == "" {
		return nil, fmt.Errorf("POLYGON_API_KEY is required")
	}

	return &Client{
		httpClient: httpClient,
		logger:     log,
		apiKey:     cfg.Polygon.APIKey,
		baseURL:    cfg.Polygon.BaseURL,
		limiter:    rate.NewLimiter(rate.Limit(cfg.Polygon.RateLimit), 1),
	}, nil
}

// get performs a paced GET against an endpoint and decodes the JSON
// response into dest.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)

	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return fmt.Errorf("polygon request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("polygon returned status %d for %s", resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode polygon response: %w", err)
	}

	return nil
}

// GetTickerDetails returns reference details for one ticker.
func (c *Client) GetTickerDetails(ctx context.Context, ticker string) (*TickerDetails, error) {
	var response tickerDetailsResponse
	endpoint := fmt.Sprintf("/v3/reference/tickers/%s", ticker)

	if err := c.get(ctx, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return &response.Results, nil
}

// SearchTickers searches the reference ticker list by name keyword.
func (c *Client) SearchTickers(ctx context.Context, market, search string, active bool, limit int) ([]TickerSearchResult, error) {
	params := url.Values{}
	if market != "" {
		params.Set("market", market)
	}
	if search != "" {
		params.Set("search", search)
	}
	params.Set("active", fmt.Sprintf("%t", active))
	params.Set("limit", fmt.Sprintf("%d", limit))

	var response searchTickersResponse
	if err := c.get(ctx, "/v3/reference/tickers", params, &response); err != nil {
		return nil, err
	}

	return response.Results, nil
}

// GetAggregates returns adjusted OHLCV bars for a ticker. Zero from/to
// default to the trailing year.
func (c *Client) GetAggregates(ctx context.Context, ticker string, multiplier int, timespan string, from, to time.Time, limit int) ([]AggregateBar, error) {
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(-1, 0, 0)
	}

	endpoint := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		ticker, multiplier, timespan,
		from.Format("2006-01-02"), to.Format("2006-01-02"))

	params := url.Values{}
	params.Set("adjusted", "true")
	params.Set("limit", fmt.Sprintf("%d", limit))

	var response aggregatesResponse
	if err := c.get(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	return response.Results, nil
}

// GetFinancials returns reported financials for a ticker, most recent
// first. timeframe is "annual" or "quarterly".
func (c *Client) GetFinancials(ctx context.Context, ticker, timeframe string, limit int) ([]Financial, error) {
	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("timeframe", timeframe)
	params.Set("limit", fmt.Sprintf("%d", limit))

	var response financialsResponse
	if err := c.get(ctx, "/vX/reference/financials", params, &response); err != nil {
		return nil, err
	}

	return response.Results, nil
}

// GetMarketCap returns the current market cap for a ticker. Fetch
// failures degrade to (0, false) so a batch can continue without the
// company rather than aborting.
func (c *Client) GetMarketCap(ctx context.Context, ticker string) (int64, bool) {
	details, err := c.GetTickerDetails(ctx, ticker)
	if err != nil {
		c.logger.WithError(err).WithField("ticker", ticker).Warn("Failed to fetch market cap")
		return 0, false
	}

	return details.MarketCap, details.MarketCap > 0
}

// CalculateRevenueGrowth computes year-over-year revenue growth percent
// from reported financials ordered most recent first. Returns false
// when fewer than two periods are available or prior revenue is zero.
func CalculateRevenueGrowth(financials []Financial) (float64, bool) {
	if len(financials) < 2 {
		return 0, false
	}

	latest, ok := revenueOf(financials[0])
	if !ok {
		return 0, false
	}
	previous, ok := revenueOf(financials[1])
	if !ok || previous == 0 {
		return 0, false
	}

	return (latest - previous) / previous * 100.0, true
}

func revenueOf(f Financial) (float64, bool) {
	if f.Financials == nil || f.Financials.IncomeStatement == nil || f.Financials.IncomeStatement.Revenues == nil {
		return 0, false
	}
	return f.Financials.IncomeStatement.Revenues.Value, true
}
