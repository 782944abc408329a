package polygon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futureeconomy/indices/pkg/config"
	"github.com/futureeconomy/indices/pkg/httputil"
	"github.com/futureeconomy/indices/pkg/logger"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	cfg := &config.Config{
		Polygon: config.PolygonConfig{
			APIKey:    "test-key",
			BaseURL:   baseURL,
			RateLimit: 100,
		},
	}

	log := logger.NewNop()
	client, err := NewClient(cfg, httputil.New(log), log)
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	cfg := &config.Config{
		Polygon: config.PolygonConfig{RateLimit: 5},
	}

	log := logger.NewNop()
	_, err := NewClient(cfg, httputil.New(log), log)
	assert.Error(t, err)
}

func TestGetTickerDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/reference/tickers/RKLB", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": {
				"ticker": "RKLB",
				"name": "Rocket Lab",
				"market_cap": 25000000000,
				"description": "Space launch provider",
				"primary_exchange": "XNAS",
				"locale": "us"
			}
		}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	details, err := client.GetTickerDetails(context.Background(), "RKLB")
	require.NoError(t, err)

	assert.Equal(t, "RKLB", details.Ticker)
	assert.Equal(t, "Rocket Lab", details.Name)
	assert.Equal(t, int64(25000000000), details.MarketCap)
}

func TestGetTickerDetails_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	_, err := client.GetTickerDetails(context.Background(), "NOPE")
	assert.Error(t, err)
}

func TestGetMarketCap_DegradesOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	client.httpClient.DisableRetry()

	mc, ok := client.GetMarketCap(context.Background(), "RKLB")
	assert.False(t, ok)
	assert.Equal(t, int64(0), mc)
}

func TestSearchTickers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/reference/tickers", r.URL.Path)
		assert.Equal(t, "stocks", r.URL.Query().Get("market"))
		assert.Equal(t, "true", r.URL.Query().Get("active"))

		w.Write([]byte(`{
			"results": [
				{"ticker": "ASTS", "name": "AST SpaceMobile", "market": "stocks", "active": true},
				{"ticker": "GSAT", "name": "Globalstar", "market": "stocks", "active": true}
			]
		}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	results, err := client.SearchTickers(context.Background(), "stocks", "", true, 100)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "ASTS", results[0].Ticker)
}

func TestCalculateRevenueGrowth(t *testing.T) {
	financials := []Financial{
		fiscalYear("2024", 100_000_000),
		fiscalYear("2023", 80_000_000),
	}

	growth, ok := CalculateRevenueGrowth(financials)
	require.True(t, ok)
	assert.InDelta(t, 25.0, growth, 0.01)
}

func TestCalculateRevenueGrowth_InsufficientData(t *testing.T) {
	_, ok := CalculateRevenueGrowth(nil)
	assert.False(t, ok)

	_, ok = CalculateRevenueGrowth([]Financial{fiscalYear("2024", 100)})
	assert.False(t, ok)
}

func TestCalculateRevenueGrowth_ZeroPriorRevenue(t *testing.T) {
	financials := []Financial{
		fiscalYear("2024", 50_000_000),
		fiscalYear("2023", 0),
	}

	_, ok := CalculateRevenueGrowth(financials)
	assert.False(t, ok)
}

func TestCalculateRevenueGrowth_MissingStatements(t *testing.T) {
	financials := []Financial{
		{FiscalYear: "2024"},
		fiscalYear("2023", 80_000_000),
	}

	_, ok := CalculateRevenueGrowth(financials)
	assert.False(t, ok)
}

func fiscalYear(year string, revenue float64) Financial {
	return Financial{
		FiscalYear: year,
		Financials: &FinancialStatements{
			IncomeStatement: &IncomeStatement{
				Revenues: &FinancialValue{Value: revenue, Unit: "USD"},
			},
		},
	}
}
