package newsletter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futureeconomy/indices/pkg/config"
	"github.com/futureeconomy/indices/pkg/httputil"
	"github.com/futureeconomy/indices/pkg/logger"
)

func sampleReport() ReportData {
	return ReportData{
		IndexName:     "Space Infrastructure Index",
		Quarter:       "Q3 2026",
		RebalanceDate: time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC),
		IndexValue:    1245.80,
		QuarterReturn: 8.3,
		Holdings: []Holding{
			{Ticker: "RKLB", Name: "Rocket Lab", Weight: 0.095, Rank: 1, SpaceRevenuePct: 100},
			{Ticker: "ASTS", Name: "AST SpaceMobile", Weight: 0.091, Rank: 2, SpaceRevenuePct: 100},
		},
		Changes: Changes{
			Added:   []Holding{{Ticker: "LUNR", Name: "Intuitive Machines", Weight: 0.042}},
			Removed: []Holding{{Ticker: "MAXR", Name: "Maxar Technologies"}},
		},
	}
}

func TestQuarterOf(t *testing.T) {
	assert.Equal(t, "Q1 2026", QuarterOf(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Q2 2026", QuarterOf(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Q4 2025", QuarterOf(time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)))
}

func TestRenderReport(t *testing.T) {
	body, err := RenderReport(sampleReport())
	require.NoError(t, err)

	assert.Contains(t, body, "Space Infrastructure Index - Q3 2026")
	assert.Contains(t, body, "July 15, 2026")
	assert.Contains(t, body, "1245.80 (+8.3% this quarter)")
	assert.Contains(t, body, "1. RKLB")
	assert.Contains(t, body, "9.50%")
	assert.Contains(t, body, "+ LUNR Intuitive Machines joins at 4.20%")
	assert.Contains(t, body, "- MAXR Maxar Technologies leaves the index")
}

func TestRenderReport_NoChanges(t *testing.T) {
	data := sampleReport()
	data.Changes = Changes{}

	body, err := RenderReport(data)
	require.NoError(t, err)
	assert.NotContains(t, body, "Composition Changes")
}

func TestRenderReport_NegativeReturn(t *testing.T) {
	data := sampleReport()
	data.QuarterReturn = -4.2

	body, err := RenderReport(data)
	require.NoError(t, err)
	assert.Contains(t, body, "(-4.2% this quarter)")
}

func TestSubject(t *testing.T) {
	subject := Subject(sampleReport())
	assert.Equal(t, "Space Infrastructure Index Q3 2026 Rebalancing: 2 holdings, +8.3% quarterly return", subject)
}

func testConvertKit(t *testing.T, baseURL string) *ConvertKitClient {
	t.Helper()

	cfg := &config.Config{
		ConvertKit: config.ConvertKitConfig{
			APIKey:    "ck-key",
			APISecret: "ck-secret",
			BaseURL:   baseURL,
		},
	}

	log := logger.NewNop()
	client, err := NewConvertKitClient(cfg, httputil.New(log), log)
	require.NoError(t, err)
	return client
}

func TestAddSubscriber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/12345/subscribe", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "ck-key", payload["api_key"])
		assert.Equal(t, "reader@example.com", payload["email"])

		w.Write([]byte(`{"subscription": {"id": 1}}`))
	}))
	defer server.Close()

	client := testConvertKit(t, server.URL)
	err := client.AddSubscriber(context.Background(), "12345", "reader@example.com")
	assert.NoError(t, err)
}

func TestSendBroadcast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/broadcasts", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "ck-secret", payload["api_secret"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"broadcast": {"id": 42, "subject": "Test"}}`))
	}))
	defer server.Close()

	client := testConvertKit(t, server.URL)
	broadcast, err := client.SendBroadcast(context.Background(), "Test", "Body")
	require.NoError(t, err)
	assert.Equal(t, 42, broadcast.ID)
}

func TestSendBroadcast_RequiresSecret(t *testing.T) {
	cfg := &config.Config{
		ConvertKit: config.ConvertKitConfig{APIKey: "ck-key"},
	}

	log := logger.NewNop()
	client, err := NewConvertKitClient(cfg, httputil.New(log), log)
	require.NoError(t, err)

	_, err = client.SendBroadcast(context.Background(), "Test", "Body")
	assert.Error(t, err)
}
