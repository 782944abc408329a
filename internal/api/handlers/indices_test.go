package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futureeconomy/indices/internal/index"
	"github.com/futureeconomy/indices/pkg/logger"
)

type fakeStore struct {
	infos       []index.Info
	composition []index.CompositionRow
	points      []index.PerformancePoint
	latest      *index.PerformancePoint
}

func (s *fakeStore) ListIndexes(context.Context) ([]index.Info, error) {
	return s.infos, nil
}

func (s *fakeStore) CurrentComposition(_ context.Context, _ string) ([]index.CompositionRow, error) {
	return s.composition, nil
}

func (s *fakeStore) CompositionAsOf(_ context.Context, _ string, asOf time.Time) ([]index.CompositionRow, error) {
	var rows []index.CompositionRow
	for _, row := range s.composition {
		if !row.RebalanceDate.After(asOf) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (s *fakeStore) PerformanceRange(_ context.Context, _ string, from, to time.Time) ([]index.PerformancePoint, error) {
	var points []index.PerformancePoint
	for _, p := range s.points {
		if !p.Date.Before(from) && !p.Date.After(to) {
			points = append(points, p)
		}
	}
	return points, nil
}

func (s *fakeStore) LatestPerformance(context.Context, string) (*index.PerformancePoint, error) {
	if s.latest == nil {
		return nil, index.ErrNotFound
	}
	return s.latest, nil
}

func testStore() *fakeStore {
	rebalance := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	return &fakeStore{
		infos: []index.Info{
			{Name: "space-infra", NumConstituents: 2, TotalMarketCap: 44.2e9, LastRebalance: &rebalance},
		},
		composition: []index.CompositionRow{
			{IndexName: "space-infra", RebalanceDate: rebalance, Ticker: "RKLB", CompanyName: "Rocket Lab", Weight: 0.55, Rank: 1},
			{IndexName: "space-infra", RebalanceDate: rebalance, Ticker: "ASTS", CompanyName: "AST SpaceMobile", Weight: 0.45, Rank: 2},
		},
		points: []index.PerformancePoint{
			{IndexName: "space-infra", Date: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), Value: 1010.5, DailyReturn: 1.05},
			{IndexName: "space-infra", Date: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), Value: 1000.2, DailyReturn: -1.02},
		},
		latest: &index.PerformancePoint{
			IndexName: "space-infra", Date: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), Value: 1000.2, DailyReturn: -1.02,
		},
	}
}

func testRouter(store IndexStore) http.Handler {
	log := logger.NewNop()
	h := NewIndexHandler(store, nil, log)

	r := mux.NewRouter()
	r.HandleFunc("/api/indices", h.List).Methods("GET")
	r.HandleFunc("/api/indices/{name}", h.Get).Methods("GET")
	r.HandleFunc("/api/indices/{name}/composition", h.GetComposition).Methods("GET")
	r.HandleFunc("/api/indices/{name}/performance", h.GetPerformance).Methods("GET")
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestList(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/indices", nil)

	testRouter(testStore()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, 1.0, data["count"])
}

func TestGet(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/indices/space-infra", nil)

	testRouter(testStore()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data := body["data"].(map[string]interface{})
	assert.NotNil(t, data["index"])
	assert.NotNil(t, data["latest"])
}

func TestGet_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/indices/unknown", nil)

	testRouter(testStore()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGet_NoPerformanceHistory(t *testing.T) {
	store := testStore()
	store.latest = nil

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/indices/space-infra", nil)

	testRouter(store).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Nil(t, data["latest"])
}

func TestGetComposition(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/indices/space-infra/composition", nil)

	testRouter(testStore()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, 2.0, data["count"])

	constituents := data["constituents"].([]interface{})
	first := constituents[0].(map[string]interface{})
	assert.Equal(t, "RKLB", first["ticker"])
}

func TestGetComposition_BadAsOf(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/indices/space-infra/composition?as_of=yesterday", nil)

	testRouter(testStore()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetComposition_Empty(t *testing.T) {
	store := testStore()
	store.composition = nil

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/indices/space-infra/composition", nil)

	testRouter(store).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPerformance(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/indices/space-infra/performance?from=2026-02-01&to=2026-02-28", nil)

	testRouter(testStore()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, 2.0, data["count"])
	assert.Equal(t, "2026-02-01", data["from"])
}

func TestGetPerformance_BadRange(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/indices/space-infra/performance?from=nope", nil)

	testRouter(testStore()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLiveStream(t *testing.T) {
	log := logger.NewNop()
	h := NewLiveHandler(testStore(), log).WithInterval(50 * time.Millisecond)

	r := mux.NewRouter()
	r.HandleFunc("/api/indices/{name}/live", h.Stream)

	server := httptest.NewServer(r)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/indices/space-infra/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var update liveUpdate
	require.NoError(t, conn.ReadJSON(&update))

	assert.Equal(t, "space-infra", update.Index)
	assert.Equal(t, 1000.2, update.Value)

	// A second push arrives on the interval.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, "space-infra", update.Index)
}
