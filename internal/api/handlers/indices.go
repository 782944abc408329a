package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/futureeconomy/indices/internal/index"
	"github.com/futureeconomy/indices/pkg/logger"
	"github.com/futureeconomy/indices/pkg/redis"
)

// IndexStore is the read surface the index endpoints need. Implemented
// by *index.Repository.
type IndexStore interface {
	ListIndexes(ctx context.Context) ([]index.Info, error)
	CurrentComposition(ctx context.Context, indexName string) ([]index.CompositionRow, error)
	CompositionAsOf(ctx context.Context, indexName string, asOf time.Time) ([]index.CompositionRow, error)
	PerformanceRange(ctx context.Context, indexName string, from, to time.Time) ([]index.PerformancePoint, error)
	LatestPerformance(ctx context.Context, indexName string) (*index.PerformancePoint, error)
}

// IndexHandler handles index-related API endpoints.
type IndexHandler struct {
	store  IndexStore
	cache  *redis.Cache
	logger *logger.Logger
}

// NewIndexHandler creates a new index handler. The cache is optional.
func NewIndexHandler(store IndexStore, cache *redis.Cache, log *logger.Logger) *IndexHandler {
	return &IndexHandler{
		store:  store,
		cache:  cache,
		logger: log,
	}
}

// List returns all indices.
// GET /api/indices
func (h *IndexHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.store.ListIndexes(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list indices")
		respondError(w, http.StatusInternalServerError, "Failed to list indices")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count":   len(infos),
			"indices": infos,
		},
	})
}

// Get returns one index with its latest value.
// GET /api/indices/{name}
func (h *IndexHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]

	infos, err := h.store.ListIndexes(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query index")
		respondError(w, http.StatusInternalServerError, "Failed to query index")
		return
	}

	var info *index.Info
	for i := range infos {
		if infos[i].Name == name {
			info = &infos[i]
			break
		}
	}
	if info == nil {
		respondError(w, http.StatusNotFound, "Index not found: "+name)
		return
	}

	payload := map[string]interface{}{
		"index": info,
	}

	latest, err := h.store.LatestPerformance(ctx, name)
	switch {
	case errors.Is(err, index.ErrNotFound):
		// no history yet
	case err != nil:
		h.logger.WithError(err).Error("Failed to query latest performance")
		respondError(w, http.StatusInternalServerError, "Failed to query index")
		return
	default:
		payload["latest"] = latest
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    payload,
	})
}

// GetComposition returns the composition of an index, current by
// default or as of a date.
// GET /api/indices/{name}/composition?as_of=2026-01-15
func (h *IndexHandler) GetComposition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]
	asOfParam := r.URL.Query().Get("as_of")

	cacheKey := redis.CompositionKey(name)
	if h.cache != nil && asOfParam == "" {
		var cached []index.CompositionRow
		if found, err := h.cache.Get(ctx, cacheKey, &cached); err == nil && found {
			h.respondComposition(w, name, cached)
			return
		}
	}

	var (
		rows []index.CompositionRow
		err  error
	)
	if asOfParam == "" {
		rows, err = h.store.CurrentComposition(ctx, name)
	} else {
		asOf, parseErr := time.Parse("2006-01-02", asOfParam)
		if parseErr != nil {
			respondError(w, http.StatusBadRequest, "Invalid as_of date, expected YYYY-MM-DD")
			return
		}
		rows, err = h.store.CompositionAsOf(ctx, name, asOf)
	}
	if err != nil {
		h.logger.WithError(err).WithField("index", name).Error("Failed to query composition")
		respondError(w, http.StatusInternalServerError, "Failed to query composition")
		return
	}

	if len(rows) == 0 {
		respondError(w, http.StatusNotFound, "No composition found for index: "+name)
		return
	}

	if h.cache != nil && asOfParam == "" {
		if err := h.cache.Set(ctx, cacheKey, rows, redis.TTLShort); err != nil {
			h.logger.WithError(err).Warn("Failed to cache composition")
		}
	}

	h.respondComposition(w, name, rows)
}

func (h *IndexHandler) respondComposition(w http.ResponseWriter, name string, rows []index.CompositionRow) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"index":          name,
			"rebalance_date": rows[0].RebalanceDate,
			"count":          len(rows),
			"constituents":   rows,
		},
	})
}

// GetPerformance returns index values for a date range. Defaults to the
// trailing year.
// GET /api/indices/{name}/performance?from=2025-01-01&to=2026-01-01
func (h *IndexHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]

	to := time.Now().UTC()
	from := to.AddDate(-1, 0, 0)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		to = parsed
	}

	points, err := h.store.PerformanceRange(ctx, name, from, to)
	if err != nil {
		h.logger.WithError(err).WithField("index", name).Error("Failed to query performance")
		respondError(w, http.StatusInternalServerError, "Failed to query performance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"index":  name,
			"from":   from.Format("2006-01-02"),
			"to":     to.Format("2006-01-02"),
			"count":  len(points),
			"points": points,
		},
	})
}
