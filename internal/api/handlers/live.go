package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/futureeconomy/indices/internal/index"
	"github.com/futureeconomy/indices/pkg/logger"
)

// DefaultPushInterval is how often live subscribers receive an update.
const DefaultPushInterval = 5 * time.Second

// LiveHandler streams index values to websocket subscribers.
type LiveHandler struct {
	store    IndexStore
	logger   *logger.Logger
	upgrader websocket.Upgrader
	interval time.Duration
}

// NewLiveHandler creates a websocket handler.
func NewLiveHandler(store IndexStore, log *logger.Logger) *LiveHandler {
	return &LiveHandler{
		store:  store,
		logger: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		interval: DefaultPushInterval,
	}
}

// WithInterval overrides the push interval.
func (h *LiveHandler) WithInterval(d time.Duration) *LiveHandler {
	h.interval = d
	return h
}

type liveUpdate struct {
	Index       string    `json:"index"`
	Date        time.Time `json:"date"`
	Value       float64   `json:"value"`
	DailyReturn float64   `json:"daily_return"`
	PushedAt    time.Time `json:"pushed_at"`
}

// Stream upgrades the connection and pushes the latest index value on
// an interval until the client disconnects.
// GET /api/indices/{name}/live
func (h *LiveHandler) Stream(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.logger.WithField("index", name).Debug("Live subscriber connected")

	// Reads only serve to detect the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if err := h.push(r.Context(), conn, name); err != nil {
		return
	}

	for {
		select {
		case <-done:
			h.logger.WithField("index", name).Debug("Live subscriber disconnected")
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := h.push(r.Context(), conn, name); err != nil {
				return
			}
		}
	}
}

func (h *LiveHandler) push(ctx context.Context, conn *websocket.Conn, name string) error {
	latest, err := h.store.LatestPerformance(ctx, name)
	if errors.Is(err, index.ErrNotFound) {
		return conn.WriteJSON(map[string]string{"index": name, "status": "no data"})
	}
	if err != nil {
		h.logger.WithError(err).WithField("index", name).Warn("Live push query failed")
		return conn.WriteJSON(map[string]string{"index": name, "status": "error"})
	}

	return conn.WriteJSON(liveUpdate{
		Index:       name,
		Date:        latest.Date,
		Value:       latest.Value,
		DailyReturn: latest.DailyReturn,
		PushedAt:    time.Now().UTC(),
	})
}
