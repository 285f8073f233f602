package leaderboard

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/superover/pkg/http/errors"
	"github.com/gokatarajesh/superover/pkg/http/ws"
)

// HTTPHandler exposes REST endpoints for leaderboard queries. Either
// dependency may be nil.
type HTTPHandler struct {
	svc       *Service
	snapshots SnapshotStore
	logger    zerolog.Logger
}

type leaderboardResponse struct {
	Window      string                `json:"window"`
	Top         []ws.LeaderboardEntry `json:"top"`
	Source      string                `json:"source"`
	RetrievedAt string                `json:"retrievedAt"`
}

// NewHTTPHandler constructs a leaderboard HTTP handler.
func NewHTTPHandler(svc *Service, snapshots SnapshotStore, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:       svc,
		snapshots: snapshots,
		logger:    logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

// HandleGet responds with the current leaderboard for a window.
// Route: GET /leaderboards/{window}?limit=10
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w, http.MethodGet)
		return
	}

	window := r.PathValue("window")
	if !IsValidWindow(window) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownWindow, "Unknown leaderboard window")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	top, source := h.lookup(r.Context(), window, limit)
	httperrors.RespondJSON(w, http.StatusOK, leaderboardResponse{
		Window:      window,
		Top:         top,
		Source:      source,
		RetrievedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// lookup reads Redis first and falls back to the latest snapshot when Redis
// has nothing. The returned slice is never nil.
func (h *HTTPHandler) lookup(ctx context.Context, window string, limit int) ([]ws.LeaderboardEntry, string) {
	var (
		top    []ws.LeaderboardEntry
		source = "redis"
	)

	if h.svc != nil {
		if entries, err := h.svc.Top(ctx, window, limit); err == nil {
			top = toWSEntries(entries)
		} else {
			h.logger.Warn().Err(err).Str("window", window).Msg("redis leaderboard fetch failed")
		}
	}

	if len(top) == 0 && h.snapshots != nil {
		source = "snapshot"
		top = h.snapshotFallback(ctx, window, limit)
	}
	if top == nil {
		top = []ws.LeaderboardEntry{}
	}
	return top, source
}

func (h *HTTPHandler) snapshotFallback(ctx context.Context, window string, limit int) []ws.LeaderboardEntry {
	snap, err := h.snapshots.LatestSnapshot(ctx, window)
	if err != nil {
		h.logger.Warn().Err(err).Str("window", window).Msg("snapshot fetch failed")
		return nil
	}
	if snap == nil {
		return nil
	}

	entries := snap.Entries
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// LiveHandler serves GET /leaderboards/{window}/live. Viewers get the current
// top entries on connect and a leaderboard_update after every recorded match.
type LiveHandler struct {
	lookup *HTTPHandler
	hub    *ws.Hub
	logger zerolog.Logger
}

// NewLiveHandler creates the WebSocket endpoint for leaderboard viewers.
func NewLiveHandler(lookup *HTTPHandler, hub *ws.Hub, logger zerolog.Logger) *LiveHandler {
	return &LiveHandler{
		lookup: lookup,
		hub:    hub,
		logger: logger.With().Str("component", "leaderboard_live").Logger(),
	}
}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w, http.MethodGet)
		return
	}

	window := r.PathValue("window")
	if !IsValidWindow(window) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownWindow, "Unknown leaderboard window")
		return
	}

	top, _ := h.lookup.lookup(r.Context(), window, 10)

	raw, err := ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	conn := ws.NewConnection(raw, h.logger)
	h.hub.Register(Topic(window), conn)
	defer h.hub.Unregister(conn)

	if current, err := ws.NewMessage(ws.TypeLeaderboardUpdate, ws.LeaderboardUpdatePayload{Window: window, Top: top}); err == nil {
		_ = conn.Send(current)
	}

	go conn.WritePump()
	conn.ReadPump(func(msg ws.Message) error {
		if msg.Type == ws.TypePing {
			return conn.Send(ws.Message{Type: ws.TypePong})
		}
		return nil
	})
}
