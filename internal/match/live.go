package match

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/superover/pkg/http/errors"
	"github.com/gokatarajesh/superover/pkg/http/ws"
)

// LiveFeed publishes match changes to WebSocket viewers of that match.
type LiveFeed struct {
	hub    *ws.Hub
	logger zerolog.Logger
}

var _ Notifier = (*LiveFeed)(nil)

// NewLiveFeed creates a Notifier backed by hub.
func NewLiveFeed(hub *ws.Hub, logger zerolog.Logger) *LiveFeed {
	return &LiveFeed{
		hub:    hub,
		logger: logger.With().Str("component", "match_live").Logger(),
	}
}

// MatchUpdated sends match_update, or match_complete once the match is over.
func (f *LiveFeed) MatchUpdated(m *Match) {
	msgType := ws.TypeMatchUpdate
	if m.IsCompleted() {
		msgType = ws.TypeMatchComplete
	}

	msg, err := ws.NewMessage(msgType, m)
	if err != nil {
		f.logger.Warn().Err(err).Str("match_id", m.ID).Msg("failed to encode live update")
		return
	}
	f.hub.Publish(m.ID, msg)
}

// LiveHandler serves GET /match/{matchId}/live.
type LiveHandler struct {
	service *Service
	hub     *ws.Hub
	logger  zerolog.Logger
}

// NewLiveHandler creates the WebSocket endpoint for match viewers.
func NewLiveHandler(service *Service, hub *ws.Hub, logger zerolog.Logger) *LiveHandler {
	return &LiveHandler{
		service: service,
		hub:     hub,
		logger:  logger.With().Str("component", "match_live").Logger(),
	}
}

// ServeHTTP upgrades the connection, sends the current match, and then
// streams updates until either side closes.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w, http.MethodGet)
		return
	}

	m, err := h.service.GetMatch(r.Context(), r.PathValue("matchId"))
	if err != nil {
		var domainErr *Error
		if errors.As(err, &domainErr) {
			httperrors.RespondError(w, domainErr.Kind.HTTPStatus(), domainErr.Code, domainErr.Message, domainErr.Detail)
			return
		}
		h.logger.Error().Err(err).Msg("failed to load match for live feed")
		httperrors.RespondInternalError(w, "Failed to load match")
		return
	}

	raw, err := ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	conn := ws.NewConnection(raw, h.logger)
	h.hub.Register(m.ID, conn)
	defer h.hub.Unregister(conn)

	snapshotType := ws.TypeMatchUpdate
	if m.IsCompleted() {
		snapshotType = ws.TypeMatchComplete
	}
	if snapshot, err := ws.NewMessage(snapshotType, m); err == nil {
		_ = conn.Send(snapshot)
	}

	go conn.WritePump()
	conn.ReadPump(func(msg ws.Message) error {
		if msg.Type == ws.TypePing {
			return conn.Send(ws.Message{Type: ws.TypePong})
		}
		return nil
	})
}
