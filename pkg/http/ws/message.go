package ws

import "encoding/json"

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypePing = "ping"

	// Server -> Client
	TypeMatchUpdate       = "match_update"
	TypeMatchComplete     = "match_complete"
	TypeLeaderboardUpdate = "leaderboard_update"
	TypeError             = "error"
	TypePong              = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a typed message.
func NewMessage(msgType string, payload interface{}) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: raw}, nil
}

type LeaderboardUpdatePayload struct {
	Window  string             `json:"window"`
	Top     []LeaderboardEntry `json:"top"`
	MatchID string             `json:"matchId,omitempty"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"playerId"`
	Runs     int    `json:"runs"`
	Wins     int    `json:"wins"`
	Games    int    `json:"games"`
	Wickets  int    `json:"wickets"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
