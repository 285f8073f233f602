package match

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/superover/internal/auth"
	"github.com/gokatarajesh/superover/internal/auth/jwt"
	"github.com/gokatarajesh/superover/internal/match/bot"
)

type testServer struct {
	mux     *http.ServeMux
	service *Service
	store   *MemoryStore
}

func newTestServer(t *testing.T, opts ServiceOptions) *testServer {
	t.Helper()
	svc, store := newTestService(t, opts)
	fast := bot.NewProfiles(
		bot.Profile{Accuracy: 0, AnswerDelay: 5 * time.Millisecond},
		bot.Profile{Accuracy: 1, AnswerDelay: 5 * time.Millisecond},
		bot.Profile{Accuracy: 1, AnswerDelay: 5 * time.Millisecond},
	)
	h := NewHTTPHandlers(svc, bot.NewOpponent(fast, rand.New(rand.NewPCG(1, 2))), zerolog.Nop())

	mux := http.NewServeMux()
	mux.HandleFunc("/match/create", h.CreateMatch)
	mux.HandleFunc("/match/answer", h.SubmitAnswer)
	mux.HandleFunc("/match/bot-answer", h.BotAnswer)
	mux.HandleFunc("/match/{$}", h.MissingMatchID)
	mux.HandleFunc("/match/{matchId}", h.GetMatch)
	return &testServer{mux: mux, service: svc, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, ctx context.Context) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if ctx != nil {
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHTTPCreateMatch(t *testing.T) {
	s := newTestServer(t, ServiceOptions{})

	rec := s.do(t, http.MethodPost, "/match/create", map[string]string{"playerAId": "u1", "difficulty": "hard"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool   `json:"success"`
		MatchID string `json:"matchId"`
		Match   Match  `json:"match"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, body.MatchID, body.Match.ID)
	assert.Equal(t, 0.9, *body.Match.PlayerB.Accuracy)

	raw := decodeBody(t, rec)["match"].(map[string]interface{})
	assert.Nil(t, raw["winner"])
	assert.Nil(t, raw["completedAt"])
	assert.Equal(t, "in_progress", raw["status"])
	playerA := raw["playerA"].(map[string]interface{})
	assert.EqualValues(t, 0, playerA["runs"])
	assert.EqualValues(t, 0, playerA["balls"])
	assert.Equal(t, false, playerA["isBot"])
}

func TestHTTPCreateMatchErrors(t *testing.T) {
	cases := []struct {
		name    string
		opts    ServiceOptions
		body    interface{}
		status  int
		errMsg  string
		hasNote bool
	}{
		{"missing player", ServiceOptions{}, map[string]string{}, http.StatusBadRequest, "playerAId is required", false},
		{"invalid difficulty", ServiceOptions{}, map[string]string{"playerAId": "u1", "difficulty": "extreme"}, http.StatusBadRequest, "difficulty must be easy, medium, or hard", false},
		{"friend mode", ServiceOptions{}, map[string]string{"playerAId": "u1", "mode": "friend"}, http.StatusBadRequest, "Friend mode not yet implemented", true},
		{"disabled", ServiceOptions{Disabled: true}, map[string]string{"playerAId": "u1"}, http.StatusForbidden, "Super Over feature is disabled", true},
		{"bad json", ServiceOptions{}, "{", http.StatusBadRequest, "Invalid JSON payload", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, tc.opts)
			rec := s.do(t, http.MethodPost, "/match/create", tc.body, nil)
			assert.Equal(t, tc.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tc.errMsg, body["error"])
			assert.NotEmpty(t, body["code"])
			if tc.hasNote {
				assert.NotEmpty(t, body["message"])
			}
		})
	}
}

func TestHTTPMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, ServiceOptions{})

	for _, tc := range []struct{ method, path, allow string }{
		{http.MethodGet, "/match/create", http.MethodPost},
		{http.MethodGet, "/match/answer", http.MethodPost},
		{http.MethodPost, "/match/some-id", http.MethodGet},
		{http.MethodDelete, "/match/", http.MethodGet},
	} {
		rec := s.do(t, tc.method, tc.path, nil, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, tc.path)
		assert.Equal(t, tc.allow, rec.Header().Get("Allow"))
	}
}

func TestHTTPGetMatch(t *testing.T) {
	s := newTestServer(t, ServiceOptions{})
	m := mustCreate(t, s.service, "")

	rec := s.do(t, http.MethodGet, "/match/"+m.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, m.ID, body["match"].(map[string]interface{})["matchId"])

	rec = s.do(t, http.MethodGet, "/match/does-not-exist", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Match not found", decodeBody(t, rec)["error"])

	rec = s.do(t, http.MethodGet, "/match/", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "matchId is required", decodeBody(t, rec)["error"])
}

func TestHTTPSubmitAnswer(t *testing.T) {
	s := newTestServer(t, ServiceOptions{})
	m := mustCreate(t, s.service, "")

	rec := s.do(t, http.MethodPost, "/match/answer", map[string]interface{}{"matchId": m.ID, "playerId": "u1", "isCorrect": false}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success       bool `json:"success"`
		Match         Match
		PlayerStats   map[string]int `json:"playerStats"`
		OpponentStats map[string]int `json:"opponentStats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, map[string]int{"runs": 0, "wickets": 1, "balls": 1}, body.PlayerStats)
	assert.Equal(t, 1, body.OpponentStats["balls"])
}

func TestHTTPSubmitAnswerValidation(t *testing.T) {
	s := newTestServer(t, ServiceOptions{})
	m := mustCreate(t, s.service, "")

	cases := []struct {
		name   string
		body   interface{}
		status int
		errMsg string
	}{
		{"missing match", map[string]interface{}{"playerId": "u1", "isCorrect": true}, http.StatusBadRequest, "matchId is required"},
		{"missing player", map[string]interface{}{"matchId": m.ID, "isCorrect": true}, http.StatusBadRequest, "playerId is required"},
		{"missing isCorrect", map[string]interface{}{"matchId": m.ID, "playerId": "u1"}, http.StatusBadRequest, "isCorrect must be a boolean"},
		{"string isCorrect", map[string]interface{}{"matchId": m.ID, "playerId": "u1", "isCorrect": "yes"}, http.StatusBadRequest, "isCorrect must be a boolean"},
		{"unknown match", map[string]interface{}{"matchId": "nope", "playerId": "u1", "isCorrect": true}, http.StatusNotFound, "Match not found"},
		{"invalid player", map[string]interface{}{"matchId": m.ID, "playerId": "u2", "isCorrect": true}, http.StatusBadRequest, "Invalid playerId"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/match/answer", tc.body, nil)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.errMsg, decodeBody(t, rec)["error"])
		})
	}
}

func TestHTTPExhaustedAndCompleted(t *testing.T) {
	s := newTestServer(t, ServiceOptions{})
	m := mustCreate(t, s.service, "")
	m.PlayerA.Balls = MaxBalls
	require.NoError(t, s.store.Put(context.Background(), m))

	rec := s.do(t, http.MethodPost, "/match/answer", map[string]interface{}{"matchId": m.ID, "playerId": "u1", "isCorrect": true}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Player has no balls left", decodeBody(t, rec)["error"])

	m.Status = StatusCompleted
	require.NoError(t, s.store.Put(context.Background(), m))
	rec = s.do(t, http.MethodPost, "/match/answer", map[string]interface{}{"matchId": m.ID, "playerId": "u1", "isCorrect": true}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Match already completed", decodeBody(t, rec)["error"])
}

func TestHTTPPlayerMismatchWithAuth(t *testing.T) {
	s := newTestServer(t, ServiceOptions{})
	claims := &jwt.Claims{}
	claims.Subject = "u1"
	ctx := auth.WithClaims(context.Background(), claims)

	rec := s.do(t, http.MethodPost, "/match/create", map[string]string{"playerAId": "someone-else"}, ctx)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/match/create", map[string]string{"playerAId": "u1"}, ctx)
	require.Equal(t, http.StatusOK, rec.Code)
	matchID := decodeBody(t, rec)["matchId"].(string)

	rec = s.do(t, http.MethodPost, "/match/answer", map[string]interface{}{"matchId": matchID, "playerId": "bot_medium", "isCorrect": true}, ctx)
	assert.Equal(t, http.StatusOK, rec.Code)

	other := &jwt.Claims{}
	other.Subject = "u9"
	rec = s.do(t, http.MethodPost, "/match/answer", map[string]interface{}{"matchId": matchID, "playerId": "u1", "isCorrect": true}, auth.WithClaims(context.Background(), other))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHTTPBotAnswer(t *testing.T) {
	s := newTestServer(t, ServiceOptions{})

	rec := s.do(t, http.MethodPost, "/match/bot-answer", map[string]interface{}{
		"question":   map[string]interface{}{"correctAnswer": "Paris", "options": []string{"Paris", "Rome"}},
		"difficulty": "hard",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["isCorrect"])
	assert.Equal(t, "Paris", body["answer"])
	assert.EqualValues(t, 5, body["answerTime"])

	rec = s.do(t, http.MethodPost, "/match/bot-answer", map[string]interface{}{
		"question":   map[string]interface{}{"correctAnswer": "Paris", "options": []string{"Paris", "Rome"}},
		"difficulty": "easy",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, false, body["isCorrect"])
	assert.Equal(t, "Rome", body["answer"])

	rec = s.do(t, http.MethodPost, "/match/bot-answer", map[string]interface{}{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
