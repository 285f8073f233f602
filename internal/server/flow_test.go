package server

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/superover/internal/leaderboard"
	"github.com/gokatarajesh/superover/internal/match"
	"github.com/gokatarajesh/superover/internal/match/bot"
	"github.com/gokatarajesh/superover/pkg/http/ws"
)

// TestRedisBackedMatchFlow plays a full match over HTTP against the shared
// Redis store and checks the live feed and the leaderboard afterwards.
func TestRedisBackedMatchFlow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hub := ws.NewHub(zerolog.Nop())
	lb := leaderboard.NewService(client, zerolog.Nop(), leaderboard.ServiceOptions{})
	svc := match.NewService(match.NewRedisStore(client, time.Hour, zerolog.Nop()), match.ServiceOptions{
		Random:    rand.New(rand.NewPCG(5, 6)),
		Locker:    match.NewRedisLocker(client, time.Second),
		Recorders: []match.ResultRecorder{lb},
		Notifier:  match.NewLiveFeed(hub, zerolog.Nop()),
	}, zerolog.Nop())

	srv := httptest.NewServer(NewHandler(zerolog.Nop(), Dependencies{Redis: client}, Handlers{
		Match:       match.NewHTTPHandlers(svc, bot.NewOpponent(bot.DefaultProfiles(), svc.Random()), zerolog.Nop()),
		Live:        match.NewLiveHandler(svc, hub, zerolog.Nop()),
		Leaderboard: leaderboard.NewHTTPHandler(lb, nil, zerolog.Nop()),
	}, nil))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/match/create", "application/json", strings.NewReader(`{"playerAId":"u1","difficulty":"hard"}`))
	require.NoError(t, err)
	var created struct {
		MatchID string      `json:"matchId"`
		Match   match.Match `json:"match"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.Equal(t, "bot_hard", created.Match.PlayerB.ID)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/match/" + created.MatchID + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var snapshot ws.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&snapshot))
	require.Eventually(t, func() bool { return hub.Subscribers(created.MatchID) == 1 }, time.Second, 5*time.Millisecond)

	var last ws.Message
	for i := 0; i < match.MaxBalls; i++ {
		body := fmt.Sprintf(`{"matchId":%q,"playerId":"u1","isCorrect":true}`, created.MatchID)
		resp, err := http.Post(srv.URL+"/match/answer", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&last))
	}
	assert.Equal(t, ws.TypeMatchComplete, last.Type)

	var final match.Match
	require.NoError(t, json.Unmarshal(last.Payload, &final))
	assert.True(t, final.IsCompleted())
	assert.Equal(t, match.MaxBalls, final.PlayerB.Balls)
	assert.NotEmpty(t, final.WinnerID())

	resp, err = http.Get(srv.URL + "/leaderboards/all_time")
	require.NoError(t, err)
	defer resp.Body.Close()
	var board struct {
		Source string                `json:"source"`
		Top    []ws.LeaderboardEntry `json:"top"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&board))
	assert.Equal(t, "redis", board.Source)
	require.Len(t, board.Top, 1)
	assert.Equal(t, "u1", board.Top[0].PlayerID)
	assert.Equal(t, final.PlayerA.Runs, board.Top[0].Runs)
}
