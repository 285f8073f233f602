package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/superover/pkg/http/ws"
)

func dialLive(t *testing.T, h *LiveHandler, hub *ws.Hub, window string) *websocket.Conn {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("/leaderboards/{window}/live", h)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/leaderboards/" + window + "/live"
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.Eventually(t, func() bool { return hub.Subscribers(Topic(window)) == 1 }, 2*time.Second, 10*time.Millisecond)
	return client
}

func readUpdate(t *testing.T, conn *websocket.Conn) ws.LeaderboardUpdatePayload {
	t.Helper()
	var msg ws.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, ws.TypeLeaderboardUpdate, msg.Type)

	var payload ws.LeaderboardUpdatePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	return payload
}

func TestLiveSendsCurrentTopThenRelayedUpdates(t *testing.T) {
	svc, _, client := newTestService(t)
	require.NoError(t, svc.RecordResult(context.Background(), completedMatch("m1", "u1", 8, 1, 2)))

	hub := ws.NewHub(zerolog.Nop())
	live := NewLiveHandler(NewHTTPHandler(svc, nil, zerolog.Nop()), hub, zerolog.Nop())
	conn := dialLive(t, live, hub, WindowDaily)

	current := readUpdate(t, conn)
	assert.Equal(t, WindowDaily, current.Window)
	assert.Empty(t, current.MatchID)
	require.Len(t, current.Top, 1)
	assert.Equal(t, "u1", current.Top[0].PlayerID)

	b := NewBroadcaster(client, hub, "", zerolog.Nop())
	data, err := json.Marshal(ws.LeaderboardUpdatePayload{
		Window:  WindowDaily,
		MatchID: "m2",
		Top:     []ws.LeaderboardEntry{{Rank: 1, PlayerID: "u2", Runs: 14}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, b.relay(data))

	relayed := readUpdate(t, conn)
	assert.Equal(t, "m2", relayed.MatchID)
	assert.Equal(t, "u2", relayed.Top[0].PlayerID)
}

func TestLiveUnknownWindow(t *testing.T) {
	live := NewLiveHandler(NewHTTPHandler(nil, nil, zerolog.Nop()), ws.NewHub(zerolog.Nop()), zerolog.Nop())
	mux := http.NewServeMux()
	mux.Handle("/leaderboards/{window}/live", live)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leaderboards/monthly/live", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRelaySkipsOtherWindows(t *testing.T) {
	svc, _, client := newTestService(t)
	hub := ws.NewHub(zerolog.Nop())
	conn := dialLive(t, NewLiveHandler(NewHTTPHandler(svc, nil, zerolog.Nop()), hub, zerolog.Nop()), hub, WindowWeekly)
	readUpdate(t, conn)

	b := NewBroadcaster(client, hub, "", zerolog.Nop())
	assert.Zero(t, b.relay([]byte(`{"window":"daily","top":[]}`)))
	assert.Zero(t, b.relay([]byte(`{"window":"monthly","top":[]}`)))
	assert.Zero(t, b.relay([]byte(`not json`)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	var msg ws.Message
	assert.Error(t, conn.ReadJSON(&msg))
}

func TestBroadcasterRelaysPublishedResults(t *testing.T) {
	svc, _, client := newTestService(t)
	hub := ws.NewHub(zerolog.Nop())
	conn := dialLive(t, NewLiveHandler(NewHTTPHandler(svc, nil, zerolog.Nop()), hub, zerolog.Nop()), hub, WindowAllTime)
	readUpdate(t, conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := NewBroadcaster(client, hub, "", zerolog.Nop())
	go func() { _ = b.Run(ctx) }()

	// Run subscribes asynchronously.
	require.Eventually(t, func() bool {
		return client.PubSubNumSub(ctx, DefaultChannel).Val()[DefaultChannel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, svc.RecordResult(ctx, completedMatch("m9", "u3", 11, 0, 4)))

	update := readUpdate(t, conn)
	assert.Equal(t, WindowAllTime, update.Window)
	assert.Equal(t, "m9", update.MatchID)
	require.Len(t, update.Top, 1)
	assert.Equal(t, 11, update.Top[0].Runs)
}
