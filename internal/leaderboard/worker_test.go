package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httperrors "github.com/gokatarajesh/superover/pkg/http/errors"
	"github.com/gokatarajesh/superover/pkg/http/ws"
)

type memorySnapshots struct {
	mu    sync.Mutex
	snaps map[string]Snapshot
	err   error
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{snaps: make(map[string]Snapshot)}
}

func (m *memorySnapshots) InsertSnapshot(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.Window] = snap
	return nil
}

func (m *memorySnapshots) LatestSnapshot(_ context.Context, window string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	snap, ok := m.snaps[window]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (m *memorySnapshots) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snaps)
}

func TestSnapshotRunOnce(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.NoError(t, svc.RecordResult(context.Background(), completedMatch("m1", "u1", 10, 1, 2)))

	store := newMemorySnapshots()
	sched, err := NewSnapshotScheduler(svc, store, time.Hour, 10, zerolog.Nop())
	require.NoError(t, err)
	defer sched.Shutdown()

	sched.RunOnce(context.Background())

	snap, err := store.LatestSnapshot(context.Background(), WindowAllTime)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Len(t, snap.SourceHash, 64)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, "u1", snap.Entries[0].PlayerID)
	assert.Equal(t, 3, store.count())
}

func TestSnapshotSchedulerRunsOnStart(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.NoError(t, svc.RecordResult(context.Background(), completedMatch("m1", "u1", 4, 0, 1)))

	store := newMemorySnapshots()
	sched, err := NewSnapshotScheduler(svc, store, time.Hour, 10, zerolog.Nop())
	require.NoError(t, err)

	sched.Start()
	assert.Eventually(t, func() bool { return store.count() == len(Windows) }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, sched.Shutdown())
}

func TestSnapshotSkipsEmptyWindows(t *testing.T) {
	svc, _, _ := newTestService(t)
	store := newMemorySnapshots()
	sched, err := NewSnapshotScheduler(svc, store, 0, 0, zerolog.Nop())
	require.NoError(t, err)
	defer sched.Shutdown()

	sched.RunOnce(context.Background())
	assert.Zero(t, store.count())
}

func jsonDecode(rec *httptest.ResponseRecorder, v interface{}) error {
	return json.NewDecoder(rec.Body).Decode(v)
}

func serveLeaderboard(h *HTTPHandler, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc("/leaderboards/{window}", h.HandleGet)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHTTPServesRedisFirst(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.NoError(t, svc.RecordResult(context.Background(), completedMatch("m1", "u1", 10, 1, 2)))
	require.NoError(t, svc.RecordResult(context.Background(), completedMatch("m2", "u2", 3, 1, 2)))

	rec := serveLeaderboard(NewHTTPHandler(svc, nil, zerolog.Nop()), "/leaderboards/daily?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body leaderboardResponse
	require.NoError(t, jsonDecode(rec, &body))
	assert.Equal(t, "redis", body.Source)
	require.Len(t, body.Top, 1)
	assert.Equal(t, "u1", body.Top[0].PlayerID)
}

func TestHTTPFallsBackToSnapshot(t *testing.T) {
	svc, _, _ := newTestService(t)
	store := newMemorySnapshots()
	require.NoError(t, store.InsertSnapshot(context.Background(), Snapshot{
		Window:  WindowWeekly,
		Entries: []ws.LeaderboardEntry{{Rank: 1, PlayerID: "u7", Runs: 30}, {Rank: 2, PlayerID: "u8", Runs: 12}},
	}))

	rec := serveLeaderboard(NewHTTPHandler(svc, store, zerolog.Nop()), "/leaderboards/weekly?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body leaderboardResponse
	require.NoError(t, jsonDecode(rec, &body))
	assert.Equal(t, "snapshot", body.Source)
	assert.Equal(t, []ws.LeaderboardEntry{{Rank: 1, PlayerID: "u7", Runs: 30}}, body.Top)
}

func TestHTTPSnapshotErrorYieldsEmpty(t *testing.T) {
	store := newMemorySnapshots()
	store.err = errors.New("pg down")

	rec := serveLeaderboard(NewHTTPHandler(nil, store, zerolog.Nop()), "/leaderboards/all_time")
	require.Equal(t, http.StatusOK, rec.Code)

	var body leaderboardResponse
	require.NoError(t, jsonDecode(rec, &body))
	assert.Empty(t, body.Top)
}

func TestHTTPUnknownWindow(t *testing.T) {
	rec := serveLeaderboard(NewHTTPHandler(nil, nil, zerolog.Nop()), "/leaderboards/monthly")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body httperrors.ErrorResponse
	require.NoError(t, jsonDecode(rec, &body))
	assert.Equal(t, httperrors.ErrCodeUnknownWindow, body.Code)
}
