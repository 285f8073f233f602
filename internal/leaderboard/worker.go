package leaderboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/superover/pkg/http/ws"
)

// Snapshot is a frozen copy of a window's top entries.
type Snapshot struct {
	Window      string
	GeneratedAt time.Time
	Entries     []ws.LeaderboardEntry
	SourceHash  string
}

// SnapshotStore persists snapshots. LatestSnapshot returns (nil, nil) when
// the window has none.
type SnapshotStore interface {
	InsertSnapshot(ctx context.Context, snap Snapshot) error
	LatestSnapshot(ctx context.Context, window string) (*Snapshot, error)
}

// SnapshotScheduler periodically persists Redis leaderboards so reads keep
// working when Redis is empty or unavailable.
type SnapshotScheduler struct {
	svc      *Service
	store    SnapshotStore
	sched    gocron.Scheduler
	interval time.Duration
	topN     int
	ctx      context.Context
	cancel   context.CancelFunc
	logger   zerolog.Logger
}

// NewSnapshotScheduler registers the snapshot job. Call Start to run it.
func NewSnapshotScheduler(svc *Service, store SnapshotStore, interval time.Duration, topN int, logger zerolog.Logger) (*SnapshotScheduler, error) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if topN <= 0 {
		topN = 50
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &SnapshotScheduler{
		svc:      svc,
		store:    store,
		sched:    sched,
		interval: interval,
		topN:     topN,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.With().Str("component", "leaderboard_snapshot").Logger(),
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.RunOnce(s.ctx) }),
		gocron.WithName("leaderboard-snapshot"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		_ = sched.Shutdown()
		return nil, fmt.Errorf("register snapshot job: %w", err)
	}
	return s, nil
}

// Start begins running the job in the background.
func (s *SnapshotScheduler) Start() {
	s.logger.Info().Dur("interval", s.interval).Msg("snapshot scheduler started")
	s.sched.Start()
}

// Shutdown stops the scheduler and waits for a running snapshot to finish.
func (s *SnapshotScheduler) Shutdown() error {
	s.cancel()
	return s.sched.Shutdown()
}

// RunOnce snapshots every window.
func (s *SnapshotScheduler) RunOnce(ctx context.Context) {
	for _, window := range Windows {
		if err := s.snapshotWindow(ctx, window); err != nil {
			s.logger.Warn().Err(err).Str("window", window).Msg("snapshot failed")
		}
	}
}

func (s *SnapshotScheduler) snapshotWindow(ctx context.Context, window string) error {
	entries, err := s.svc.Top(ctx, window, s.topN)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	wsEntries := toWSEntries(entries)
	data, err := json.Marshal(wsEntries)
	if err != nil {
		return err
	}
	sourceHash := sha256.Sum256(data)
	now := time.Now().UTC()

	snap := Snapshot{
		Window:      window,
		GeneratedAt: now,
		Entries:     wsEntries,
		SourceHash:  hex.EncodeToString(sourceHash[:]),
	}
	if err := s.store.InsertSnapshot(ctx, snap); err != nil {
		return err
	}

	s.logger.Info().
		Str("window", window).
		Int("entries", len(wsEntries)).
		Time("generated_at", now).
		Msg("leaderboard snapshot persisted")

	return nil
}
