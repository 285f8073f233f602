package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/superover/internal/match"
	"github.com/gokatarajesh/superover/pkg/http/ws"
)

// Supported leaderboard windows.
const (
	WindowDaily   = "daily"
	WindowWeekly  = "weekly"
	WindowAllTime = "all_time"
)

// Windows lists every window in display order.
var Windows = []string{WindowDaily, WindowWeekly, WindowAllTime}

// ErrUnknownWindow is returned for window names outside Windows.
var ErrUnknownWindow = errors.New("unknown leaderboard window")

// Entry is one player's aggregate for a window. Players are ranked by Runs.
type Entry struct {
	PlayerID string `json:"playerId"`
	Runs     int    `json:"runs"`
	Wins     int    `json:"wins"`
	Ties     int    `json:"ties"`
	Games    int    `json:"games"`
	Wickets  int    `json:"wickets"`
}

// ServiceOptions configures leaderboard service behavior.
type ServiceOptions struct {
	TopN           int
	PubSubChannel  string
	RedisKeyPrefix string
	// PublishTimeout bounds each background update publish; defaults to 5s.
	PublishTimeout time.Duration
	// Clock picks the daily/weekly bucket; defaults to time.Now.
	Clock func() time.Time
}

// Service keeps super over leaderboards in Redis sorted sets and announces
// changes over Pub/Sub.
type Service struct {
	redis         *redis.Client
	logger        zerolog.Logger
	topN          int
	pubsubChannel string
	prefix        string
	now           func() time.Time

	publishTimeout time.Duration
	publishCtx     context.Context
	stopPublish    context.CancelFunc
	mu             sync.Mutex
	closed         bool
	publishing     sync.WaitGroup
}

var _ match.ResultRecorder = (*Service)(nil)

// NewService constructs a leaderboard service instance.
func NewService(redis *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	channel := opts.PubSubChannel
	if channel == "" {
		channel = DefaultChannel
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "lb"
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	publishTimeout := opts.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = 5 * time.Second
	}

	publishCtx, stop := context.WithCancel(context.Background())
	return &Service{
		redis:          redis,
		logger:         logger.With().Str("component", "leaderboard").Logger(),
		topN:           topN,
		pubsubChannel:  channel,
		prefix:         prefix,
		now:            clock,
		publishTimeout: publishTimeout,
		publishCtx:     publishCtx,
		stopPublish:    stop,
	}
}

// Close waits for in-flight update publishes, cancelling them once ctx is
// done. RecordResult stops publishing after Close.
func (s *Service) Close(ctx context.Context) {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.publishing.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.stopPublish()
		<-done
	}
	s.stopPublish()
}

// RecordResult adds a completed match to every window. Bots are skipped.
func (s *Service) RecordResult(ctx context.Context, m *match.Match) error {
	if !m.IsCompleted() {
		return fmt.Errorf("record result: match %s is not completed", m.ID)
	}

	now := s.now().UTC()
	winner := m.WinnerID()
	recorded := false

	for _, p := range []match.Player{m.PlayerA, m.PlayerB} {
		if p.IsBot {
			continue
		}
		entry := Entry{
			PlayerID: p.ID,
			Runs:     p.Runs,
			Wickets:  p.Wickets,
			Games:    1,
		}
		switch winner {
		case p.ID:
			entry.Wins = 1
		case match.WinnerTie:
			entry.Ties = 1
		}

		for _, window := range Windows {
			if err := s.updateWindow(ctx, window, now, entry); err != nil {
				return err
			}
		}
		recorded = true
	}

	if recorded {
		s.publishInBackground(m.ID)
	}
	return nil
}

// publishInBackground announces the update without holding up the caller.
func (s *Service) publishInBackground(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.publishing.Add(1)
	go func() {
		defer s.publishing.Done()
		ctx, cancel := context.WithTimeout(s.publishCtx, s.publishTimeout)
		defer cancel()
		s.publishUpdate(ctx, matchID)
	}()
}

// Top retrieves the top entries for the current bucket of window.
func (s *Service) Top(ctx context.Context, window string, limit int) ([]Entry, error) {
	if !IsValidWindow(window) {
		return nil, ErrUnknownWindow
	}
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	zKey := s.leaderboardKey(window, s.now().UTC())
	results, err := s.redis.ZRevRangeWithScores(ctx, zKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		playerID, ok := z.Member.(string)
		if !ok {
			continue
		}
		entry, err := s.readMeta(ctx, zKey, playerID)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read leaderboard metadata")
			continue
		}
		entry.Runs = int(z.Score)
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (s *Service) updateWindow(ctx context.Context, window string, now time.Time, entry Entry) error {
	zKey := s.leaderboardKey(window, now)
	metaKey := s.metaKey(zKey, entry.PlayerID)

	pipe := s.redis.TxPipeline()
	pipe.ZIncrBy(ctx, zKey, float64(entry.Runs), entry.PlayerID)
	pipe.HIncrBy(ctx, metaKey, "wins", int64(entry.Wins))
	pipe.HIncrBy(ctx, metaKey, "ties", int64(entry.Ties))
	pipe.HIncrBy(ctx, metaKey, "games", int64(entry.Games))
	pipe.HIncrBy(ctx, metaKey, "wickets", int64(entry.Wickets))
	if ttl := windowTTL(window); ttl > 0 {
		pipe.Expire(ctx, zKey, ttl)
		pipe.Expire(ctx, metaKey, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update leaderboard window %s: %w", window, err)
	}
	return nil
}

func (s *Service) publishUpdate(ctx context.Context, matchID string) {
	for _, window := range Windows {
		entries, err := s.Top(ctx, window, 10)
		if err != nil {
			s.logger.Warn().Err(err).Str("window", window).Msg("failed to collect leaderboard update")
			continue
		}
		if len(entries) == 0 {
			continue
		}

		payload := ws.LeaderboardUpdatePayload{
			Window:  window,
			MatchID: matchID,
			Top:     toWSEntries(entries),
		}
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to marshal leaderboard update")
			continue
		}
		if err := s.redis.Publish(ctx, s.pubsubChannel, data).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish leaderboard update")
		}
	}
}

func (s *Service) readMeta(ctx context.Context, zKey, playerID string) (*Entry, error) {
	data, err := s.redis.HGetAll(ctx, s.metaKey(zKey, playerID)).Result()
	if err != nil {
		return nil, err
	}

	return &Entry{
		PlayerID: playerID,
		Wins:     parseInt(data["wins"]),
		Ties:     parseInt(data["ties"]),
		Games:    parseInt(data["games"]),
		Wickets:  parseInt(data["wickets"]),
	}, nil
}

// leaderboardKey buckets daily and weekly windows by calendar period, e.g.
// lb:daily:2026-10-16 and lb:weekly:2026-W42.
func (s *Service) leaderboardKey(window string, now time.Time) string {
	switch window {
	case WindowDaily:
		return fmt.Sprintf("%s:%s:%s", s.prefix, window, now.Format(time.DateOnly))
	case WindowWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%s:%s:%d-W%02d", s.prefix, window, year, week)
	default:
		return fmt.Sprintf("%s:%s", s.prefix, window)
	}
}

func (s *Service) metaKey(zKey, playerID string) string {
	return fmt.Sprintf("%s:meta:%s", zKey, playerID)
}

// windowTTL keeps a finished bucket around long enough for late reads and
// snapshots.
func windowTTL(window string) time.Duration {
	switch window {
	case WindowDaily:
		return 48 * time.Hour
	case WindowWeekly:
		return 15 * 24 * time.Hour
	default:
		return 0
	}
}

// IsValidWindow reports whether window is one of Windows.
func IsValidWindow(window string) bool {
	switch window {
	case WindowDaily, WindowWeekly, WindowAllTime:
		return true
	default:
		return false
	}
}
