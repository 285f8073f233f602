package match

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/superover/internal/match/bot"
	"github.com/gokatarajesh/superover/internal/match/scoring"
	"github.com/gokatarajesh/superover/internal/metrics"
)

// BotIDPrefix starts every bot player id and is reserved for bots.
const BotIDPrefix = "bot_"

// ResultRecorder is told about every match exactly once, when it completes.
type ResultRecorder interface {
	RecordResult(ctx context.Context, m *Match) error
}

// Notifier pushes match changes to live viewers.
type Notifier interface {
	MatchUpdated(m *Match)
}

// Service owns the match lifecycle: creation, ball application, and completion.
type Service struct {
	store     Store
	locker    Locker
	profiles  bot.Profiles
	engine    *scoring.Engine
	recorders []ResultRecorder
	notifier  Notifier
	metrics   *metrics.Recorder
	disabled  bool
	now       func() time.Time
	logger    zerolog.Logger
}

// ServiceOptions configures the match service. The zero value is usable.
type ServiceOptions struct {
	// Disabled makes CreateMatch return ErrFeatureDisabled. Matches already
	// in progress can still be read and played to completion.
	Disabled bool
	Profiles bot.Profiles
	Random   scoring.RandomSource
	// Locker defaults to an in-process KeyedMutex.
	Locker    Locker
	Recorders []ResultRecorder
	Notifier  Notifier
	Metrics   *metrics.Recorder
	Clock     func() time.Time
}

// NewService creates a match service.
func NewService(store Store, opts ServiceOptions, logger zerolog.Logger) *Service {
	profiles := opts.Profiles
	if len(profiles) == 0 {
		profiles = bot.DefaultProfiles()
	}
	locker := opts.Locker
	if locker == nil {
		locker = NewKeyedMutex()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		store:     store,
		locker:    locker,
		profiles:  profiles,
		engine:    scoring.NewEngine(opts.Random),
		recorders: opts.Recorders,
		notifier:  opts.Notifier,
		metrics:   opts.Metrics,
		disabled:  opts.Disabled,
		now:       clock,
		logger:    logger.With().Str("component", "match_service").Logger(),
	}
}

// Enabled reports whether matches can be played.
func (s *Service) Enabled() bool {
	return !s.disabled
}

// Profiles returns the bot tier table in effect.
func (s *Service) Profiles() bot.Profiles {
	return s.profiles
}

// Random returns the service's randomness source for collaborators that
// need to draw from the same stream.
func (s *Service) Random() scoring.RandomSource {
	return s.engine.Source()
}

// CreateMatch starts a bot match for req.PlayerAID.
func (s *Service) CreateMatch(ctx context.Context, req CreateRequest) (*Match, error) {
	if s.disabled {
		return nil, ErrFeatureDisabled
	}
	if strings.TrimSpace(req.PlayerAID) == "" {
		return nil, ErrPlayerAIDRequired
	}
	if strings.HasPrefix(req.PlayerAID, BotIDPrefix) {
		return nil, ErrReservedPlayerID
	}

	mode := req.Mode
	if mode == "" {
		mode = ModeBot
	}
	switch mode {
	case ModeBot:
	case ModeFriend:
		return nil, ErrFriendModeNotImplemented
	default:
		return nil, ErrInvalidMode
	}

	profile, err := s.profiles.Strict(req.Difficulty)
	if err != nil {
		return nil, ErrInvalidDifficulty
	}

	now := s.now().UTC()
	accuracy := profile.Accuracy
	m := &Match{
		ID: newMatchID(now),
		PlayerA: Player{
			ID: req.PlayerAID,
		},
		PlayerB: Player{
			ID:         BotIDPrefix + profile.Difficulty,
			IsBot:      true,
			Difficulty: profile.Difficulty,
			Accuracy:   &accuracy,
		},
		Mode:        ModeBot,
		Status:      StatusInProgress,
		CurrentBall: 0,
		MaxBalls:    MaxBalls,
		StartedAt:   now,
	}

	if err := s.store.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("store match: %w", err)
	}

	s.metrics.MatchCreated(profile.Difficulty)
	s.logger.Info().
		Str("match_id", m.ID).
		Str("player_id", m.PlayerA.ID).
		Str("difficulty", profile.Difficulty).
		Msg("match created")

	return m, nil
}

// GetMatch returns the current state of a match.
func (s *Service) GetMatch(ctx context.Context, matchID string) (*Match, error) {
	if matchID == "" {
		return nil, ErrMatchIDRequired
	}

	m, err := s.store.Get(ctx, matchID)
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load match: %w", err)
	}
	return m, nil
}

// SubmitAnswer applies one ball for req.PlayerID and, when the opponent is
// a bot with balls left, one simulated ball for the bot. The whole
// read-modify-write runs under the match lock.
func (s *Service) SubmitAnswer(ctx context.Context, req AnswerRequest) (*AnswerResult, error) {
	result, err := s.submitAnswer(ctx, req)
	if err != nil {
		var domainErr *Error
		if errors.As(err, &domainErr) {
			s.metrics.SubmitRejected(domainErr.Code)
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) submitAnswer(ctx context.Context, req AnswerRequest) (*AnswerResult, error) {
	if req.MatchID == "" {
		return nil, ErrMatchIDRequired
	}
	if req.PlayerID == "" {
		return nil, ErrPlayerIDRequired
	}

	unlock, err := s.locker.Lock(ctx, req.MatchID)
	if err != nil {
		if errors.Is(err, ErrMatchBusy) {
			return nil, err
		}
		return nil, fmt.Errorf("lock match: %w", err)
	}
	defer unlock()

	m, err := s.GetMatch(ctx, req.MatchID)
	if err != nil {
		return nil, err
	}
	if m.IsCompleted() {
		return nil, ErrMatchCompleted
	}

	player, opponent, ok := m.Sides(req.PlayerID)
	if !ok {
		return nil, ErrInvalidPlayer
	}
	if player.BallsLeft(m.MaxBalls) == 0 {
		return nil, ErrNoBallsLeft
	}

	outcome := s.engine.Score(req.IsCorrect)
	if err := player.Record(outcome, m.MaxBalls); err != nil {
		return nil, ErrNoBallsLeft
	}
	s.metrics.Ball(sideLabel(player), outcome.Runs, outcome.Wicket())

	var botOutcome *scoring.Outcome
	if opponent.IsBot && opponent.BallsLeft(m.MaxBalls) > 0 {
		o := bot.SimulateTurn(s.engine.Source(), s.botAccuracy(opponent))
		if err := opponent.Record(o, m.MaxBalls); err == nil {
			botOutcome = &o
			s.metrics.Ball(sideLabel(opponent), o.Runs, o.Wicket())
		}
	}

	m.CurrentBall = max(m.PlayerA.Balls, m.PlayerB.Balls)

	completedNow := false
	if m.PlayerA.Balls >= m.MaxBalls && m.PlayerB.Balls >= m.MaxBalls {
		completedAt := s.now().UTC()
		winner := scoring.DecideWinner(m.PlayerA.ID, m.PlayerA.Innings, m.PlayerB.ID, m.PlayerB.Innings)
		m.Status = StatusCompleted
		m.CompletedAt = &completedAt
		m.Winner = &winner
		completedNow = true
	}

	if err := s.store.Put(ctx, m); err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("store match: %w", err)
	}

	s.logger.Info().
		Str("match_id", m.ID).
		Str("player_id", player.ID).
		Bool("correct", outcome.IsCorrect).
		Int("runs", outcome.Runs).
		Int("ball", player.Balls).
		Msg("ball played")

	if completedNow {
		s.complete(ctx, m)
	}
	if s.notifier != nil {
		s.notifier.MatchUpdated(m.Clone())
	}

	return &AnswerResult{
		Match:         m,
		Outcome:       outcome,
		BotOutcome:    botOutcome,
		PlayerStats:   player.Stats(),
		OpponentStats: opponent.Stats(),
	}, nil
}

// complete runs the side effects of a match reaching its terminal state.
// Failures are logged; the match itself is already persisted.
func (s *Service) complete(ctx context.Context, m *Match) {
	winner := m.WinnerID()
	s.logger.Info().
		Str("match_id", m.ID).
		Str("winner", winner).
		Int("player_a_runs", m.PlayerA.Runs).
		Int("player_b_runs", m.PlayerB.Runs).
		Msg("match completed")

	result := "loss"
	switch winner {
	case WinnerTie:
		result = "tie"
	case m.PlayerA.ID:
		result = "win"
	}
	s.metrics.MatchCompleted(result)

	for _, rec := range s.recorders {
		if err := rec.RecordResult(ctx, m.Clone()); err != nil {
			s.logger.Warn().Err(err).Str("match_id", m.ID).Msg("failed to record match result")
		}
	}
}

func (s *Service) botAccuracy(p *Player) float64 {
	if p.Accuracy != nil {
		return *p.Accuracy
	}
	return s.profiles.Lenient(p.Difficulty).Accuracy
}

func sideLabel(p *Player) string {
	if p.IsBot {
		return "bot"
	}
	return "human"
}

// newMatchID builds ids of the form match_<unix millis>_<9 hex chars>.
func newMatchID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("match_%d_%s", now.UnixMilli(), suffix)
}
