package question

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/superover/internal/match/scoring"
	"github.com/gokatarajesh/superover/internal/metrics"
	"github.com/gokatarajesh/superover/internal/question/external"
)

const (
	defaultPoolSize     = 20
	defaultRefreshAfter = 2 * time.Minute
	refreshQueueSize    = 16
)

// PoolCache defines cache behavior (implemented by Redis-backed Cache).
type PoolCache interface {
	Get(ctx context.Context, key PoolKey) (*Pool, error)
	Set(ctx context.Context, key PoolKey, pool Pool) error
}

type opentdbProvider interface {
	Fetch(ctx context.Context, amount int, category, difficulty string) ([]external.OpenTDBQuestion, error)
}

type triviaProvider interface {
	Fetch(ctx context.Context, amount int, category, difficulty string) ([]external.TriviaAPIQuestion, error)
}

// ServiceOptions tunes pool sizing and refresh behavior.
type ServiceOptions struct {
	// PoolSize is how many questions are requested upstream per pool.
	PoolSize int
	// RefreshAfter is the pool age after which a cache hit schedules a
	// background refresh.
	RefreshAfter time.Duration
	Random       scoring.RandomSource
	Metrics      *metrics.Recorder
	Clock        func() time.Time
}

// Service serves question overs: Redis cache first, then OpenTDB, then
// The Trivia API.
type Service struct {
	cache        PoolCache
	opentdb      opentdbProvider
	triviaAPI    triviaProvider
	poolSize     int
	refreshAfter time.Duration
	rng          scoring.RandomSource
	metrics      *metrics.Recorder
	now          func() time.Time
	refreshC     chan PoolKey
	logger       zerolog.Logger
}

// NewService wires the providers. Any of cache, opentdb and trivia may be nil.
func NewService(cache PoolCache, opentdb opentdbProvider, trivia triviaProvider, opts ServiceOptions, logger zerolog.Logger) *Service {
	poolSize := opts.PoolSize
	if poolSize < OverSize {
		poolSize = defaultPoolSize
	}
	refreshAfter := opts.RefreshAfter
	if refreshAfter <= 0 {
		refreshAfter = defaultRefreshAfter
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		cache:        cache,
		opentdb:      opentdb,
		triviaAPI:    trivia,
		poolSize:     poolSize,
		refreshAfter: refreshAfter,
		rng:          scoring.Locked(opts.Random),
		metrics:      opts.Metrics,
		now:          clock,
		refreshC:     make(chan PoolKey, refreshQueueSize),
		logger:       logger.With().Str("component", "question_service").Logger(),
	}
}

// Queue delivers pool keys that should be refreshed in the background.
func (s *Service) Queue() <-chan PoolKey {
	return s.refreshC
}

// FetchOver returns OverSize questions with shuffled options.
func (s *Service) FetchOver(ctx context.Context, category, difficulty string) ([]Question, error) {
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))
	if !validDifficulty(difficulty) {
		return nil, ErrInvalidDifficulty
	}
	key := PoolKey{Category: strings.TrimSpace(category), Difficulty: difficulty}

	pool, source, err := s.pool(ctx, key)
	if err != nil {
		return nil, err
	}

	s.metrics.QuestionsFetched(source)
	return s.draw(pool.Questions), nil
}

// Refresh fetches a new pool for key from upstream and caches it.
func (s *Service) Refresh(ctx context.Context, key PoolKey) (*Pool, error) {
	questions, source, err := s.fetchUpstream(ctx, key)
	if len(questions) < OverSize {
		if err == nil {
			err = fmt.Errorf("%w: need %d got %d", ErrInsufficientQuestions, OverSize, len(questions))
		}
		return nil, err
	}

	pool := &Pool{Questions: questions, Source: source, FetchedAt: s.now().UTC()}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, *pool); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache question pool")
		}
	}
	return pool, nil
}

func (s *Service) pool(ctx context.Context, key PoolKey) (*Pool, string, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Msg("question cache read failed")
		case cached != nil && len(cached.Questions) >= OverSize:
			if s.now().Sub(cached.FetchedAt) > s.refreshAfter {
				s.enqueue(key)
			}
			return cached, SourceCache, nil
		}
	}

	pool, err := s.Refresh(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return pool, pool.Source, nil
}

func (s *Service) enqueue(key PoolKey) {
	select {
	case s.refreshC <- key:
	default:
		s.logger.Debug().Str("category", key.Category).Str("difficulty", key.Difficulty).Msg("refresh queue full")
	}
}

// fetchUpstream tries OpenTDB and tops up from The Trivia API. OpenTDB only
// understands numeric category ids and The Trivia API only slugs, so a
// category is sent to whichever provider can interpret it.
func (s *Service) fetchUpstream(ctx context.Context, key PoolKey) ([]Question, string, error) {
	var (
		combined []Question
		seen     = make(map[string]struct{})
		sources  []string
		errs     []error
	)
	add := func(q Question) {
		if _, dup := seen[q.ID]; dup || len(combined) >= s.poolSize {
			return
		}
		seen[q.ID] = struct{}{}
		combined = append(combined, q)
	}

	_, numericErr := strconv.Atoi(key.Category)
	numericCategory := key.Category != "" && numericErr == nil

	if s.opentdb != nil && (key.Category == "" || numericCategory) {
		qs, err := s.opentdb.Fetch(ctx, s.poolSize, key.Category, key.Difficulty)
		if err != nil {
			errs = append(errs, fmt.Errorf("opentdb: %w", err))
		}
		before := len(combined)
		for _, q := range qs {
			if nq, ok := normalizeOpenTDB(q); ok {
				add(nq)
			}
		}
		if len(combined) > before {
			sources = append(sources, SourceOpenTDB)
		}
	}

	if s.triviaAPI != nil && len(combined) < s.poolSize && !numericCategory {
		qs, err := s.triviaAPI.Fetch(ctx, s.poolSize-len(combined), key.Category, key.Difficulty)
		if err != nil {
			errs = append(errs, fmt.Errorf("triviaapi: %w", err))
		}
		before := len(combined)
		for _, q := range qs {
			if nq, ok := normalizeTriviaAPI(q); ok {
				add(nq)
			}
		}
		if len(combined) > before {
			sources = append(sources, SourceTriviaAPI)
		}
	}

	if len(errs) > 0 {
		s.logger.Warn().Err(errors.Join(errs...)).Int("fetched", len(combined)).Msg("question provider failed")
	}

	source := SourceMixed
	if len(sources) == 1 {
		source = sources[0]
	}
	if len(combined) < OverSize && len(errs) > 0 {
		return combined, source, fmt.Errorf("fetch questions: %w", errors.Join(errs...))
	}
	return combined, source, nil
}

// draw picks OverSize distinct questions and shuffles each one's options.
func (s *Service) draw(pool []Question) []Question {
	idx := make([]int, len(pool))
	for i := range idx {
		idx[i] = i
	}
	over := make([]Question, 0, OverSize)
	for i := 0; i < OverSize && i < len(idx); i++ {
		j := i + s.rng.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]

		q := pool[idx[i]]
		q.Options = append([]string(nil), q.Options...)
		for k := len(q.Options) - 1; k > 0; k-- {
			m := s.rng.IntN(k + 1)
			q.Options[k], q.Options[m] = q.Options[m], q.Options[k]
		}
		over = append(over, q)
	}
	return over
}

func normalizeOpenTDB(q external.OpenTDBQuestion) (Question, bool) {
	if q.Type != "" && q.Type != "multiple" {
		return Question{}, false
	}
	prompt := html.UnescapeString(q.Question)
	correct := html.UnescapeString(q.CorrectAnswer)
	if prompt == "" || correct == "" || len(q.IncorrectAnswer) == 0 {
		return Question{}, false
	}
	options := make([]string, 0, len(q.IncorrectAnswer)+1)
	for _, o := range q.IncorrectAnswer {
		options = append(options, html.UnescapeString(o))
	}
	options = append(options, correct)

	return Question{
		ID:            uuid.NewSHA1(uuid.NameSpaceURL, []byte("opentdb:"+prompt)).String(),
		Prompt:        prompt,
		Options:       options,
		CorrectAnswer: correct,
		Difficulty:    q.Difficulty,
		Category:      html.UnescapeString(q.Category),
		Source:        SourceOpenTDB,
	}, true
}

func normalizeTriviaAPI(q external.TriviaAPIQuestion) (Question, bool) {
	if q.Question == "" || q.Correct == "" || len(q.Incorrect) == 0 {
		return Question{}, false
	}
	id := q.ID
	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceURL, []byte("triviaapi:"+q.Question)).String()
	}
	options := append(append([]string(nil), q.Incorrect...), q.Correct)

	return Question{
		ID:            id,
		Prompt:        q.Question,
		Options:       options,
		CorrectAnswer: q.Correct,
		Difficulty:    q.Difficulty,
		Category:      q.Category,
		Source:        SourceTriviaAPI,
	}, true
}
