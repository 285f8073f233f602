package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/superover/internal/auth"
	"github.com/gokatarajesh/superover/internal/auth/jwt"
	"github.com/gokatarajesh/superover/internal/config"
	"github.com/gokatarajesh/superover/internal/db/repository"
	"github.com/gokatarajesh/superover/internal/leaderboard"
	"github.com/gokatarajesh/superover/internal/logging"
	"github.com/gokatarajesh/superover/internal/match"
	"github.com/gokatarajesh/superover/internal/match/bot"
	"github.com/gokatarajesh/superover/internal/metrics"
	"github.com/gokatarajesh/superover/internal/question"
	"github.com/gokatarajesh/superover/internal/question/external"
	"github.com/gokatarajesh/superover/internal/server"
	ws "github.com/gokatarajesh/superover/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
// pool and redis are nil when not configured.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server
	hub   *ws.Hub

	lbService     *leaderboard.Service
	lbBroadcaster *leaderboard.Broadcaster
	snapshots     *leaderboard.SnapshotScheduler
	refresher     *question.RefreshWorker
	bgCancels     []context.CancelFunc
}

// New bootstraps logger, optional Postgres and Redis, the match engine and
// the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Str("store", cfg.SuperOver.Store).Msg("starting application bootstrap")

	var pool *pgxpool.Pool
	if cfg.Postgres.Enabled() {
		p, err := pgxpool.New(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		pool = p
	} else {
		logger.Warn().Msg("PG_HOST not set; result archive and leaderboard snapshots disabled")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
	} else {
		logger.Warn().Msg("REDIS_ADDR not set; leaderboards and question cache disabled")
	}

	recorder := metrics.New(prometheus.DefaultRegisterer)
	wsHub := ws.NewHub(logger)

	var (
		recorders     []match.ResultRecorder
		leaderboardSv *leaderboard.Service
		snapshotStore leaderboard.SnapshotStore
	)
	if redisClient != nil {
		leaderboardSv = leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{
			TopN: cfg.Leaderboard.SnapshotTopN,
		})
		recorders = append(recorders, leaderboardSv)
	}
	if pool != nil {
		queries := repository.New(pool)
		recorders = append(recorders, repository.NewMatchRepository(queries, logger))
		snapshotStore = repository.NewSnapshotRepository(queries)
	}

	var (
		store  match.Store
		locker match.Locker
	)
	switch cfg.SuperOver.Store {
	case config.StoreRedis:
		store = match.NewRedisStore(redisClient, cfg.SuperOver.MatchTTL, logger)
		locker = match.NewRedisLocker(redisClient, cfg.SuperOver.LockTTL)
	default:
		store = match.NewMemoryStore()
	}

	profiles := bot.NewProfiles(
		bot.Profile{Accuracy: cfg.Bot.EasyAccuracy, AnswerDelay: cfg.Bot.EasyDelay},
		bot.Profile{Accuracy: cfg.Bot.MediumAccuracy, AnswerDelay: cfg.Bot.MediumDelay},
		bot.Profile{Accuracy: cfg.Bot.HardAccuracy, AnswerDelay: cfg.Bot.HardDelay},
	)

	matchSvc := match.NewService(store, match.ServiceOptions{
		Disabled:  !cfg.SuperOver.Enabled,
		Profiles:  profiles,
		Locker:    locker,
		Recorders: recorders,
		Notifier:  match.NewLiveFeed(wsHub, logger),
		Metrics:   recorder,
	}, logger)
	if !matchSvc.Enabled() {
		logger.Warn().Msg("SUPER_OVER_ENABLED=false; match endpoints will refuse requests")
	}
	opponent := bot.NewOpponent(profiles, matchSvc.Random())

	var poolCache question.PoolCache
	if redisClient != nil {
		poolCache = question.NewCache(redisClient, cfg.Questions.CacheTTL)
	}
	upstream := &http.Client{Timeout: cfg.Questions.FetchTimeout}
	questionSvc := question.NewService(
		poolCache,
		external.NewOpenTDBClient(cfg.Questions.OpenTDBURL, upstream),
		external.NewTriviaAPIClient(cfg.Questions.TriviaAPIURL, cfg.Questions.TriviaAPIKey, upstream),
		question.ServiceOptions{
			RefreshAfter: cfg.Questions.CacheTTL / 2,
			Random:       matchSvc.Random(),
			Metrics:      recorder,
		},
		logger,
	)

	app := &Application{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		redis:     redisClient,
		hub:       wsHub,
		refresher: question.NewRefreshWorker(questionSvc, questionSvc.Queue(), logger, cfg.Questions.FetchTimeout),
		bgCancels: make([]context.CancelFunc, 0, 1),
	}

	if redisClient != nil {
		app.lbService = leaderboardSv
		app.lbBroadcaster = leaderboard.NewBroadcaster(redisClient, wsHub, "", logger)
		if snapshotStore != nil && cfg.Leaderboard.SnapshotInterval > 0 {
			sched, err := leaderboard.NewSnapshotScheduler(
				leaderboardSv,
				snapshotStore,
				cfg.Leaderboard.SnapshotInterval,
				cfg.Leaderboard.SnapshotTopN,
				logger,
			)
			if err != nil {
				return nil, fmt.Errorf("snapshot scheduler: %w", err)
			}
			app.snapshots = sched
		}
	}

	var verifier auth.TokenVerifier
	if cfg.Auth.SupabaseJWTSecret != "" {
		verifier = jwt.NewVerifier(jwt.VerifierConfig{Secret: []byte(cfg.Auth.SupabaseJWTSecret)})
		logger.Info().Msg("bearer authentication enabled for match endpoints")
	}

	handlers := server.Handlers{
		Match:     match.NewHTTPHandlers(matchSvc, opponent, logger),
		Live:      match.NewLiveHandler(matchSvc, wsHub, logger),
		Questions: question.NewHTTPHandler(questionSvc, logger),
	}
	if leaderboardSv != nil || snapshotStore != nil {
		handlers.Leaderboard = leaderboard.NewHTTPHandler(leaderboardSv, snapshotStore, logger)
		handlers.LeaderboardLive = leaderboard.NewLiveHandler(handlers.Leaderboard, wsHub, logger)
	}

	app.http = server.NewHTTPServer(cfg, logger, server.Dependencies{Postgres: pool, Redis: redisClient}, handlers, verifier)
	return app, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	a.shutdown()
	return runErr
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.lbBroadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.lbBroadcaster.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("leaderboard broadcaster stopped")
			}
		}()
	}

	if a.snapshots != nil {
		a.snapshots.Start()
	}

	go a.refresher.Run(
		question.PoolKey{Difficulty: question.DifficultyEasy},
		question.PoolKey{Difficulty: question.DifficultyMedium},
		question.PoolKey{Difficulty: question.DifficultyHard},
	)
}

func (a *Application) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}
	if a.snapshots != nil {
		if err := a.snapshots.Shutdown(); err != nil {
			a.logger.Error().Err(err).Msg("snapshot scheduler shutdown error")
		}
	}
	a.refresher.Stop()
	if a.lbService != nil {
		a.lbService.Close(shutdownCtx)
	}
	a.hub.Close()

	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
}
