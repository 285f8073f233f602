package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/superover/internal/auth"
	"github.com/gokatarajesh/superover/internal/config"
	"github.com/gokatarajesh/superover/internal/leaderboard"
	"github.com/gokatarajesh/superover/internal/logging"
	"github.com/gokatarajesh/superover/internal/match"
	"github.com/gokatarajesh/superover/internal/question"
	httperrors "github.com/gokatarajesh/superover/pkg/http/errors"
)

// Dependencies are pinged by /v1/ping. Either may be nil when not configured.
type Dependencies struct {
	Postgres *pgxpool.Pool
	Redis    *redis.Client
}

// Handlers groups the feature handlers mounted on the mux. Only Match is
// required.
type Handlers struct {
	Match           *match.HTTPHandlers
	Live            http.Handler
	Questions       *question.HTTPHandler
	Leaderboard     *leaderboard.HTTPHandler
	LeaderboardLive http.Handler
}

// NewHTTPServer wires every route for the API service. A nil verifier leaves
// the match endpoints unauthenticated.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, deps Dependencies, handlers Handlers, verifier auth.TokenVerifier) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: NewHandler(logger, deps, handlers, verifier),
	}
}

// NewHandler builds the root handler; split out so tests can drive it with
// httptest.
func NewHandler(logger zerolog.Logger, deps Dependencies, handlers Handlers, verifier auth.TokenVerifier) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), deps); err != nil {
			logging.FromContext(r.Context(), logger).Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "upstream error", "")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	// Match endpoints sit behind bearer auth when a verifier is configured.
	matchMux := http.NewServeMux()
	matchMux.HandleFunc("/match/create", handlers.Match.CreateMatch)
	matchMux.HandleFunc("/match/answer", handlers.Match.SubmitAnswer)
	matchMux.HandleFunc("/match/bot-answer", handlers.Match.BotAnswer)
	matchMux.HandleFunc("/match/{$}", handlers.Match.MissingMatchID)
	matchMux.HandleFunc("/match/{matchId}", handlers.Match.GetMatch)
	if handlers.Questions != nil {
		matchMux.HandleFunc("/match/questions", handlers.Questions.HandleOver)
	}
	mux.Handle("/match/", auth.Middleware(verifier, logger)(matchMux))

	// Browsers cannot attach headers to WebSocket handshakes, so the
	// read-only live feed is served outside the auth wrapper.
	if handlers.Live != nil {
		mux.Handle("/match/{matchId}/live", handlers.Live)
	}

	if handlers.Leaderboard != nil {
		mux.HandleFunc("/leaderboards/{window}", handlers.Leaderboard.HandleGet)
	}
	if handlers.LeaderboardLive != nil {
		mux.Handle("/leaderboards/{window}/live", handlers.LeaderboardLive)
	}

	return logging.Middleware(logger)(mux)
}

func pingDependencies(ctx context.Context, deps Dependencies) error {
	if deps.Postgres != nil {
		if err := deps.Postgres.Ping(ctx); err != nil {
			return err
		}
	}
	if deps.Redis != nil {
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	return nil
}
