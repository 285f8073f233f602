package question

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RefreshWorker refetches stale question pools off the request path so
// cache hits stay fast and pools rotate.
type RefreshWorker struct {
	service   *Service
	queue     <-chan PoolKey
	logger    zerolog.Logger
	timeout   time.Duration
	shutdownC chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

func NewRefreshWorker(service *Service, queue <-chan PoolKey, logger zerolog.Logger, timeout time.Duration) *RefreshWorker {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &RefreshWorker{
		service:   service,
		queue:     queue,
		logger:    logger.With().Str("component", "question_refresh").Logger(),
		timeout:   timeout,
		shutdownC: make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Run blocks until Stop is called. warm keys are refreshed first.
func (w *RefreshWorker) Run(warm ...PoolKey) {
	defer close(w.done)
	for _, key := range warm {
		select {
		case <-w.shutdownC:
			return
		default:
			w.handle(key)
		}
	}
	for {
		select {
		case <-w.shutdownC:
			w.logger.Info().Msg("question refresher stopping")
			return
		case key := <-w.queue:
			w.handle(key)
		}
	}
}

func (w *RefreshWorker) handle(key PoolKey) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	pool, err := w.service.Refresh(ctx, key)
	if err != nil {
		w.logger.Warn().Err(err).
			Str("category", key.Category).
			Str("difficulty", key.Difficulty).
			Msg("pool refresh failed")
		return
	}
	w.logger.Debug().
		Str("category", key.Category).
		Str("difficulty", key.Difficulty).
		Int("questions", len(pool.Questions)).
		Msg("question pool refreshed")
}

// Stop ends Run and waits for an in-flight refresh to finish.
func (w *RefreshWorker) Stop() {
	w.stopOnce.Do(func() { close(w.shutdownC) })
	<-w.done
}
