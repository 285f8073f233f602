package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/superover/internal/match"
)

type resultStore interface {
	InsertResult(ctx context.Context, arg InsertResultParams) (int64, error)
}

// MatchRepository archives completed matches in Postgres.
type MatchRepository struct {
	store  resultStore
	logger zerolog.Logger
}

var _ match.ResultRecorder = (*MatchRepository)(nil)

// NewMatchRepository constructs a new match repository.
func NewMatchRepository(store resultStore, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		store:  store,
		logger: logger.With().Str("component", "match_repo").Logger(),
	}
}

// RecordResult inserts the final state of m. Archiving the same match twice
// is a no-op.
func (r *MatchRepository) RecordResult(ctx context.Context, m *match.Match) error {
	params, err := resultParams(m)
	if err != nil {
		return err
	}

	rows, err := r.store.InsertResult(ctx, params)
	if err != nil {
		return fmt.Errorf("archive match %s: %w", m.ID, err)
	}
	if rows == 0 {
		r.logger.Debug().Str("match_id", m.ID).Msg("match already archived")
	}
	return nil
}

func resultParams(m *match.Match) (InsertResultParams, error) {
	if !m.IsCompleted() {
		return InsertResultParams{}, fmt.Errorf("archive match %s: not completed", m.ID)
	}

	doc, err := json.Marshal(m)
	if err != nil {
		return InsertResultParams{}, fmt.Errorf("encode match %s: %w", m.ID, err)
	}

	completedAt := time.Now().UTC()
	if m.CompletedAt != nil {
		completedAt = *m.CompletedAt
	}

	return InsertResultParams{
		MatchID:           m.ID,
		Mode:              m.Mode,
		PlayerAID:         m.PlayerA.ID,
		PlayerARuns:       int32(m.PlayerA.Runs),
		PlayerAWickets:    int32(m.PlayerA.Wickets),
		PlayerBID:         m.PlayerB.ID,
		PlayerBIsBot:      m.PlayerB.IsBot,
		PlayerBDifficulty: pgtype.Text{String: m.PlayerB.Difficulty, Valid: m.PlayerB.Difficulty != ""},
		PlayerBRuns:       int32(m.PlayerB.Runs),
		PlayerBWickets:    int32(m.PlayerB.Wickets),
		Winner:            m.WinnerID(),
		StartedAt:         m.StartedAt,
		CompletedAt:       completedAt,
		Document:          doc,
	}, nil
}
