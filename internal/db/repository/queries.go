package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertResult = `
INSERT INTO superover_results (
    match_id, mode, player_a_id, player_a_runs, player_a_wickets,
    player_b_id, player_b_is_bot, player_b_difficulty, player_b_runs, player_b_wickets,
    winner, started_at, completed_at, document
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (match_id) DO NOTHING
`

// InsertResultParams is one archived match.
type InsertResultParams struct {
	MatchID           string
	Mode              string
	PlayerAID         string
	PlayerARuns       int32
	PlayerAWickets    int32
	PlayerBID         string
	PlayerBIsBot      bool
	PlayerBDifficulty pgtype.Text
	PlayerBRuns       int32
	PlayerBWickets    int32
	Winner            string
	StartedAt         time.Time
	CompletedAt       time.Time
	Document          []byte
}

// InsertResult archives a completed match and reports how many rows were
// written (0 when the match was already archived).
func (q *Queries) InsertResult(ctx context.Context, arg InsertResultParams) (int64, error) {
	tag, err := q.db.Exec(ctx, insertResult,
		arg.MatchID,
		arg.Mode,
		arg.PlayerAID,
		arg.PlayerARuns,
		arg.PlayerAWickets,
		arg.PlayerBID,
		arg.PlayerBIsBot,
		arg.PlayerBDifficulty,
		arg.PlayerBRuns,
		arg.PlayerBWickets,
		arg.Winner,
		arg.StartedAt,
		arg.CompletedAt,
		arg.Document,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const insertSnapshot = `
INSERT INTO leaderboard_snapshots (window_name, generated_at, entries, source_hash)
VALUES ($1, $2, $3, $4)
`

// InsertSnapshotParams is one leaderboard snapshot row.
type InsertSnapshotParams struct {
	WindowName  string
	GeneratedAt time.Time
	Entries     []byte
	SourceHash  string
}

func (q *Queries) InsertSnapshot(ctx context.Context, arg InsertSnapshotParams) error {
	_, err := q.db.Exec(ctx, insertSnapshot, arg.WindowName, arg.GeneratedAt, arg.Entries, arg.SourceHash)
	return err
}

const getLatestSnapshot = `
SELECT window_name, generated_at, entries, source_hash
FROM leaderboard_snapshots
WHERE window_name = $1
ORDER BY generated_at DESC
LIMIT 1
`

// LeaderboardSnapshot mirrors a leaderboard_snapshots row.
type LeaderboardSnapshot struct {
	WindowName  string
	GeneratedAt time.Time
	Entries     []byte
	SourceHash  string
}

func (q *Queries) GetLatestSnapshot(ctx context.Context, windowName string) (LeaderboardSnapshot, error) {
	row := q.db.QueryRow(ctx, getLatestSnapshot, windowName)
	var i LeaderboardSnapshot
	err := row.Scan(&i.WindowName, &i.GeneratedAt, &i.Entries, &i.SourceHash)
	return i, err
}
