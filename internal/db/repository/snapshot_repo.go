package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gokatarajesh/superover/internal/leaderboard"
	"github.com/gokatarajesh/superover/pkg/http/ws"
)

type snapshotStore interface {
	InsertSnapshot(ctx context.Context, arg InsertSnapshotParams) error
	GetLatestSnapshot(ctx context.Context, windowName string) (LeaderboardSnapshot, error)
}

// SnapshotRepository persists leaderboard snapshots.
type SnapshotRepository struct {
	store snapshotStore
}

var _ leaderboard.SnapshotStore = (*SnapshotRepository)(nil)

// NewSnapshotRepository wraps the snapshot queries.
func NewSnapshotRepository(store snapshotStore) *SnapshotRepository {
	return &SnapshotRepository{store: store}
}

// InsertSnapshot stores a new snapshot row for snap.Window.
func (r *SnapshotRepository) InsertSnapshot(ctx context.Context, snap leaderboard.Snapshot) error {
	entries, err := json.Marshal(snap.Entries)
	if err != nil {
		return fmt.Errorf("encode snapshot entries: %w", err)
	}
	if err := r.store.InsertSnapshot(ctx, InsertSnapshotParams{
		WindowName:  snap.Window,
		GeneratedAt: snap.GeneratedAt,
		Entries:     entries,
		SourceHash:  snap.SourceHash,
	}); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the newest snapshot for window, or nil when none exists.
func (r *SnapshotRepository) LatestSnapshot(ctx context.Context, window string) (*leaderboard.Snapshot, error) {
	row, err := r.store.GetLatestSnapshot(ctx, window)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var entries []ws.LeaderboardEntry
	if err := json.Unmarshal(row.Entries, &entries); err != nil {
		return nil, fmt.Errorf("decode snapshot entries: %w", err)
	}
	return &leaderboard.Snapshot{
		Window:      row.WindowName,
		GeneratedAt: row.GeneratedAt,
		Entries:     entries,
		SourceHash:  row.SourceHash,
	}, nil
}
