package repository

import (
	"context"
	"reflect"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/gokatarajesh/superover/internal/match"
	"github.com/gokatarajesh/superover/internal/match/scoring"
)

type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ret := m.Called(ctx, sql, args)
	return ret.Get(0).(pgconn.CommandTag), ret.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ret := m.Called(ctx, sql, args)
	rows, _ := ret.Get(0).(pgx.Rows)
	return rows, ret.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return m.Called(ctx, sql, args).Get(0).(pgx.Row)
}

// fakeRow scans values positionally into destinations of the same type.
type fakeRow struct {
	values []interface{}
	err    error
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

var finishedAt = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func finishedMatch() *match.Match {
	acc := 0.5
	winner := "user-1"
	done := finishedAt
	return &match.Match{
		ID:          "match_1760616000000_abcdef123",
		PlayerA:     match.Player{ID: "user-1", Innings: scoring.Innings{Runs: 14, Wickets: 2, Balls: 6}},
		PlayerB:     match.Player{ID: "bot_easy", IsBot: true, Difficulty: "easy", Accuracy: &acc, Innings: scoring.Innings{Runs: 9, Wickets: 3, Balls: 6}},
		Mode:        match.ModeBot,
		Status:      match.StatusCompleted,
		CurrentBall: 6,
		MaxBalls:    6,
		StartedAt:   finishedAt.Add(-3 * time.Minute),
		CompletedAt: &done,
		Winner:      &winner,
	}
}
