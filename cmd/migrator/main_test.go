package main

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	source, err := migrationSource("")
	require.NoError(t, err)

	files, err := fs.Glob(source, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"00001_superover_results.sql", "00002_leaderboard_snapshots.sql"}, files)

	body, err := fs.ReadFile(source, files[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "-- +goose Down")
}

func TestMigrationSourceDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "00001_x.sql"), []byte("-- +goose Up\n"), 0o600))

	source, err := migrationSource(dir)
	require.NoError(t, err)
	files, err := fs.Glob(source, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"00001_x.sql"}, files)

	_, err = migrationSource(filepath.Join(dir, "00001_x.sql"))
	assert.ErrorContains(t, err, "not a directory")

	_, err = migrationSource(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestCommandNames(t *testing.T) {
	assert.Equal(t, "down, redo, status, up, version", commandNames())
}
