package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/caarlos0/env/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gokatarajesh/superover/db/migrations"
	"github.com/gokatarajesh/superover/internal/config"
)

// commands maps each -command value to its goose call.
var commands = map[string]struct {
	run  func(db *sql.DB, dir string) error
	done string
}{
	"up":      {run: func(db *sql.DB, dir string) error { return goose.Up(db, dir) }, done: "migrations applied"},
	"down":    {run: func(db *sql.DB, dir string) error { return goose.Down(db, dir) }, done: "last migration rolled back"},
	"redo":    {run: func(db *sql.DB, dir string) error { return goose.Redo(db, dir) }, done: "last migration re-applied"},
	"version": {run: func(db *sql.DB, dir string) error { return goose.Version(db, dir) }},
	"status":  {run: func(db *sql.DB, dir string) error { return goose.Status(db, dir) }},
}

func commandNames() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func main() {
	var (
		command = flag.String("command", "up", "Migration command: "+commandNames())
		dir     = flag.String("dir", "", "Read migrations from this directory instead of the embedded set")
	)
	flag.Parse()

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "superover-migrator").Logger()

	cmd, ok := commands[*command]
	if !ok {
		log.Fatal().Str("command", *command).Msgf("unknown command, use one of: %s", commandNames())
	}

	_ = godotenv.Load("configs/.env")

	var pg config.Postgres
	if err := env.Parse(&pg); err != nil {
		log.Fatal().Err(err).Msg("failed to parse postgres config")
	}
	if !pg.Enabled() || pg.User == "" || pg.Database == "" {
		log.Fatal().Msg("PG_HOST, PG_USER and PG_DATABASE are required")
	}

	source, err := migrationSource(*dir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load migrations")
	}
	goose.SetBaseFS(source)

	db, err := sql.Open("pgx", pg.DSN())
	if err != nil {
		log.Fatal().Err(err).Str("host", pg.Host).Int("port", pg.Port).Msg("failed to open database connection")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Str("host", pg.Host).Msg("failed to ping database")
	}

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal().Err(err).Msg("failed to set goose dialect")
	}

	logger := log.With().Str("command", *command).Str("database", pg.Database).Logger()
	logger.Info().Str("migrations", describe(*dir)).Msg("running migrations")

	if err := cmd.run(db, "."); err != nil {
		logger.Fatal().Err(err).Msg("migration command failed")
	}
	if cmd.done != "" {
		logger.Info().Msg(cmd.done)
	}
}

// migrationSource returns the embedded migrations, or dir when it is set.
func migrationSource(dir string) (fs.FS, error) {
	if dir == "" {
		return migrations.FS, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

func describe(dir string) string {
	if dir == "" {
		return "embedded"
	}
	return dir
}
