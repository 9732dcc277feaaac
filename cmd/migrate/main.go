package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom-backend/internal/config"
	"github.com/stemsi/quizroom-backend/internal/logger"
)

func main() {
	var migrationDir string
	flag.StringVar(&migrationDir, "path", "migrations", "Path to migration files")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://"+migrationDir, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("path", migrationDir).Msg("Failed to initialize migrations")
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("Failed to close migrator")
		}
	}()

	switch args[0] {
	case "up":
		apply(log, m, "up", m.Up)
	case "down":
		apply(log, m, "down", m.Down)
	case "steps":
		n := intArg(log, args, "steps")
		apply(log, m, "steps", func() error { return m.Steps(n) })
	case "version":
		printVersion(log, m)
	case "force":
		v := intArg(log, args, "force")
		if err := m.Force(v); err != nil {
			log.Fatal().Err(err).Int("version", v).Msg("Force failed")
		}
		printVersion(log, m)
	default:
		printUsage()
		os.Exit(2)
	}
}

// apply runs a migration step and reports the schema version it left behind.
// Having nothing to apply is not an error.
func apply(log zerolog.Logger, m *migrate.Migrate, name string, step func() error) {
	err := step()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Str("command", name).Msg("No migrations to apply")
	} else if err != nil {
		log.Fatal().Err(err).Str("command", name).Msg("Migration failed")
	}
	printVersion(log, m)
}

func printVersion(log zerolog.Logger, m *migrate.Migrate) {
	version, dirty, err := m.Version()
	line, err := describeVersion(version, dirty, err)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read schema version")
	}
	fmt.Println(line)
	if dirty {
		log.Warn().Uint("version", version).Msg("Schema is dirty; fix the failed migration, then run force <version>")
	}
}

// describeVersion formats the result of Migrate.Version. A database with no
// migrations applied is not an error.
func describeVersion(version uint, dirty bool, err error) (string, error) {
	if errors.Is(err, migrate.ErrNilVersion) {
		return "Schema version: none (no migrations applied)", nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Schema version: %d, dirty: %t", version, dirty), nil
}

func intArg(log zerolog.Logger, args []string, command string) int {
	if len(args) < 2 {
		log.Fatal().Msgf("%s requires a numeric argument", command)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatal().Err(err).Str("arg", args[1]).Msgf("Invalid %s argument", command)
	}
	return n
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [flags] <command>")
	fmt.Fprintln(os.Stderr, "Commands: up, down, steps <n>, version, force <version>")
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}
