package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/cartera/internal/config"
	"github.com/MrJamesThe3rd/cartera/internal/database"
)

func main() {
	cmd := flag.String("cmd", "up", "up, down, version or force")
	steps := flag.Int("steps", 0, "number of migrations to roll back with down (0 = all)")
	version := flag.Int("version", -1, "version to force")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(*cmd, *steps, *version); err != nil {
		slog.Error("migration failed", "cmd", *cmd, "error", err)
		os.Exit(1)
	}
}

func run(cmd string, steps, version int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.New(context.Background(), cfg.ConnectionString())
	if err != nil {
		return err
	}

	m, err := database.NewMigrator(db)
	if err != nil {
		db.Close()
		return err
	}
	defer m.Close()

	switch cmd {
	case "up":
		if err := database.Up(m); err != nil {
			return err
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}

		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("rolling back: %w", err)
		}
	case "force":
		if version < 0 {
			return errors.New("force requires -version")
		}

		if err := m.Force(version); err != nil {
			return fmt.Errorf("forcing version %d: %w", version, err)
		}
	case "version":
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	v, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("reading version: %w", err)
	}

	slog.Info("migrations", "cmd", cmd, "version", v, "dirty", dirty)

	return nil
}
