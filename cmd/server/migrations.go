package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/platform/migrate"
)

// runMigrateCommand executes one migrate subcommand against the configured
// database and writes human-readable results to out.
func runMigrateCommand(ctx context.Context, command string, out io.Writer) error {
	cfg, l, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	// Every log line of one migrate invocation shares a correlation ID.
	l = l.With(
		slog.String("correlation_id", uuid.New().String()),
		slog.String("component", "migrations"),
		slog.String("command", command),
	)

	db, err := openDatabase(ctx, cfg.Database, l)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			l.Error("failed to close database connection", slog.String("error", cerr.Error()))
		}
	}()

	runner, err := migrate.NewRunner(db, cfg.Database.Driver, l)
	if err != nil {
		return fmt.Errorf("failed to create migration runner: %w", err)
	}

	return executeMigration(ctx, runner, command, out)
}

// executeMigration dispatches command to runner.
func executeMigration(ctx context.Context, runner *migrate.Runner, command string, out io.Writer) error {
	switch command {
	case "up":
		return runner.Up(ctx)

	case "down":
		return runner.Down(ctx)

	case "status":
		statuses, err := runner.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			if _, err := fmt.Fprintf(out, "%-8s %05d %s\n", state, s.Version, s.Path); err != nil {
				return err
			}
		}
		return nil

	case "version":
		v, err := runner.Version(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%d\n", v)
		return err

	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
}
