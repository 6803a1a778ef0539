package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasks-api/internal/api"
	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/generation"
	"github.com/phrazzld/tasks-api/internal/platform/gemini"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/platform/metrics"
	"github.com/phrazzld/tasks-api/internal/platform/migrate"
	"github.com/phrazzld/tasks-api/internal/platform/postgres"
	"github.com/phrazzld/tasks-api/internal/platform/sqlite"
	"github.com/phrazzld/tasks-api/internal/redact"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/store"
)

// application holds the shared dependencies of a running server so they can
// be wired once and released together on shutdown.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	db      *sql.DB
	metrics *metrics.Metrics

	taskStore   store.TaskStore
	taskService service.TaskService
	taskHandler *api.TaskHandler
}

// loadConfigAndLogger reads configuration and installs the JSON logger.
func loadConfigAndLogger() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("primary_generation_enabled", cfg.LLM.Enabled()))
	return cfg, l, nil
}

// openDatabase connects to the configured backend.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, l *slog.Logger) (*sql.DB, error) {
	l.Info("opening database",
		slog.String("driver", cfg.Driver),
		slog.String("url", redact.DatabaseURL(cfg.URL)))

	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg, l)
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.URL, l)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func newTaskStore(driver string, db *sql.DB, l *slog.Logger) store.TaskStore {
	if driver == config.DriverPostgres {
		return postgres.NewPostgresTaskStore(db, l)
	}
	return sqlite.NewSQLiteTaskStore(db, l)
}

// newApplication wires stores, generation, and handlers on top of an open
// database. m may be nil, in which case generation outcomes are not recorded.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	l *slog.Logger,
	db *sql.DB,
	m *metrics.Metrics,
) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  l,
		db:      db,
		metrics: m,
	}

	if cfg.Database.AutoMigrate {
		runner, err := migrate.NewRunner(db, cfg.Database.Driver, l)
		if err != nil {
			return nil, fmt.Errorf("failed to create migration runner: %w", err)
		}
		if err := runner.Up(ctx); err != nil {
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	app.taskStore = newTaskStore(cfg.Database.Driver, db, l)

	engine, err := newEngine(ctx, cfg.LLM, l, m)
	if err != nil {
		return nil, err
	}

	app.taskService, err = service.NewTaskService(app.taskStore, engine, cfg.Tasks.MaxGenerateCount, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.taskHandler = api.NewTaskHandler(app.taskService, cfg.Tasks.DefaultGenerateCount, l)
	return app, nil
}

// newEngine builds the generation engine. Without an API key the primary tier
// is left unset and every request is served by local synthesis.
func newEngine(
	ctx context.Context,
	cfg config.LLMConfig,
	l *slog.Logger,
	m *metrics.Metrics,
) (*generation.Engine, error) {
	opts := []generation.Option{generation.WithTimeout(cfg.Timeout())}
	if m != nil {
		opts = append(opts, generation.WithRecorder(m))
	}

	if !cfg.Enabled() {
		l.Info("no Gemini API key configured, task generation will use local synthesis")
		return generation.NewEngine(nil, l, opts...), nil
	}

	gen, err := gemini.NewGenerator(ctx, l, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}
	l.Info("LLM generator initialized", slog.String("model", cfg.ModelName))
	return generation.NewEngine(gen, l, opts...), nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection",
			slog.String("error", redact.Error(err)))
		return
	}
	app.logger.Info("database connection closed")
}

// runServe is the serve command: wire everything and block until shutdown.
func runServe(ctx context.Context) error {
	cfg, l, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg.Database, l)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	app, err := newApplication(ctx, cfg, l, db, metrics.New())
	if err != nil {
		_ = db.Close()
		return err
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}
