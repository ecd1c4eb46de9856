package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/classroom/internal/config"
	"github.com/phrazzld/classroom/internal/events"
	"github.com/phrazzld/classroom/internal/metrics"
	"github.com/phrazzld/classroom/internal/platform/memory"
	"github.com/phrazzld/classroom/internal/platform/postgres"
	"github.com/phrazzld/classroom/internal/service"
	"github.com/phrazzld/classroom/internal/store"
)

// application holds the wired dependencies and releases them on cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil for the memory driver.
	db *sql.DB
	tx store.Transactor

	emitter *events.InMemoryEventEmitter
	// recorder is nil when metrics are disabled.
	recorder *metrics.Recorder

	persons     service.PersonService
	courses     service.CourseService
	assignments service.AssignmentService
	submissions service.SubmissionService
}

// newApplication selects the store, wires events and metrics, and builds the
// services.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: logger}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		app.tx = memory.NewDB(logger)
		logger.Info("using in-memory store")
	case config.DriverPostgres:
		db, err := setupAppDatabase(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		app.db = db
		app.tx = postgres.NewTransactor(db, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.emitter.RegisterHandler(events.HandlerFunc(func(_ context.Context, e *events.Event) error {
		logger.Debug("domain event",
			slog.String("event_type", e.Type),
			slog.String("course_id", e.CourseID.String()),
			slog.String("actor_id", e.ActorID.String()))
		return nil
	}))

	opts := []service.Option{service.WithEmitter(app.emitter)}
	if cfg.Metrics.Enabled {
		app.recorder = metrics.NewRecorder(cfg.Metrics.Namespace, logger)
		app.emitter.RegisterHandler(app.recorder)
		opts = append(opts, service.WithObserver(app.recorder))
	}

	if err := app.buildServices(cfg, opts); err != nil {
		app.cleanup()
		return nil, err
	}
	return app, nil
}

func (app *application) buildServices(cfg *config.Config, opts []service.Option) error {
	var err error
	if app.persons, err = service.NewPersonService(app.tx, app.logger, opts...); err != nil {
		return fmt.Errorf("failed to create person service: %w", err)
	}
	if app.courses, err = service.NewCourseService(app.tx, app.logger, opts...); err != nil {
		return fmt.Errorf("failed to create course service: %w", err)
	}
	if app.assignments, err = service.NewAssignmentService(app.tx, app.logger, opts...); err != nil {
		return fmt.Errorf("failed to create assignment service: %w", err)
	}
	app.submissions, err = service.NewSubmissionService(app.tx, cfg.Policy.SubmissionPolicy(), app.logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create submission service: %w", err)
	}
	return nil
}

// cleanup releases the database connection, if any.
func (app *application) cleanup() {
	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection", slog.String("error", err.Error()))
		return
	}
	app.logger.Info("database connection closed")
	app.db = nil
}
