package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
	"github.com/phrazzld/scry-scheduler/internal/platform/dynamo"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/platform/memory"
	"github.com/phrazzld/scry-scheduler/internal/platform/metrics"
	"github.com/phrazzld/scry-scheduler/internal/platform/postgres"
	"github.com/phrazzld/scry-scheduler/internal/platform/sqlite"
	"github.com/phrazzld/scry-scheduler/internal/service/study"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// application holds the shared dependencies of a command and releases them
// on cleanup.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	store   store.Store
	srs     srs.Service
	metrics *metrics.Collector
	study   study.Service

	closers []io.Closer
}

// newApplication wires storage, the scheduling engine and the study service
// from cfg. Logs go to logOut.
func newApplication(ctx context.Context, cfg *config.Config, logOut io.Writer) (*application, error) {
	log, err := logger.SetupWithWriter(cfg.Server, logOut)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	app := &application{
		config:  cfg,
		logger:  log,
		metrics: metrics.NewCollector("scry"),
	}

	app.store, err = app.openStore(ctx)
	if err != nil {
		app.cleanup()
		return nil, err
	}

	params := srs.NewParams(cfg.Scheduler.ParamsConfig())
	app.srs = srs.NewServiceWithParams(params, nil)
	app.study = study.NewService(app.store, app.srs, nil, app.metrics, cfg.Scheduler.DefaultMaxTerms, log,
		study.WithSessionTTL(cfg.Server.SessionTTL))

	log.Info("application initialized",
		slog.String("driver", cfg.Database.Driver),
		slog.Int("timezone_offset_hours", cfg.Scheduler.TimezoneOffsetHours))
	return app, nil
}

// openStore builds the storage collaborator named by the database driver.
func (app *application) openStore(ctx context.Context) (store.Store, error) {
	db := app.config.Database
	log := app.logger

	switch db.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory storage; data is lost on exit")
		return memory.NewStore(log), nil

	case config.DriverPostgres:
		sqlDB, err := postgres.Open(ctx, db.URL)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, sqlDB)
		return postgres.NewPostgresItemStore(sqlDB, log), nil

	case config.DriverSQLite:
		s, err := sqlite.Open(db.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, s)
		return s, nil

	case config.DriverDynamoDB:
		client, err := dynamo.NewClient(ctx, dynamo.Config{
			TableName: db.DynamoTable,
			Region:    db.DynamoRegion,
			Endpoint:  db.DynamoEndpoint,
		})
		if err != nil {
			return nil, err
		}
		return dynamo.NewStore(client, db.DynamoTable, log), nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", db.Driver)
	}
}

// openPostgres opens the configured PostgreSQL database for maintenance
// commands that need the raw connection.
func openPostgres(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	if cfg.Database.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("migrations require the %q driver, configured driver is %q",
			config.DriverPostgres, cfg.Database.Driver)
	}
	return postgres.Open(ctx, cfg.Database.URL)
}

// cleanup releases resources in reverse order of acquisition.
func (app *application) cleanup() {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	if err := errors.Join(errs...); err != nil {
		app.logger.Error("failed to release resources", slog.String("error", err.Error()))
	}
}
