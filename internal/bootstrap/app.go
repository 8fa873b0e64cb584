package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"fleetevents/internal/bootstrap/config"
	"fleetevents/internal/bootstrap/logging"
	"fleetevents/internal/errs"
	"fleetevents/internal/infrastructure/persistence/sqlite/model"
	"fleetevents/internal/ports"
	"fleetevents/internal/usecase/events"
)

// App is what commands receive once the fx graph has started.
type App struct {
	Config      config.Config
	DB          *gorm.DB
	UnitOfWork  ports.UnitOfWork
	Events      *events.Service
	Lookups     ports.LookupRepository
	Permissions ports.PermissionChecker
}

func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration")

	tables := model.All()
	if err := a.DB.WithContext(ctx).AutoMigrate(tables...); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}

	logging.Info(logCtx, "schema migration completed", slog.Int("tables", len(tables)))
	return nil
}

// Logger builds the process logger from log.level and log.format.
func (a *App) Logger(ctx context.Context) *slog.Logger {
	logger, err := logging.New(nil, a.Config.Log.Level, a.Config.Log.Format)
	if err != nil {
		logging.Warn(ctx, "invalid log settings, keeping default logger", slog.Any("err", errs.Loggable(err)))
		return logging.Logger(ctx)
	}
	return logger
}
