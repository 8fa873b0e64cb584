package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"fleetevents/internal/bootstrap/config"
	"fleetevents/internal/bootstrap/database"
	"fleetevents/internal/bootstrap/logging"
	cacheinfra "fleetevents/internal/infrastructure/cache"
	sqliterepo "fleetevents/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "fleetevents/internal/infrastructure/persistence/sqlite/uow"
	"fleetevents/internal/infrastructure/permission"
	"fleetevents/internal/infrastructure/storage"
	"fleetevents/internal/infrastructure/storage/s3"
	"fleetevents/internal/ports"
	"fleetevents/internal/usecase/events"
	"fleetevents/internal/usecase/saga"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewEventRepository,
			fx.As(new(ports.EventRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewLookupRepository,
			fx.As(new(ports.LookupRepository), new(ports.LookupValidator)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(provideBlobStore),
	fx.Provide(
		fx.Annotate(
			provideAttachmentStore,
			fx.As(new(ports.AttachmentStore)),
		),
	),
	fx.Provide(providePermissions),
	fx.Provide(provideCoordinator),
	fx.Provide(events.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideBlobStore(ctx context.Context, cfg config.Config) (ports.BlobStore, error) {
	s3cfg := cfg.Storage.S3
	return storage.OpenBlobStore(ctx, storage.Options{
		Driver:  cfg.Storage.Driver,
		BaseDir: cfg.Storage.BaseDir,
		S3: s3.Config{
			Region:          s3cfg.Region,
			Bucket:          s3cfg.Bucket,
			Prefix:          s3cfg.Prefix,
			Endpoint:        s3cfg.Endpoint,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
			PathStyle:       s3cfg.PathStyle,
		},
	})
}

func provideAttachmentStore(blobs ports.BlobStore, cfg config.Config) *storage.AttachmentStore {
	return storage.NewAttachmentStore(blobs, cfg.Storage.ServerURL, cfg.Storage.WriteTimeout)
}

func providePermissions(cfg config.Config) (ports.PermissionChecker, error) {
	return permission.NewStatic(cfg.Permissions)
}

func provideCoordinator(uow ports.UnitOfWork, files ports.AttachmentStore, cfg config.Config) *saga.Coordinator {
	return saga.NewCoordinator(uow, files, saga.Policy{
		MaxAttempts:    cfg.Saga.MaxAttempts,
		InitialBackoff: cfg.Saga.InitialBackoff,
		MaxBackoff:     cfg.Saga.MaxBackoff,
		Timeout:        cfg.Saga.Timeout,
	})
}

type appParams struct {
	fx.In

	Config      config.Config
	DB          *gorm.DB
	UnitOfWork  ports.UnitOfWork
	Events      *events.Service
	Lookups     ports.LookupRepository
	Permissions ports.PermissionChecker
}

func provideApp(p appParams) *App {
	return &App{
		Config:      p.Config,
		DB:          p.DB,
		UnitOfWork:  p.UnitOfWork,
		Events:      p.Events,
		Lookups:     p.Lookups,
		Permissions: p.Permissions,
	}
}
