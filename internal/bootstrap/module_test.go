package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/fx"

	"fleetevents/internal/domain/event"
	"fleetevents/internal/infrastructure/permission"
	"fleetevents/internal/ports"
	"fleetevents/internal/usecase/events"
)

func startApp(t *testing.T) *App {
	t.Helper()

	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	body := "database:\n  dsn: " + filepath.ToSlash(filepath.Join(dir, "fleet.sqlite")) + "\n" +
		"storage:\n  driver: fs\n  base_dir: " + filepath.ToSlash(filepath.Join(dir, "files")) + "\n" +
		"permissions:\n  safety_manager:\n    events: write\n"
	if err := os.WriteFile(configFile, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var app *App
	fxApp := fx.New(
		Module,
		fx.NopLogger,
		fx.Provide(func() context.Context { return context.Background() }),
		fx.Provide(
			fx.Annotate(
				func() string { return configFile },
				fx.ResultTags(`name:"configFile"`),
			),
		),
		fx.Populate(&app),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fxApp.Start(ctx); err != nil {
		t.Fatalf("start fx app: %v", err)
	}
	t.Cleanup(func() {
		_ = fxApp.Stop(context.Background())
	})
	return app
}

func TestModuleWiresEventService(t *testing.T) {
	app := startApp(t)
	ctx := context.Background()

	if err := app.InitSchema(ctx); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}
	allowed, err := app.Permissions.HasAccess(ctx, "safety_manager", permission.ModuleEvents, ports.AccessWrite)
	if err != nil || !allowed {
		t.Fatalf("HasAccess() = %v, %v", allowed, err)
	}

	res, err := app.Events.Create(ctx, events.CreateInput{
		Kind: event.KindWarning,
		Event: events.EventFields{
			DriverRef:  "D9",
			TruckRef:   "T9",
			CompanyID:  1,
			OccurredAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		Detail: event.WarningDetail{IssuedBy: "CHP"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if res.EventID == 0 || res.SpecializationID == 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}
