package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/tazhate/trackbot/config"
	"github.com/tazhate/trackbot/internal/clients/trackapi"
	"github.com/tazhate/trackbot/internal/service"
	"github.com/tazhate/trackbot/internal/storage"
)

// app holds what the commands share. Backends are opened on first use so
// that commands like "pattern build" need no configuration.
type app struct {
	cfgPath string
	verbose bool
	out     io.Writer
	errOut  io.Writer

	cfg            *config.Config
	logger         *slog.Logger
	store          *storage.Storage
	localReminders *service.LocalReminderService
	coord          *service.Coordinator
}

func (a *app) newLogger() *slog.Logger {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
}

// open loads the config, connects the backend and loads the user's
// trackings and reminders.
func (a *app) open(ctx context.Context) error {
	if a.coord != nil {
		return nil
	}

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.logger = a.newLogger()

	var trackings service.TrackingService
	var reminders service.ReminderService
	if cfg.IsRemote() {
		client := trackapi.NewClient(cfg.API.URL, cfg.API.Token)
		if cfg.API.Timeout > 0 {
			client.SetHTTPClient(&http.Client{Timeout: cfg.API.Timeout})
		}
		trackings = client.Trackings()
		reminders = client.Reminders()
	} else {
		store, err := storage.New(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		a.store = store
		a.localReminders = service.NewLocalReminderService(store, cfg.UserID)
		trackings = service.NewLocalTrackingService(store, cfg.UserID, cfg.Timezone)
		reminders = a.localReminders
	}

	a.coord = service.NewCoordinator(trackings, reminders, cfg.UserID, a.logger)
	if err := a.coord.Load(ctx); err != nil {
		return err
	}
	a.logger.Debug("backend ready", "backend", cfg.Backend, "user_id", cfg.UserID)
	return nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
}

// warnReconcile reports a refresh that failed after a successful command.
func (a *app) warnReconcile() {
	if err := a.coord.ReconcileErr(); err != nil {
		fmt.Fprintf(a.errOut, "warning: %v\n", err)
	}
}
