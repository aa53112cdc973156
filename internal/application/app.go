// Package application wires configuration into a running roster service.
// The HTTP server and the rosterctl CLI both start from New.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/clinicroster/internal/archive"
	"github.com/JonMunkholm/clinicroster/internal/config"
	"github.com/JonMunkholm/clinicroster/internal/contactsync"
	"github.com/JonMunkholm/clinicroster/internal/core"
	"github.com/JonMunkholm/clinicroster/internal/store"
)

// App holds the service and the resources it owns.
type App struct {
	Service *core.Service
	Store   store.Backend

	closers []func() error
}

// New opens storage, the contact sync notifier and the export archive
// selected by cfg, and builds the service on top of them.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}
	app := &App{Store: backend, closers: []func() error{backend.Close}}

	notifier, err := app.notifier(cfg.ContactSync, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	exportArchive, err := archive.Open(ctx, cfg.Archive)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("open export archive: %w", err)
	}

	app.Service = core.NewService(core.Dependencies{
		Store:    backend,
		Tenants:  backend,
		Notifier: notifier,
		Archive:  exportArchive,
		Logger:   logger,
	}, core.Limits{
		MaxFileSize:   cfg.Import.MaxFileSize,
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWait:       cfg.Import.MaxWaitTime,
	})

	logger.Info("roster service ready",
		"storage", cfg.Storage.Driver,
		"contact_sync", cfg.ContactSync.RedisURL != "",
		"archive", cfg.Archive.Driver,
	)
	return app, nil
}

func (a *App) notifier(cfg config.ContactSyncConfig, logger *slog.Logger) (core.ContactNotifier, error) {
	if cfg.RedisURL == "" {
		return contactsync.NewLogNotifier(logger), nil
	}
	pub, closeFn, err := contactsync.NewRedisPublisher(cfg.RedisURL, cfg.Stream)
	if err != nil {
		return nil, fmt.Errorf("contact sync: %w", err)
	}
	a.closers = append(a.closers, closeFn)
	return pub, nil
}

// Close releases everything New opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
