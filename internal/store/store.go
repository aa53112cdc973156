// Package store selects and opens the configured patient store backend.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/clinicroster/internal/config"
	"github.com/JonMunkholm/clinicroster/internal/core"
	"github.com/JonMunkholm/clinicroster/internal/store/memory"
	"github.com/JonMunkholm/clinicroster/internal/store/postgres"
	"github.com/JonMunkholm/clinicroster/internal/store/sqlite"
)

// Backend is everything the service needs from storage.
type Backend interface {
	core.PatientStore
	core.TenantDirectory
	UpsertTenant(ctx context.Context, t core.Tenant) error
	Close() error
}

// pgBackend ties the pool's lifetime to the store.
type pgBackend struct {
	*postgres.Store
	close func()
}

func (b *pgBackend) Close() error {
	b.close()
	return nil
}

// Open connects to the backend named by cfg.Storage.Driver and seeds any
// tenants listed in cfg.Storage.SeedTenants.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	var backend Backend

	switch strings.ToLower(cfg.Storage.Driver) {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		pg := postgres.New(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		backend = &pgBackend{Store: pg, close: pool.Close}
	case "sqlite":
		s, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		backend = s
	case "memory":
		backend = memory.New()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if err := SeedTenants(ctx, backend, cfg.Storage.SeedTenants); err != nil {
		_ = backend.Close()
		return nil, err
	}
	return backend, nil
}

// SeedTenants registers active tenants from "id" or "id:Display Name" entries.
func SeedTenants(ctx context.Context, b Backend, entries []string) error {
	for _, entry := range entries {
		id, name, found := strings.Cut(entry, ":")
		id = strings.TrimSpace(id)
		if !found {
			name = id
		}
		if id == "" {
			continue
		}
		if err := b.UpsertTenant(ctx, core.Tenant{ID: id, Name: strings.TrimSpace(name), Active: true}); err != nil {
			return fmt.Errorf("seed tenant %s: %w", id, err)
		}
	}
	return nil
}
