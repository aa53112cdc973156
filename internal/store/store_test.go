package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/clinicroster/internal/config"
	"github.com/JonMunkholm/clinicroster/internal/core"
)

func TestOpen_MemorySeedsTenants(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Storage: config.StorageConfig{
		Driver:      "memory",
		SeedTenants: []string{"clinica_norte:Clínica Norte", "demo"},
	}}

	b, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	tenant, err := b.Resolve(ctx, "clinica_norte")
	require.NoError(t, err)
	assert.Equal(t, "Clínica Norte", tenant.Name)

	tenant, err = b.Resolve(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", tenant.Name)

	_, err = b.Resolve(ctx, "other")
	assert.ErrorIs(t, err, core.ErrTenantNotFound)
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Storage: config.StorageConfig{
		Driver:      "sqlite",
		SQLitePath:  filepath.Join(t.TempDir(), "roster.db"),
		SeedTenants: []string{"t1"},
	}}

	b, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	_, err = b.Resolve(ctx, "t1")
	assert.NoError(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Storage: config.StorageConfig{Driver: "mongo"}})
	assert.Error(t, err)
}
