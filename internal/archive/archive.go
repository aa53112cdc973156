// Package archive keeps copies of roster exports on disk or in S3.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/clinicroster/internal/config"
	"github.com/JonMunkholm/clinicroster/internal/core"
)

// Open returns the archive selected by cfg.Driver, or nil for "none".
func Open(ctx context.Context, cfg config.ArchiveConfig) (core.ExportArchive, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "none":
		return nil, nil
	case "fs":
		return NewFS(cfg.Dir), nil
	case "s3":
		return NewS3(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			PathStyle: cfg.PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.Driver)
	}
}

// FS writes archived exports under a root directory.
type FS struct {
	root string
}

var _ core.ExportArchive = (*FS)(nil)

// NewFS archives under root.
func NewFS(root string) *FS {
	return &FS{root: root}
}

// Put implements core.ExportArchive. Keys use forward slashes.
func (f *FS) Put(_ context.Context, key string, data []byte, _ string) error {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("archive key %q escapes root", key)
	}
	path := filepath.Join(f.root, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("write archive %s: %w", key, err)
	}
	return nil
}
