package blob

import (
	"context"
	"fmt"

	"kineticcore/internal/infra/blob/fs"
	memorystore "kineticcore/internal/infra/blob/memory"
	infras3 "kineticcore/internal/infra/blob/s3"
)

// S3Config configures the S3-compatible backend.
type S3Config = infras3.Config

// Config selects and configures a backend.
type Config struct {
	Driver Driver
	// FSRoot is the directory of the filesystem driver, ./reports when empty.
	FSRoot string
	S3     S3Config
}

// Open constructs the configured store. An empty driver means filesystem.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverFilesystem, "":
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

// NewFilesystem returns a store rooted at dir.
func NewFilesystem(dir string) (Store, error) {
	store, err := fs.New(dir)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// NewMemory returns a process-local store.
func NewMemory() Store { return memorystore.New() }

// NewS3 returns a store over one S3 bucket.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	store, err := infras3.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return store, nil
}
