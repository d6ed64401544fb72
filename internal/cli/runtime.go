package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kineticcore/internal/adapters/reports"
	"kineticcore/internal/blob"
	"kineticcore/internal/config"
	"kineticcore/internal/core"
	"kineticcore/plugins/powerlaw"
)

// runtime bundles the service and its backends for one command.
type runtime struct {
	svc      *core.Service
	store    core.PersistentStore
	archive  blob.Store
	archiver *reports.Archiver
}

type runtimeOptions struct {
	archive     bool
	coreOptions []core.Option
}

func storageConfig(cfg *config.Config) core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(cfg.StorageDriver),
		SQLitePath:  cfg.SQLitePath,
		PostgresDSN: cfg.PostgresDSN,
	}
}

func blobConfig(cfg *config.Config) blob.Config {
	return blob.Config{
		Driver: blob.Driver(cfg.BlobDriver),
		FSRoot: cfg.BlobFSRoot,
		S3: blob.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			PathStyle:       cfg.S3.PathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		},
	}
}

func (e *env) openArchive(ctx context.Context) (blob.Store, error) {
	store, err := blob.Open(ctx, blobConfig(e.cfg))
	if err != nil {
		return nil, fmt.Errorf("open report archive: %w", err)
	}
	return store, nil
}

// open builds the service with the power-law plugin installed. With
// archive set, committed reports are archived until close is called.
func (e *env) open(ctx context.Context, opts runtimeOptions) (*runtime, error) {
	store, err := core.OpenStore(storageConfig(e.cfg), core.NewDefaultRulesEngine())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	rt := &runtime{store: store}
	coreOpts := append([]core.Option{core.WithLogger(e.logger)}, opts.coreOptions...)
	if opts.archive {
		rt.archive, err = e.openArchive(ctx)
		if err != nil {
			_ = rt.close(ctx)
			return nil, err
		}
		rt.archiver = reports.NewArchiver(rt.archive, reports.WithLogger(e.logger))
		rt.archiver.Start()
		coreOpts = append(coreOpts, core.WithCommitHook(rt.archiver.Hook()))
	}
	rt.svc = core.NewService(store, coreOpts...)
	if _, err := rt.svc.InstallPlugin(powerlaw.New()); err != nil {
		_ = rt.close(ctx)
		return nil, err
	}
	return rt, nil
}

// close drains the archiver and releases the database handle.
func (rt *runtime) close(ctx context.Context) error {
	var errs []error
	if rt.archiver != nil {
		errs = append(errs, rt.archiver.Drain(ctx))
	}
	if db, ok := rt.store.(interface{ DB() *sql.DB }); ok {
		errs = append(errs, db.DB().Close())
	}
	return errors.Join(errs...)
}
