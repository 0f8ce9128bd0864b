package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophledger/internal/logging"
	"github.com/dmitrijs2005/gophledger/internal/server/config"
	"github.com/dmitrijs2005/gophledger/internal/server/objects"
	"github.com/dmitrijs2005/gophledger/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophledger/internal/server/services"
)

// Backend owns the database handle and the services built on it. The
// server and the CLI's local mode both use it.
type Backend struct {
	db    *sql.DB
	Suite *services.Suite
}

// OpenBackend connects to cfg.DatabaseDSN, applies migrations and builds
// the services.
func OpenBackend(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Backend, error) {
	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	b, err := NewBackend(ctx, cfg, logger, db, repomanager.NewPostgresRepositoryManager())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

// NewBackend builds the services over db using rm. Object cleanup is wired
// only when cfg.S3Bucket is set.
func NewBackend(ctx context.Context, cfg *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*Backend, error) {
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	var objs objects.Store
	if cfg.S3Bucket != "" {
		s3, err := objects.NewS3Store(ctx, objects.Options{
			User:         cfg.S3RootUser,
			Password:     cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		objs = s3
		logger.Info(ctx, "object cleanup enabled", "bucket", cfg.S3Bucket)
	}

	suite := services.NewSuite(rm.Identities(db), rm.Documents(db), objs, services.NewSettings(cfg), logger)
	return &Backend{db: db, Suite: suite}, nil
}

func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
