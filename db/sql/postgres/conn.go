// Package postgres opens PostgreSQL pools with lib/pq and serves settings
// stored in a table as a config source.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"cdr.dev/slog/v3"
	_ "github.com/lib/pq"
	"golang.org/x/xerrors"

	"github.com/adeilh/go-keyed/config"
)

var ErrMissingDSN = errors.New("postgres: DSN is required")

// Open connects to PostgreSQL using the provided options and applies pool settings.
func Open(ctx context.Context, opts ...Option) (*sql.DB, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.DSN == "" {
		return nil, ErrMissingDSN
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, xerrors.Errorf("postgres: open: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, xerrors.Errorf("postgres: ping: %w", err)
	}

	return db, nil
}

// NewConnectionRepository returns a repository that opens one pool, on first
// use, from the POSTGRES_* keys.
func NewConnectionRepository(cfg config.Resolver, logger slog.Logger) *config.Singleton[*sql.DB] {
	return config.NewSingleton(cfg, func(ctx context.Context, cfg config.Resolver) (*sql.DB, error) {
		opts, err := OptionsFromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		db, err := Open(ctx, opts...)
		if err != nil {
			return nil, err
		}
		stats := db.Stats()
		logger.Info(ctx, "connected to postgres", slog.F("max_open_conns", stats.MaxOpenConnections))
		return db, nil
	})
}
