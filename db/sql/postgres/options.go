package postgres

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/adeilh/go-keyed/config"
)

// Options configures PostgreSQL connections and pool behavior.
type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Option func(*Options)

// WithDSN sets the lib/pq connection string.
func WithDSN(dsn string) Option {
	return func(o *Options) {
		if dsn != "" {
			o.DSN = dsn
		}
	}
}

// WithMaxOpenConns controls the maximum number of open connections.
func WithMaxOpenConns(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxOpenConns = n
		}
	}
}

// WithMaxIdleConns controls the idle connection pool size.
func WithMaxIdleConns(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.MaxIdleConns = n
		}
	}
}

// WithConnMaxLifetime controls how long a connection can be reused.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.ConnMaxLifetime = d
		}
	}
}

func defaultOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// OptionsFromConfig resolves the POSTGRES_* pool keys into options for Open.
// Every invalid key is reported.
func OptionsFromConfig(ctx context.Context, cfg config.Resolver) ([]Option, error) {
	var merr *multierror.Error
	resolve := func(k *config.Key) config.Value {
		v, err := cfg.ResolveContext(ctx, k)
		if err != nil {
			merr = multierror.Append(merr, err)
		}
		return v
	}
	integer := func(k *config.Key) int {
		n, _ := resolve(k).Int()
		return n
	}

	opts := []Option{
		WithDSN(resolve(DSNKey).String()),
		WithMaxOpenConns(integer(MaxOpenConnsKey)),
		WithMaxIdleConns(integer(MaxIdleConnsKey)),
		WithConnMaxLifetime(time.Duration(integer(ConnMaxLifetimeKey)) * time.Second),
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}
	return opts, nil
}
