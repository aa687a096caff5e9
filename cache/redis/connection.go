package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cdr.dev/slog/v3"
	"github.com/hashicorp/go-multierror"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/xerrors"

	"github.com/adeilh/go-keyed/config"
)

// ErrClosed is returned by Database after Close.
var ErrClosed = errors.New("redis: connection closed")

// Connection is a set of clients, one per logical database, sharing one set
// of Options. Clients are created on first use and live until Close.
type Connection struct {
	opts   Options
	logger slog.Logger

	mu      sync.Mutex
	clients map[int]*goredis.Client
	closed  bool
}

// Connect builds a Connection and checks that database 0 answers PING.
func Connect(ctx context.Context, opts Options, logger slog.Logger) (*Connection, error) {
	c := &Connection{
		opts:    opts.withDefaults(),
		logger:  logger,
		clients: make(map[int]*goredis.Client),
	}
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	logger.Info(ctx, "connected to redis",
		slog.F("addr", c.opts.Addr),
		slog.F("tls", c.opts.TLS),
		slog.F("pool_size", c.opts.PoolSize),
	)
	return c, nil
}

// NewConnectionRepository returns a repository that connects once, on first
// use, with options resolved from cfg.
func NewConnectionRepository(cfg config.Resolver, logger slog.Logger) *config.Singleton[*Connection] {
	return config.NewSingleton(cfg, func(ctx context.Context, cfg config.Resolver) (*Connection, error) {
		opts, err := OptionsFromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return Connect(ctx, opts, logger)
	})
}

// Database returns the client for logical database n.
func (c *Connection) Database(n int) (*goredis.Client, error) {
	if n < 0 {
		return nil, config.NewValidationError("database", fmt.Sprintf("must not be negative, got %d", n))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if client, ok := c.clients[n]; ok {
		return client, nil
	}
	client := goredis.NewClient(c.opts.client(n))
	c.clients[n] = client
	c.logger.Debug(context.Background(), "created redis client", slog.F("database", n))
	return client, nil
}

// Ping checks that the server answers on database 0.
func (c *Connection) Ping(ctx context.Context) error {
	client, err := c.Database(0)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return xerrors.Errorf("ping redis at %s: %w", c.opts.Addr, err)
	}
	return nil
}

// Close closes every client. Further Database calls fail with ErrClosed.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	var merr *multierror.Error
	for n, client := range c.clients {
		if err := client.Close(); err != nil {
			merr = multierror.Append(merr, xerrors.Errorf("close database %d: %w", n, err))
		}
	}
	c.clients = nil
	return merr.ErrorOrNil()
}
