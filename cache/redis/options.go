package redis

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/hashicorp/go-multierror"
	goredis "github.com/redis/go-redis/v9"

	"github.com/adeilh/go-keyed/config"
)

// Options controls how a Connection reaches the server.
type Options struct {
	Addr         string
	Password     string
	TLS          bool
	KeepAlive    time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
}

func (o Options) withDefaults() Options {
	if o.Addr == "" {
		o.Addr = "127.0.0.1:6379"
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 2 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 2 * time.Second
	}
	if o.PoolSize <= 0 {
		o.PoolSize = 8
	}
	return o
}

// OptionsFromConfig resolves every REDIS_* key and reports all invalid ones
// together.
func OptionsFromConfig(ctx context.Context, cfg config.Resolver) (Options, error) {
	var merr *multierror.Error
	resolve := func(k *config.Key) config.Value {
		v, err := cfg.ResolveContext(ctx, k)
		if err != nil {
			merr = multierror.Append(merr, err)
		}
		return v
	}
	seconds := func(k *config.Key) time.Duration {
		n, _ := resolve(k).Int()
		return time.Duration(n) * time.Second
	}

	host := resolve(HostKey).String()
	port := resolve(PortKey).String()
	opts := Options{
		Addr:        net.JoinHostPort(host, port),
		Password:    resolve(PasswordKey).String(),
		TLS:         resolve(SSLKey).Bool(),
		KeepAlive:   seconds(KeepAliveKey),
		DialTimeout: seconds(DialTimeoutKey),
	}
	opts.PoolSize, _ = resolve(PoolSizeKey).Int()

	if err := merr.ErrorOrNil(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// client returns go-redis options for database db.
func (o Options) client(db int) *goredis.Options {
	keepAlive := o.KeepAlive
	if keepAlive == 0 {
		keepAlive = -1
	}
	dialer := &net.Dialer{Timeout: o.DialTimeout, KeepAlive: keepAlive}

	co := &goredis.Options{
		Addr:         o.Addr,
		Password:     o.Password,
		DB:           db,
		DialTimeout:  o.DialTimeout,
		ReadTimeout:  o.ReadTimeout,
		WriteTimeout: o.WriteTimeout,
		PoolSize:     o.PoolSize,
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		},
	}
	if o.TLS {
		host, _, err := net.SplitHostPort(o.Addr)
		if err != nil {
			host = o.Addr
		}
		co.TLSConfig = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
		co.Dialer = func(ctx context.Context, network, addr string) (net.Conn, error) {
			td := &tls.Dialer{NetDialer: dialer, Config: co.TLSConfig}
			return td.DialContext(ctx, network, addr)
		}
	}
	return co
}
