// Package session keeps login sessions in any cache.Cache backend.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"maps"
	"time"

	"github.com/coder/quartz"
	"github.com/hashicorp/go-multierror"

	"github.com/adeilh/go-keyed/cache"
	"github.com/adeilh/go-keyed/config"
)

var (
	ErrInvalid = errors.New("session: invalid session")
	ErrExpired = errors.New("session: session expired")
)

// Session is the stored shape of a session. The JSON field names are the
// payload other services read from a shared cache.
type Session struct {
	ID        string            `json:"id"`
	Subject   string            `json:"subject"`
	IssuedAt  time.Time         `json:"issued_at"`
	ExpiresAt time.Time         `json:"expires_at"`
	IP        string            `json:"ip,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Expired reports whether s is past its expiry at t.
func (s Session) Expired(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && !t.Before(s.ExpiresAt)
}

var (
	TTLKey = config.MustKey("SESSION_TTL", "3600",
		config.WithDoc("Time in seconds"),
		config.WithRules(config.IntRange(1, 30*24*60*60)))
	PrefixKey = config.MustKey("SESSION_PREFIX", "session:",
		config.WithRules(config.Required()))
)

var registry = config.MustRegistry("session", TTLKey, PrefixKey)

// Registry lists the SESSION_* keys.
func Registry() *config.Registry { return registry }

type Options struct {
	Prefix     string
	DefaultTTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.Prefix == "" {
		o.Prefix = "session:"
	}
	if o.DefaultTTL <= 0 {
		o.DefaultTTL = time.Hour
	}
	return o
}

// OptionsFromConfig resolves the SESSION_* keys.
func OptionsFromConfig(ctx context.Context, cfg config.Resolver) (Options, error) {
	var merr *multierror.Error
	ttl, err := cfg.ResolveContext(ctx, TTLKey)
	if err != nil {
		merr = multierror.Append(merr, err)
	}
	prefix, err := cfg.ResolveContext(ctx, PrefixKey)
	if err != nil {
		merr = multierror.Append(merr, err)
	}
	if err := merr.ErrorOrNil(); err != nil {
		return Options{}, err
	}
	seconds, _ := ttl.Int()
	return Options{Prefix: prefix.String(), DefaultTTL: time.Duration(seconds) * time.Second}, nil
}

// Store issues and looks up sessions. Entries are written with a cache ttl
// matching the session expiry, so expired sessions also age out of the
// backend.
type Store struct {
	cache cache.Cache[Session]
	opts  Options
	clock quartz.Clock
}

type Option func(*Store)

func WithClock(c quartz.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

func NewStore(c cache.Cache[Session], opts Options, options ...Option) *Store {
	s := &Store{cache: c, opts: opts.withDefaults(), clock: quartz.NewReal()}
	for _, o := range options {
		if o != nil {
			o(s)
		}
	}
	return s
}

func (s *Store) key(id string) string { return s.opts.Prefix + id }

// Create stores sess, filling in a random ID, IssuedAt and ExpiresAt when
// they are zero.
func (s *Store) Create(ctx context.Context, sess Session) (Session, error) {
	if sess.Subject == "" {
		return Session{}, ErrInvalid
	}
	out := sess
	out.Metadata = maps.Clone(sess.Metadata)

	now := s.clock.Now()
	if out.ID == "" {
		id, err := randomID()
		if err != nil {
			return Session{}, err
		}
		out.ID = id
	}
	if out.IssuedAt.IsZero() {
		out.IssuedAt = now
	}
	if out.ExpiresAt.IsZero() {
		out.ExpiresAt = out.IssuedAt.Add(s.opts.DefaultTTL)
	}
	if out.ExpiresAt.Before(out.IssuedAt) {
		return Session{}, ErrInvalid
	}
	ttl := out.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return Session{}, ErrExpired
	}

	if err := s.cache.Set(ctx, s.key(out.ID), out, ttl); err != nil {
		return Session{}, err
	}
	return out, nil
}

// Get returns the session with id, or ErrExpired when it is gone.
func (s *Store) Get(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrInvalid
	}
	sess, found, err := s.cache.Get(ctx, s.key(id))
	if err != nil {
		return Session{}, err
	}
	if !found {
		return Session{}, ErrExpired
	}
	if sess.Expired(s.clock.Now()) {
		_ = s.Delete(ctx, id)
		return Session{}, ErrExpired
	}
	return sess, nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalid
	}
	err := s.cache.Del(ctx, s.key(id))
	var ioe *cache.InvalidOperationError
	if errors.As(err, &ioe) {
		return nil
	}
	return err
}

// Touch moves the expiry of a live session to expiresAt.
func (s *Store) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return ErrExpired
	}
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.ExpiresAt = expiresAt
	return s.cache.Set(ctx, s.key(id), sess, ttl)
}

func randomID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
