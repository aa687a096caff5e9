package config

import (
	"context"

	"golang.org/x/xerrors"
)

// Source supplies raw strings by key name. An empty string means the name
// is not set.
type Source interface {
	Get(name string) string
	GetContext(ctx context.Context, name string) (string, error)
}

// Resolver turns keys into validated values.
type Resolver interface {
	Resolve(key *Key) (Value, error)
	ResolveContext(ctx context.Context, key *Key) (Value, error)
}

// KeyedConfig resolves keys against a Source. Every call reads the source
// again; nothing is memoized.
type KeyedConfig struct {
	source Source
}

var _ Resolver = (*KeyedConfig)(nil)

// NewKeyedConfig returns a resolver reading from src.
func NewKeyedConfig(src Source) *KeyedConfig {
	return &KeyedConfig{source: src}
}

// Resolve reads key from the source, falls back to its default when the
// source has nothing, and validates the result. Defaults are validated too.
// A source that fails to answer fails the resolution; it never reads as
// unset.
func (c *KeyedConfig) Resolve(key *Key) (Value, error) {
	return c.ResolveContext(context.Background(), key)
}

// ResolveContext is Resolve bounded by ctx.
func (c *KeyedConfig) ResolveContext(ctx context.Context, key *Key) (Value, error) {
	raw, err := c.source.GetContext(ctx, key.Name())
	if err != nil {
		return Value{}, xerrors.Errorf("read %s: %w", key.Name(), err)
	}
	return c.finish(key, raw)
}

func (c *KeyedConfig) finish(key *Key, raw string) (Value, error) {
	if raw == "" {
		raw = key.Default()
	}
	v := NewValue(raw)
	if err := key.Validate(v); err != nil {
		return Value{}, err
	}
	return v, nil
}
