package config

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// EnvExampleHeader opens every generated env example file.
const EnvExampleHeader = "# Automatically generated file, do not edit."

// Registry is an explicit, ordered set of keys. Components expose their keys
// through a registry so tooling can document and check them.
type Registry struct {
	name string

	mu     sync.RWMutex
	keys   []*Key
	byName map[string]*Key
}

func NewRegistry(name string) *Registry {
	return &Registry{name: name, byName: make(map[string]*Key)}
}

// MustRegistry builds a registry holding keys and panics on duplicates.
func MustRegistry(name string, keys ...*Key) *Registry {
	r := NewRegistry(name)
	if err := r.Register(keys...); err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Name() string { return r.name }

// Register appends keys in order. A name already present is rejected and
// nothing from the call is registered.
func (r *Registry) Register(keys ...*Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k == nil {
			return fmt.Errorf("config: registry %s: nil key", r.name)
		}
		if _, dup := r.byName[k.Name()]; dup || seen[k.Name()] {
			return fmt.Errorf("config: registry %s: key %s already registered", r.name, k.Name())
		}
		seen[k.Name()] = true
	}
	for _, k := range keys {
		r.keys = append(r.keys, k)
		r.byName[k.Name()] = k
	}
	return nil
}

// Include registers every key of the other registries, in order.
func (r *Registry) Include(others ...*Registry) error {
	for _, o := range others {
		if err := r.Register(o.Keys()...); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []*Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Key(nil), r.keys...)
}

func (r *Registry) Lookup(name string) (*Key, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.byName[name]
	return k, ok
}

// WriteEnvExample writes an env example file: the header, then for each key
// its documentation as comment lines followed by NAME=default.
func (r *Registry) WriteEnvExample(w io.Writer, newline string) error {
	var buf bytes.Buffer
	buf.WriteString(EnvExampleHeader + newline + newline)
	for _, k := range r.Keys() {
		for _, line := range k.doc {
			buf.WriteString("# " + line + newline)
		}
		buf.WriteString(k.Name() + "=" + k.Default() + newline + newline)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// EnvExample returns the WriteEnvExample output as a string.
func (r *Registry) EnvExample(newline string) string {
	var buf bytes.Buffer
	_ = r.WriteEnvExample(&buf, newline)
	return buf.String()
}

// Check resolves every key and reports all failures at once.
func (r *Registry) Check(ctx context.Context, cfg Resolver) error {
	var result *multierror.Error
	for _, k := range r.Keys() {
		if _, err := cfg.ResolveContext(ctx, k); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
