package source

import (
	"context"
	"maps"
	"sync"
)

// Map is an in-memory source, safe for concurrent use. Missing names read as
// the empty string.
type Map struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMap copies values into a new Map.
func NewMap(values map[string]string) *Map {
	m := &Map{values: make(map[string]string, len(values))}
	maps.Copy(m.values, values)
	return m
}

func (m *Map) Get(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[name]
}

func (m *Map) GetContext(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.Get(name), nil
}

func (m *Map) Set(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[name] = value
}

func (m *Map) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, name)
}
