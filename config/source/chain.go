package source

import (
	"context"

	"github.com/adeilh/go-keyed/config"
)

// Chain asks each source in order and returns the first non-empty answer.
type Chain []config.Source

func (c Chain) Get(name string) string {
	for _, s := range c {
		if v := s.Get(name); v != "" {
			return v
		}
	}
	return ""
}

// GetContext stops at the first source that fails.
func (c Chain) GetContext(ctx context.Context, name string) (string, error) {
	for _, s := range c {
		v, err := s.GetContext(ctx, name)
		if err != nil {
			return "", err
		}
		if v != "" {
			return v, nil
		}
	}
	return "", nil
}
