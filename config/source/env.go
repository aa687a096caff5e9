package source

import (
	"context"
	"os"
)

// Env reads the process environment. Prefix, when set, is prepended to every
// key name, so Env{Prefix: "APP_"} answers REDIS_HOST from APP_REDIS_HOST.
type Env struct {
	Prefix string
}

func (e Env) Get(name string) string {
	return os.Getenv(e.Prefix + name)
}

func (e Env) GetContext(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.Get(name), nil
}
