package source

import (
	"context"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/xerrors"
)

// File answers from a settings file read once with viper. The format follows
// the extension: .env, .toml, .yaml, .yml or .json. Lookups ignore case, and a
// name such as REDIS_HOST also matches the nested key redis.host.
type File struct {
	path string
	v    *viper.Viper
}

// NewFile reads path. It fails when the file is missing or malformed.
func NewFile(path string) (*File, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, xerrors.Errorf("read settings file %s: %w", path, err)
	}
	return &File{path: path, v: v}, nil
}

func (f *File) Path() string { return f.path }

func (f *File) Get(name string) string {
	if v := f.v.GetString(name); v != "" {
		return v
	}
	return f.v.GetString(strings.ReplaceAll(name, "_", "."))
}

func (f *File) GetContext(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.Get(name), nil
}
