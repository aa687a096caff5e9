// Package redistest runs an in-process Redis server for tests and describes
// it as REDIS_* settings.
package redistest

import (
	"net"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/adeilh/go-keyed/config/source"
)

// Password is required by every server started with New.
const Password = "redis"

// Server is a miniredis instance stopped when the test ends.
type Server struct {
	*miniredis.Miniredis
}

// New starts a password protected server.
func New(t testing.TB) *Server {
	t.Helper()
	m := miniredis.RunT(t)
	m.RequireAuth(Password)
	return &Server{Miniredis: m}
}

// Source returns the REDIS_* settings pointing at s. Extra entries override
// the generated ones.
func (s *Server) Source(extra map[string]string) *source.Map {
	host, port, _ := net.SplitHostPort(s.Addr())
	src := source.NewMap(map[string]string{
		"REDIS_HOST":     host,
		"REDIS_PORT":     port,
		"REDIS_PASSWORD": Password,
	})
	for k, v := range extra {
		src.Set(k, v)
	}
	return src
}
