// Package postgrescontainer starts a throwaway PostgreSQL server in Docker
// for integration tests.
package postgrescontainer

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"golang.org/x/xerrors"
)

const (
	user     = "keyed"
	password = "secret"
	dbName   = "keyed_test"
)

var (
	once     sync.Once
	setupErr error
	dsn      string
	pool     *dockertest.Pool
	resource *dockertest.Resource
)

// DSN returns a lib/pq connection string for the server started by Setup.
func DSN() string { return dsn }

// Setup starts the container once per test binary and waits until it accepts
// connections. It fails fast when no Docker daemon is reachable.
func Setup() error {
	once.Do(func() {
		setupErr = start()
	})
	return setupErr
}

func start() error {
	p, err := dockertest.NewPool("")
	if err != nil {
		return xerrors.Errorf("create pool: %w", err)
	}
	if err := p.Client.Ping(); err != nil {
		return xerrors.Errorf("docker unavailable: %w", err)
	}

	r, err := p.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbName,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return xerrors.Errorf("could not start resource: %w", err)
	}
	pool, resource = p, r

	// Docker hard-kills the container if Teardown never runs.
	if err := r.Expire(120); err != nil {
		return xerrors.Errorf("could not expire resource: %w", err)
	}

	url := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", user, password, r.GetHostPort("5432/tcp"), dbName)
	p.MaxWait = 60 * time.Second
	err = p.Retry(func() error {
		db, err := sql.Open("postgres", url)
		if err != nil {
			return err
		}
		err = db.Ping()
		_ = db.Close()
		return err
	})
	if err != nil {
		return xerrors.Errorf("postgres did not become ready: %w", err)
	}
	dsn = url
	return nil
}

// Teardown removes the container started by Setup.
func Teardown() error {
	if pool == nil || resource == nil {
		return nil
	}
	return pool.Purge(resource)
}
