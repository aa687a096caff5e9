package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
)

// Validator runs before route handlers; return an error to stop the pipeline.
type Validator func(Context) error

type RouteRegistrar func(*Echo)

// Server is an echo instance with recovery, request logging, validators and
// an error handler that answers {"error": message} with a status from
// StatusFor.
type Server struct {
	echo *Echo
	opts ServerOptions
}

func NewServer(opts ...ServerOption) *Server {
	o := defaultServerOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	e := NewEcho()
	e.HTTPErrorHandler = writeError
	e.Use(middleware.Recover(), RequestLogger(o.Logger))
	if len(o.Validators) > 0 {
		e.Use(runValidators(o.Validators))
	}
	return &Server{echo: e, opts: o}
}

func (s *Server) RegisterRoutes(reg RouteRegistrar) {
	if reg != nil {
		reg(s.echo)
	}
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on the configured address until ctx is done, then shuts down
// gracefully and returns ctx.Err(). A listener failure is returned as is.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Address,
		Handler:      s.echo,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func writeError(err error, c Context) {
	if c.Response().Committed {
		return
	}
	code, msg := StatusFor(err)
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{"error": msg})
}

func runValidators(validators []Validator) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(c Context) error {
			for _, v := range validators {
				if v == nil {
					continue
				}
				if err := v(c); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}
