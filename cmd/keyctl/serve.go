package main

import (
	"context"
	"errors"

	"cdr.dev/slog/v3"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/adeilh/go-keyed/config"
	"github.com/adeilh/go-keyed/httpx"
)

type checkReport struct {
	Keys    int      `json:"keys"`
	Invalid []string `json:"invalid,omitempty"`
}

// newSettingsServer answers GET /env-example and GET /check for the keys in
// all, resolving against cfg on every request.
func newSettingsServer(all *config.Registry, cfg config.Resolver, logger slog.Logger, opts ...httpx.ServerOption) *httpx.Server {
	srv := httpx.NewServer(append([]httpx.ServerOption{httpx.WithLogger(logger)}, opts...)...)
	srv.RegisterRoutes(func(e *httpx.Echo) {
		e.GET("/env-example", func(c httpx.Context) error {
			newline := "\n"
			if c.QueryParam("crlf") == "true" {
				newline = "\r\n"
			}
			return c.String(httpx.StatusOK, all.EnvExample(newline))
		})
		e.GET("/check", func(c httpx.Context) error {
			report := checkReport{Keys: len(all.Keys())}
			err := all.Check(c.Request().Context(), cfg)
			var merr *multierror.Error
			if errors.As(err, &merr) {
				for _, verr := range merr.Errors {
					report.Invalid = append(report.Invalid, verr.Error())
				}
				return c.JSON(httpx.StatusBadRequest, report)
			}
			if err != nil {
				return err
			}
			return c.JSON(httpx.StatusOK, report)
		})
	})
	return srv
}

func serveCmd(logger func(*cobra.Command) slog.Logger) *cobra.Command {
	var (
		addr    string
		envFile string
		prefix  string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the env example and a settings check over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger(cmd)
			ctx := cmd.Context()

			all, err := allKeys()
			if err != nil {
				return err
			}
			cfg, err := settings(ctx, log, prefix, envFile)
			if err != nil {
				return err
			}

			log.Info(ctx, "serving settings", slog.F("addr", addr), slog.F("keys", len(all.Keys())))
			err = newSettingsServer(all, cfg, log, httpx.WithAddress(addr)).Start(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&envFile, "env-file", "", "settings file (.env, .toml, .yaml or .json) consulted after the environment")
	cmd.Flags().StringVar(&prefix, "prefix", "", "environment variable prefix")
	return cmd
}
