package main

import (
	"bytes"
	"context"
	"os"

	"cdr.dev/slog/v3"
	"cdr.dev/slog/v3/sloggers/sloghuman"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/adeilh/go-keyed/cache/redis"
	"github.com/adeilh/go-keyed/captcha"
	"github.com/adeilh/go-keyed/config"
	"github.com/adeilh/go-keyed/config/source"
	"github.com/adeilh/go-keyed/db/sql/postgres"
	"github.com/adeilh/go-keyed/session"
)

// allKeys is every key a go-keyed deployment may set, in output order.
func allKeys() (*config.Registry, error) {
	all := config.NewRegistry("keyctl")
	if err := all.Include(redis.Registry(), postgres.Registry(), captcha.Registry(), session.Registry()); err != nil {
		return nil, err
	}
	return all, nil
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "keyctl",
		Short:         "Document and check go-keyed settings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")

	logger := func(cmd *cobra.Command) slog.Logger {
		l := slog.Make(sloghuman.Sink(cmd.ErrOrStderr()))
		if verbose {
			l = l.Leveled(slog.LevelDebug)
		}
		return l.Named("keyctl")
	}

	root.AddCommand(envExampleCmd(logger), checkCmd(logger), serveCmd(logger))
	return root
}

func envExampleCmd(logger func(*cobra.Command) slog.Logger) *cobra.Command {
	var (
		out  string
		crlf bool
	)
	cmd := &cobra.Command{
		Use:   "env-example",
		Short: "Write an env example file listing every key with its default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := allKeys()
			if err != nil {
				return err
			}
			newline := "\n"
			if crlf {
				newline = "\r\n"
			}

			var buf bytes.Buffer
			if err := all.WriteEnvExample(&buf, newline); err != nil {
				return err
			}
			if out == "" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return xerrors.Errorf("write %s: %w", out, err)
			}
			logger(cmd).Info(cmd.Context(), "wrote env example",
				slog.F("path", out), slog.F("keys", len(all.Keys())))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&crlf, "crlf", false, "terminate lines with CRLF")
	return cmd
}

func checkCmd(logger func(*cobra.Command) slog.Logger) *cobra.Command {
	var (
		envFile string
		prefix  string
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Resolve every key against the environment and report invalid values",
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

			err = all.Check(ctx, cfg)
			var merr *multierror.Error
			if xerrors.As(err, &merr) {
				for _, e := range merr.Errors {
					log.Error(ctx, "invalid setting", slog.Error(e))
				}
				return xerrors.Errorf("%d of %d settings are invalid", len(merr.Errors), len(all.Keys()))
			}
			if err != nil {
				return err
			}
			log.Info(ctx, "all settings valid", slog.F("keys", len(all.Keys())))
			return nil
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "settings file (.env, .toml, .yaml or .json) consulted after the environment")
	cmd.Flags().StringVar(&prefix, "prefix", "", "environment variable prefix")
	return cmd
}

// settings reads the environment, then envFile when it is set.
func settings(ctx context.Context, log slog.Logger, prefix, envFile string) (*config.KeyedConfig, error) {
	chain := source.Chain{source.Env{Prefix: prefix}}
	if envFile != "" {
		file, err := source.NewFile(envFile)
		if err != nil {
			return nil, err
		}
		chain = append(chain, file)
		log.Debug(ctx, "reading settings file", slog.F("path", file.Path()))
	}
	return config.NewKeyedConfig(chain), nil
}
