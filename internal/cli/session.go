package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/symreg/internal/backend"
	"github.com/roach88/symreg/internal/config"
	"github.com/roach88/symreg/internal/logging"
	"github.com/roach88/symreg/internal/symbol"
)

// session is an open registry plus everything a command needs around it.
type session struct {
	cfg      config.Config
	logger   *zap.Logger
	registry *symbol.Registry
	out      *OutputFormatter
}

// loadConfig reads --config (or the defaults) and applies flag overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		cfg, err = config.Load(opts.ConfigPath)
		if err != nil {
			return cfg, err
		}
	}

	if opts.Backend != "" {
		cfg.Storage.Kind = opts.Backend
	}
	if opts.Database != "" {
		cfg.Storage.Path = opts.Database
		if opts.Backend == "" && cfg.Storage.Kind == config.KindMemory {
			cfg.Storage.Kind = config.KindSQLite
		}
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Validate()
}

func openSession(cmd *cobra.Command, opts *RootOptions, symOpts ...symbol.Option) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	var logger *zap.Logger
	if cfg.Log.File != "" {
		logger, err = logging.New(cfg.Log)
	} else {
		logger, err = logging.NewWithSink(cfg.Log, zapcore.AddSync(cmd.ErrOrStderr()))
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to configure logging", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	reg, err := backend.OpenRegistry(ctx, cfg, logger, symOpts...)
	if err != nil {
		_ = logger.Sync()
		return nil, WrapExitError(ExitCommandError, "failed to open symbol registry", err)
	}

	return &session{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}, nil
}

// close flushes and closes the registry. A flush failure is reported as a
// command failure since interned ids may not survive a restart.
func (s *session) close() error {
	err := s.registry.Close()
	_ = s.logger.Sync()
	if err != nil && !errors.Is(err, symbol.ErrClosed) {
		return WrapExitError(ExitFailure, "failed to persist symbols", err)
	}
	return nil
}

// closeWith closes s and keeps the first error.
func (s *session) closeWith(err error) error {
	if cerr := s.close(); err == nil {
		err = cerr
	}
	return err
}
