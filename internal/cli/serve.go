package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/symreg/internal/symbol"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	MetricsAddr string

	// OnListen is called with the bound metrics address (for testing).
	OnListen func(addr string)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Hold the registry open and expose metrics",
		Long: `Open the registry, flush journaled changes periodically and serve
Prometheus metrics on /metrics until interrupted. The registry is flushed
and closed on SIGINT or SIGTERM.

Example:
  symreg serve --config ./symreg.yaml
  symreg serve --db ./symbols.db --metrics-addr 127.0.0.1:9464`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "metrics listen address (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s, err := openSession(cmd, opts.RootOptions, symbol.WithMetrics(symbol.NewMetrics(promReg)))
	if err != nil {
		return err
	}
	if err := symbol.RegisterGauges(promReg, s.registry); err != nil {
		return s.closeWith(WrapExitError(ExitFailure, "failed to register metrics", err))
	}

	interval, err := s.cfg.FlushEvery()
	if err != nil {
		return s.closeWith(WrapExitError(ExitCommandError, "invalid flush interval", err))
	}

	addr := s.cfg.MetricsAddr
	if opts.MetricsAddr != "" {
		addr = opts.MetricsAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return s.closeWith(WrapExitError(ExitCommandError, "failed to listen for metrics", err))
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			s.logger.Info("received signal, shutting down", zap.Stringer("signal", sig))
			cancel()
		case <-ctx.Done():
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	flusherDone := make(chan struct{})
	go func() {
		defer close(flusherDone)
		if interval <= 0 {
			return
		}
		if err := symbol.RunFlusher(ctx, s.registry, interval, s.logger); err != nil {
			s.logger.Error("symbol flusher stopped", zap.Error(err))
		}
	}()

	bound := ln.Addr().String()
	s.logger.Info("symbol registry serving",
		zap.String("metrics_addr", bound),
		zap.Duration("flush_interval", interval),
		zap.Bool("durable", s.registry.Durable()))
	fmt.Fprintf(cmd.OutOrStdout(), "Serving metrics on http://%s/metrics\n", bound)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")
	if opts.OnListen != nil {
		opts.OnListen(bound)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			runErr = WrapExitError(ExitFailure, "metrics server failed", err)
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("metrics server shutdown", zap.Error(err))
	}
	<-flusherDone

	if err := s.closeWith(runErr); err != nil {
		return err
	}
	s.logger.Info("symbol registry stopped gracefully")
	return nil
}
