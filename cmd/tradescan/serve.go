package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/tradescan/internal/api"
	"github.com/opensource-finance/tradescan/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		slog.Info("starting tradescan",
			"version", Version,
			"commit", Commit,
			"build_date", BuildDate,
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(cfg, true)
		if err != nil {
			return err
		}
		defer a.Close()

		var w *worker.Worker
		if cfg.Worker.Enabled {
			w = worker.NewWorker(a.bus, a.analyzer, time.Duration(cfg.Server.WriteTimeout)*time.Second)
			if err := w.Start(); err != nil {
				slog.Error("failed to start async worker", "error", err)
				w = nil
			}
		}

		h := api.NewHandler(api.HandlerDeps{
			Analyzer: a.analyzer,
			Engine:   a.engine,
			Repo:     a.healthRepo(),
			Cache:    a.cache,
			Bus:      a.bus,
		}, cfg.Server, cfg.Extraction.MaxDebugLines, Version)
		srv := api.NewServer(cfg.Server, h, a.metrics)

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		slog.Info("tradescan is ready",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
		)
		printBanner(cfg, Version)

		select {
		case <-ctx.Done():
			slog.Info("shutting down...")
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
		}

		if w != nil {
			if err := w.Stop(); err != nil {
				slog.Error("failed to stop async worker", "error", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}

		slog.Info("tradescan shutdown complete")
		return nil
	},
}
