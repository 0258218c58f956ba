package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, live streams and scheduled jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			root, err := NewCompositionRoot(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer root.Close()

			e, err := root.CreateEcho(ctx)
			if err != nil {
				return err
			}
			if err = root.ResumeTracking(ctx); err != nil {
				return err
			}

			jobManager := root.CreateJobManager()
			if err = jobManager.StartAll(); err != nil {
				return err
			}
			defer jobManager.StopAll()

			serveErr := make(chan error, 1)
			go func() {
				logger.InfoContext(ctx, "HTTP server listening", "port", cfg.HTTPPort)
				serveErr <- e.Start(fmt.Sprintf("0.0.0.0:%d", cfg.HTTPPort))
			}()

			select {
			case err = <-serveErr:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err = root.Shutdown(shutdownCtx); err != nil {
				logger.Error("Feeds did not stop in time", "error", err)
			}
			if err = e.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Requests cut at shutdown", "error", err)
				return e.Close()
			}
			return nil
		},
	}
}
