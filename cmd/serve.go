package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/UnknownOlympus/geobatch/internal/server"
	"github.com/UnknownOlympus/geobatch/internal/service"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve batches over the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		application, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer application.close()

		manager := service.NewManager(ctx, logger, application.provider, application.areas,
			application.recorder, application.metrics, application.options(nil))

		var db server.Pinger
		if application.repo != nil {
			db = application.repo
		}

		readTimeout := 5
		writeTimeout := 30
		httpServer := &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      server.New(logger, manager, db, application.reg).Router(),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.InfoContext(ctx, "Starting HTTP server", "port", cfg.Port)
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case err = <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err = httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
		if err = manager.Wait(shutdownCtx); err != nil {
			return err
		}

		logger.InfoContext(shutdownCtx, "Application stopped gracefully.")

		return nil
	},
}
