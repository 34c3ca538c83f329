package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/finadvisor/internal/config"
	"github.com/bryanwahyu/finadvisor/internal/infra/httpserver"
	"github.com/bryanwahyu/finadvisor/internal/middleware"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger, err := config.InitLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	app, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	sweepStop := make(chan struct{})
	defer close(sweepStop)
	go limiter.Run(sweepStop)

	handler := httpserver.NewRouter(httpserver.Options{
		Financials:  app.Financials,
		Advisory:    app.Advisory,
		Checkers:    app.Checkers,
		RateLimiter: limiter,
		CORSOrigins: cfg.Server.CORSOrigins,
		Files:       app.Files,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// run server
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server listening",
			zap.String("addr", addr),
			zap.String("store", cfg.Store.Driver),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("lock", cfg.Lock.Driver),
			zap.String("advisory", cfg.Advisory.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// graceful shutdown
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	zap.L().Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("shutdown error", zap.Error(err))
		return err
	}
	return nil
}
