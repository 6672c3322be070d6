package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"nutrilog/internal/cli"
	apphttp "nutrilog/internal/http"
	applog "nutrilog/internal/log"
	"nutrilog/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Invalid configuration", applog.FieldError, err)
		os.Exit(1)
	}

	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)

	store, res, err := cli.OpenLedger(context.Background(), logger.Logger, cfg)
	if err != nil {
		logger.Error("Failed to open ledger backend", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	var svc *services.LedgerService
	if res.Events != nil {
		svc = services.NewLedgerService(store, res.Events)
	} else {
		svc = services.NewLedgerService(store, nil)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := svc.ShowMonth(startCtx, time.Now()); err != nil {
		logger.Warn("Initial month load failed", applog.FieldError, err)
	}
	cancelStart()

	var listener *services.ChangeListener
	if res.Events != nil {
		listener = services.NewChangeListener(res.Events, svc)
		if err := listener.Start(context.Background()); err != nil {
			logger.Error("Failed to start change listener", applog.FieldError, err)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		MutationsPerMinute: cfg.MutationsPerMinute,
		Logger:             logger,
	})

	ctx, done := cli.GracefulShutdown(logger.Logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if listener != nil {
			if err := listener.Stop(ctx); err != nil {
				logger.Error("Change listener shutdown error", applog.FieldError, err)
			}
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	logger.Info("Starting nutrilog server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"events", res.Events != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
