package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/docflow/internal/adapters/http"
	"github.com/kirillkom/docflow/internal/bootstrap"
	"github.com/kirillkom/docflow/internal/config"
	"github.com/kirillkom/docflow/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logging.Install("api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if _, err := bootstrap.SeedUsers(ctx, cfg.SeedUsersFile, app.UserUC); err != nil {
		slog.Error("seed_users_failed", "error", err)
		os.Exit(1)
	}

	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Auth:      app.AuthUC,
		Users:     app.UserUC,
		Documents: app.DocumentUC,
		Ingestion: app.IngestionUC,
	}, app.Metrics).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
	if !app.WaitForDispatches(30 * time.Second) {
		slog.Warn("ingestion_dispatch_wait_timeout")
	}
}
