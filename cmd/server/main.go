package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sumire/issuetracker/internal/config"
	"github.com/sumire/issuetracker/internal/handler"
	"github.com/sumire/issuetracker/internal/repository"
	"github.com/sumire/issuetracker/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(newLogger(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, closeStore, err := openStore(ctx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Error("close store", "error", err)
		}
	}()

	slog.Info("database connected", "driver", cfg.DatabaseDriver)

	issueSvc := service.NewIssueService(service.NewProjectResolver(store))

	routerCfg := handler.RouterConfig{
		Issues:    issueSvc,
		BodyLimit: cfg.BodyLimit,
	}
	if cfg.FrontendURL != "" {
		routerCfg.AllowedOrigins = []string{cfg.FrontendURL}
	}
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		routerCfg.Metrics = handler.NewMetrics(reg)
		routerCfg.Gatherer = reg
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler.NewRouter(routerCfg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// openStore connects the configured backend and prepares its schema.
func openStore(ctx context.Context, cfg config.Config) (service.IssueStore, func() error, error) {
	if cfg.DatabaseDriver == repository.DriverMongo {
		client, err := repository.ConnectMongo(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewMongoIssueRepository(client.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repo, func() error { return client.Disconnect(context.Background()) }, nil
	}

	db, err := repository.OpenSQL(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if err := repository.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repository.NewIssueRepository(db), db.Close, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
