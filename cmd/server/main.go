package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"healthtrack/backend/internal/config"
	"healthtrack/backend/internal/db"
	"healthtrack/backend/internal/handler"
	"healthtrack/backend/internal/metrics"
	"healthtrack/backend/internal/repository"
	"healthtrack/backend/internal/router"
	"healthtrack/backend/internal/service"
	"healthtrack/backend/internal/store"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	trackingCfg, err := config.LoadTracking(cfg.TrackingConfigPath)
	if err != nil {
		log.Fatalf("load tracking config: %v", err)
	}

	database, err := db.Open(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, closeStore, err := store.Open(ctx, store.Options{
		Backend:     cfg.StoreBackend,
		SQLite:      database,
		PostgresDSN: cfg.PostgresDSN,
		Secret:      cfg.StoreSecret,
	})
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	userRepo := repository.NewUserRepository(database)
	sessionRepos := repository.NewSessionRepositories(kv, logger)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	profileService := service.NewProfileService(userRepo)
	trackingService := service.NewTrackingService(trackingCfg, userRepo, sessionRepos, m, logger, cfg.TickInterval)
	defer trackingService.Close()
	historyService := service.NewHistoryService(sessionRepos, m, logger)

	engine := router.New(
		authService,
		handler.NewAuthHandler(authService),
		handler.NewProfileHandler(profileService),
		handler.NewTrackingHandler(trackingService),
		handler.NewActivityHandler(historyService),
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		cfg.CORSOrigins,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	logger.Info("backend listening",
		"port", cfg.Port,
		"store", cfg.StoreBackend,
		"encrypted", cfg.StoreSecret != "",
		"tick_interval", cfg.TickInterval.String(),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("run server: %v", err)
	}
}
