package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/wedding-planner/internal/api"
	"github.com/dom/wedding-planner/internal/config"
	"github.com/dom/wedding-planner/internal/platform/logger"
	"github.com/dom/wedding-planner/internal/realtime"
	"github.com/dom/wedding-planner/internal/repository/postgres"
	"github.com/dom/wedding-planner/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLog.Sync()

	// Initialize database; migrations run before the pool is handed out
	db, caps, err := postgres.NewConnection(cfg.DatabaseURL, cfg.SchemaVersion)
	if err != nil {
		appLog.Fatal("failed to connect to database", "error", err)
	}
	appLog.Info("database ready",
		"schema_version", caps.SchemaVersion,
		"mutual_handshake", caps.MutualHandshake,
	)

	repos := postgres.NewRepositories(db, caps)

	// Event bus: Redis fans out across instances, otherwise stay in-process
	var bus realtime.Bus
	if cfg.RedisAddr != "" {
		bus, err = realtime.NewRedisBus(appLog, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			appLog.Fatal("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		}
	} else {
		bus = realtime.NewLocalBus()
	}
	defer bus.Close()

	hub := realtime.NewHub(appLog)
	go hub.Run()

	forwardCtx, stopForwarding := context.WithCancel(context.Background())
	defer stopForwarding()
	if err := bus.StartForwarder(forwardCtx, hub.Deliver); err != nil {
		appLog.Fatal("failed to start event forwarder", "error", err)
	}

	services := service.NewServices(repos, cfg, appLog, bus)
	router := api.NewRouter(services, hub, appLog)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLog.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLog.Error("server forced to shutdown", "error", err)
	}
	stopForwarding()
	hub.Stop()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	appLog.Info("server stopped")
}
