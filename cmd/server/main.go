package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tutorials_api/internal/app"
	"tutorials_api/internal/domain/tutorial"
	"tutorials_api/internal/infra/config"
	idb "tutorials_api/internal/infra/database"
	"tutorials_api/internal/infra/httpserver"
	"tutorials_api/internal/infra/logger"
	"tutorials_api/internal/infra/metrics"
	"tutorials_api/internal/infra/scheduler"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")

	mainLogger.Infof("Configuration loaded. LogLevel: %s, Environment: %s, Port: %s", cfg.LogLevel, cfg.Environment, cfg.Port)

	// Initialize Repository
	var repo tutorial.Repository
	if cfg.DatabaseURL == idb.MemoryURL {
		repo = idb.NewMemoryTutorialRepository()
		mainLogger.Warn("Using in-memory tutorial repository; data is lost on exit.")
	} else {
		db, err := idb.NewPostgresConnection(cfg.DatabaseURL, idb.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		if err != nil {
			mainLogger.Fatalf("FATAL: Could not connect to database: %v", err)
		}
		defer db.Close()
		mainLogger.Info("Database connection established successfully.")

		gdb, err := idb.NewGorm(db, logger.Component("gorm"))
		if err != nil {
			mainLogger.Fatalf("FATAL: Could not initialize ORM: %v", err)
		}

		if cfg.DBSync {
			if err := idb.Sync(gdb); err != nil {
				mainLogger.WithError(err).Error("Failed to sync db.")
			} else {
				mainLogger.Info("Synced db.")
			}
		}

		repo = idb.NewPostgresTutorialRepository(gdb)
	}
	mainLogger.Info("Tutorial repository initialized.")

	tutorialService := app.NewTutorialService(repo)
	m := metrics.New()

	// Initialize StatsScheduler
	var statsScheduler *scheduler.StatsScheduler
	if cfg.StatsCronSpec != "" {
		statsScheduler = scheduler.NewStatsScheduler(tutorialService, m, logger.Component("scheduler"), cfg.StatsCronSpec)
		if err := statsScheduler.Start(); err != nil {
			mainLogger.Fatalf("FATAL: Could not start stats scheduler: %v", err)
		}
	}

	httpLogger := logger.Component("http")
	router := httpserver.NewRouter(httpserver.RouterConfig{
		BasePath:       cfg.APIBasePath,
		CORSOrigin:     cfg.CORSOrigin,
		Tutorials:      httpserver.NewTutorialHandlers(tutorialService, m, httpLogger),
		MetricsHandler: m.Handler(httpLogger),
		Recorder:       m,
		Logger:         httpLogger,
	})
	server := httpserver.NewServer(cfg.Addr(), router)

	// Start server in a goroutine so it doesn't block graceful shutdown handling
	go func() {
		mainLogger.Infof("Server is running on port %s.", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLogger.Fatalf("FATAL: Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		mainLogger.WithError(err).Error("Server forced to shutdown")
	}
	if statsScheduler != nil {
		statsScheduler.Stop()
	}
	// db.Close() is handled by defer
	mainLogger.Info("Application shut down gracefully.")
}
