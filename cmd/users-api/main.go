package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfagnish/users-api/internal/config"
	"github.com/alfagnish/users-api/internal/server"
	"github.com/alfagnish/users-api/internal/store"
	"github.com/alfagnish/users-api/internal/users"
	"github.com/sirupsen/logrus"
)

func main() {
	// 1. Load configuration from environment variables (and .env).
	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// 2. Pick the persistence backend.
	ctx := context.Background()
	var s store.Store
	if cfg.UseDatabase() {
		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		pg := store.NewPostgresStore(pool, logger)
		if err := pg.Migrate(ctx); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		s = pg
		logger.Info("using postgres store")
	} else {
		s = store.NewFileStore(cfg.DataFile, logger)
		logger.WithField("path", cfg.DataFile).Info("using file store")
	}

	// 3. Wire the router.
	mgr := users.NewManager(s, logger)
	handler := server.New(cfg, mgr, logger)

	// 4. Start the HTTP server.
	srv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Infof("Server is running on http://localhost%s", cfg.ListenAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-done
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown error: %v", err)
	}

	logger.Info("server stopped")
}
