/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the labor engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, then environment)
  2. Build the logger
  3. Initialize SQLite store
  4. Load designated holidays into the French calendar
  5. Create API handler and router
  6. Start the accrual refresher
  7. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (SERVER_SHUTDOWN_TIMEOUT)
  3. Stop the accrual refresher
  4. Close database connection

EXAMPLES:
  # Run with file database
  DATABASE_PATH=./data/labor.db ./server

  # Run with in-memory database and JSON logs
  DATABASE_PATH=":memory:" LOG_FORMAT=json ./server

SEE ALSO:
  - config/config.go: Settings and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/labor-engine/api"
	"github.com/warp/labor-engine/config"
	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log, err := cfg.Logger(os.Stdout)
	if err != nil {
		logrus.Fatalf("Failed to configure logging: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path, sqlite.WithLogger(log))
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer store.Close()

	// Designated exceptional holidays survive restarts
	calendar := generic.NewFrenchCalendar()
	if err := store.LoadCalendar(context.Background(), calendar); err != nil {
		log.WithError(err).Warn("Failed to load designated holidays")
	}

	handler := api.NewHandler(store, calendar, log)
	router := api.NewRouter(handler, cfg.CORS.AllowedOrigins)

	refresher := api.NewAccrualRefresher(store, log)
	refresher.Enabled = cfg.Accrual.Enabled
	refresher.CheckInterval = cfg.Accrual.Interval
	refresher.Start()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithFields(logrus.Fields{
			"port":     cfg.Server.Port,
			"database": cfg.Database.Path,
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	refresher.Stop()

	log.Info("Server stopped")
}
