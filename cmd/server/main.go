/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the seed engine server: configuration, dependency
  wiring, HTTP router, the single long-lived scheduler instance, and
  graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags (and optional YAML config)
  2. Initialize SQLite store
  3. Construct entity services over the store
  4. Construct and start the due-follow-up scheduler
  5. Start HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (default: 8080)
  -db       SQLite database path (default: seeds.db)
            Use ":memory:" for an in-memory database
  -config   Optional YAML config file; flags override it

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections (30s drain)
  2. Stop the scheduler and await its in-flight cycle (bounded)
  3. Close the database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Scheduler lifecycle
  - config/config.go: YAML configuration
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/verdant/seed-engine/api"
	"github.com/verdant/seed-engine/config"
	"github.com/verdant/seed-engine/engine"
	"github.com/verdant/seed-engine/followup"
	"github.com/verdant/seed-engine/seed"
	"github.com/verdant/seed-engine/store/sqlite"
	"github.com/verdant/seed-engine/tag"
)

func main() {
	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	// Initialize store (transactions + directory in one SQLite database)
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	clock := engine.SystemClock{}
	logger := log.New(os.Stderr, "", log.LstdFlags)

	// Entity services
	seeds := seed.NewService(store, store, clock, logger)
	tags := tag.NewService(store, store, clock, logger)
	followups := followup.NewService(store, store, seeds, clock, logger)

	// The one scheduler instance for the whole process, passed by handle.
	scheduler := api.NewDueFollowupScheduler(followups, store, clock, logger)
	scheduler.CheckInterval = cfg.Scheduler.CheckInterval
	scheduler.StaleAfter = cfg.Scheduler.StaleAfter
	scheduler.SnoozeMinutes = cfg.Scheduler.SnoozeMinutes
	scheduler.RecentSnoozeWindow = cfg.Scheduler.RecentSnoozeWindow
	scheduler.StopTimeout = cfg.Scheduler.StopTimeout
	scheduler.Start()

	// Router + server
	handler := api.NewHandler(seeds, tags, followups, store, scheduler)
	router := api.NewRouter(handler, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	<-scheduler.Stop()

	log.Println("Server stopped")
}
