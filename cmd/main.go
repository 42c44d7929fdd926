package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finbridge/internal/config"
	"finbridge/internal/coordinator"
	"finbridge/internal/handlers"
	"finbridge/internal/logger"
	"finbridge/internal/repository"
	"finbridge/internal/server"
	"finbridge/internal/service"
	"finbridge/internal/upstream"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// load config.yml (and FINBRIDGE_* env overrides)
	cfg, err := config.Load("configs")
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger at the configured level
	log := logger.Get(cfg.Log.Level)

	// open DB
	db, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(db)

	client := upstream.New(upstream.Config{
		Host:    cfg.Upstream.Host,
		Port:    cfg.Upstream.Port,
		TLS:     cfg.Upstream.TLS,
		APIKey:  cfg.Upstream.APIKey,
		Timeout: cfg.Upstream.Timeout(),
	})

	coord, err := coordinator.New(client, repos.Snapshots, repos.PollLog, log.Named("coordinator"), coordinator.Options{
		Interval:         cfg.Poll.Interval(),
		FailureThreshold: cfg.Poll.FailureThreshold,
	})
	if err != nil {
		log.Fatalw("failed to build coordinator", "err", err)
	}

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// resume from the last persisted snapshot, then start polling
	if err := coord.Restore(ctx); err != nil {
		log.Warnw("could not restore persisted snapshot", "err", err)
	}
	go coord.Run(ctx)

	services := service.NewService(coord, repos, service.AuthConfig{
		SigningKey: cfg.Auth.SigningKey,
		TokenTTL:   cfg.Auth.TokenTTL(),
	})
	apiHandler := handlers.NewHandler(services, log)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Server.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	dbPath := cfg.DB.Path
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "finbridge.db")
		dbPath = "finbridge.db"
	}
	return repository.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the poll loop and subscribers first
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
