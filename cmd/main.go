package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pump-control-backend/internal/handlers"
	"pump-control-backend/internal/logger"
	"pump-control-backend/internal/repository"
	repodb "pump-control-backend/internal/repository/db"
	"pump-control-backend/internal/server"
	"pump-control-backend/internal/service"

	"github.com/spf13/viper"
)

// Default cadences for the background loops; overridable from config.
const (
	defaultLivenessTick  = 60 * time.Second
	defaultReconcileTick = 120 * time.Second
	defaultInterlockTick = 10 * time.Second
)

func main() {
	// init logger
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(db)
	hub := handlers.NewHub(log)
	services := service.NewService(repos, log, hub, viper.GetString("device.primary_id"))
	apiHandler := handlers.NewHandler(services, hub, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// observer fan-out and the three periodic loops
	go hub.Run(ctx)
	go services.Sweeps.RunLiveness(ctx, tickFromConfig("sweeps.liveness_interval_s", defaultLivenessTick))
	go services.Sweeps.RunPendingReconciliation(ctx, tickFromConfig("sweeps.reconcile_interval_s", defaultReconcileTick))
	go services.Interlock.Run(ctx, tickFromConfig("interlock.interval_s", defaultInterlockTick))

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// tickFromConfig reads an interval in seconds from config, falling back to def.
func tickFromConfig(key string, def time.Duration) time.Duration {
	if s := viper.GetInt(key); s > 0 {
		return time.Duration(s) * time.Second
	}
	return def
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "pumpstation.db")
		dbPath = "pumpstation.db"
	}
	return repodb.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
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

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
