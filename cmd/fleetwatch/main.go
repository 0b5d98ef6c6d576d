package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"fleetwatch/internal/config"
	"fleetwatch/internal/database"
	"fleetwatch/internal/metrics"
	"fleetwatch/internal/monitoring"
	"fleetwatch/internal/web"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Configuration file path")
	version := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *version {
		fmt.Printf("Fleetwatch Compliance Monitor v1.0.0\nBuild: %s\n", getBuildInfo())
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	setupLogging(cfg.Logging)

	logrus.WithFields(logrus.Fields{
		"config_file": *configFile,
		"port":        cfg.Server.Port,
		"components":  len(cfg.Components),
	}).Info("Starting Fleetwatch compliance monitor")

	// Initialize record store
	store, err := newStore(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	// Initialize metrics
	metricsCollector := metrics.NewCollector()

	// Initialize compliance engine
	engine := monitoring.NewEngine(cfg, store, metricsCollector)

	// Initialize web server
	webServer := web.NewServer(cfg, store, engine, metricsCollector)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start services
	if err := engine.Start(ctx); err != nil {
		logrus.Fatalf("Failed to start engine: %v", err)
	}
	if err := webServer.Start(ctx); err != nil {
		logrus.Fatalf("Failed to start web server: %v", err)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logrus.WithField("signal", sig).Info("Received shutdown signal")

	// Graceful shutdown
	cancel()
	engine.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := webServer.Stop(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Web server shutdown failed")
	}

	logrus.Info("Shutdown complete")
}

func newStore(cfg *config.Config) (database.Store, error) {
	if cfg.Database.Type == "memory" {
		return database.NewMemStore(cfg.Database.HeartbeatTTL, cfg.Database.AlertRetention), nil
	}
	return database.NewBoltStore(cfg.Database.Path, cfg.Database.HeartbeatTTL, cfg.Database.AlertRetention)
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

func getBuildInfo() string {
	return "dev-build" // This would be replaced by build system
}
