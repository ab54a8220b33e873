// Package main provides the entry point for the strata SpatiaLite service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jobrunner/strata/internal/app"
	"github.com/jobrunner/strata/internal/config"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var cfgFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Strata - SpatiaLite convenience service",
	Long: `Strata is a convenience layer over SpatiaLite databases.

It provides a REST API and CLI for loading tabular data as spatial
tables, running SQL with geometry post-processing, altering geometry
columns and moving data through shapefiles.

Features:
  - SQL queries with geometry blob decoding to WKT
  - Spatial reference resolution via spatialreference.org
  - Shapefile import/export in relaxed security mode
  - Geometry column alteration (SRID, type, dimensions)
  - Bundle ingest from object storage (local, AWS S3, Azure, HTTP)
  - Shapefile drop-directory watching
  - TLS with automatic certificate management
  - Prometheus metrics`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("Strata %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Build Date: %s\n", buildDate)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")
	rootCmd.PersistentFlags().String("db", "", "SpatiaLite database path")
	rootCmd.PersistentFlags().Bool("relaxed", false, "enable relaxed security mode (shapefile import/export)")

	// Server flags
	rootCmd.Flags().String("host", "0.0.0.0", "server host")
	rootCmd.Flags().Int("port", 8080, "server port")
	rootCmd.Flags().Bool("tls", false, "enable TLS")
	rootCmd.Flags().StringSlice("tls-domains", nil, "TLS domains")
	rootCmd.Flags().String("tls-email", "", "TLS email for Let's Encrypt")

	// Storage flags
	rootCmd.Flags().String("storage-type", "local", "storage type (local, s3, azure, http)")
	rootCmd.Flags().String("storage-path", "./data", "local storage path")

	// Ingest and watch flags
	rootCmd.Flags().Bool("ingest", false, "enable bundle ingest from object storage")
	rootCmd.Flags().StringSlice("watch", nil, "shapefile drop directories to watch")

	// CORS flags
	rootCmd.Flags().StringSlice("cors", nil, "allowed CORS origins (e.g., https://example.com,*.sub.domain.tld)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("database.relaxed", rootCmd.PersistentFlags().Lookup("relaxed"))
	_ = viper.BindPFlag("server.host", rootCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", rootCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("tls.enabled", rootCmd.Flags().Lookup("tls"))
	_ = viper.BindPFlag("tls.domains", rootCmd.Flags().Lookup("tls-domains"))
	_ = viper.BindPFlag("tls.email", rootCmd.Flags().Lookup("tls-email"))
	_ = viper.BindPFlag("storage.type", rootCmd.Flags().Lookup("storage-type"))
	_ = viper.BindPFlag("storage.local_path", rootCmd.Flags().Lookup("storage-path"))
	_ = viper.BindPFlag("ingest.enabled", rootCmd.Flags().Lookup("ingest"))
	_ = viper.BindPFlag("watch.enabled", rootCmd.Flags().Lookup("watch"))
	_ = viper.BindPFlag("watch.dirs", rootCmd.Flags().Lookup("watch"))
	_ = viper.BindPFlag("server.cors.allowed_origins", rootCmd.Flags().Lookup("cors"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}

func initConfig() {
	config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func runServer(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting strata",
		"version", version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"database", cfg.Database.Path,
		"relaxed", cfg.Database.Relaxed,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize application
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	// Start server in background
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", cfg.Server.Address())
		if err := application.Start(ctx); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		cancel()
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	logger.Info("shutting down server")
	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(time.Now().UTC().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
