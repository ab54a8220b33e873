// Package app provides application initialization and wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	httpAdapter "github.com/jobrunner/strata/internal/adapters/http"
	"github.com/jobrunner/strata/internal/adapters/metrics"
	"github.com/jobrunner/strata/internal/adapters/spatialite"
	"github.com/jobrunner/strata/internal/adapters/storage"
	tlsAdapter "github.com/jobrunner/strata/internal/adapters/tls"
	"github.com/jobrunner/strata/internal/adapters/watcher"
	"github.com/jobrunner/strata/internal/application"
	"github.com/jobrunner/strata/internal/config"
	"github.com/jobrunner/strata/internal/domain"
	"github.com/jobrunner/strata/internal/ports/output"
	"github.com/jobrunner/strata/internal/refsys"
)

// App holds all application components.
type App struct {
	Config         *config.Config
	Logger         *slog.Logger
	DB             *spatialite.DB
	Storage        output.ObjectStorage
	QueryService   *application.QueryService
	ETLService     *application.ETLService
	CatalogService *application.CatalogService
	HealthService  *application.HealthService
	IngestService  *application.IngestService
	SyncService    *application.SyncService
	HTTPServer     *httpAdapter.Server
	TLSServer      *tlsAdapter.Server
	Watcher        *watcher.Watcher
	Metrics        *metrics.Collector
	MetricsServer  *metrics.Server
}

// New creates and initializes a new application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize metrics
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector("strata")
		app.MetricsServer = metrics.NewServer(
			cfg.Metrics.Port,
			cfg.Metrics.Path,
			logger,
		)
	}

	var metricsCollector output.MetricsCollector
	if app.Metrics != nil {
		metricsCollector = app.Metrics
	} else {
		metricsCollector = &output.NoOpMetrics{}
	}

	// Open the SpatiaLite database
	db, err := spatialite.Open(ctx, cfg.Database.Path, spatialite.Options{
		Relaxed: cfg.Database.Relaxed,
		Fetcher: refsys.NewFetcher(refsys.FetcherConfig{
			BaseURL: cfg.RefSys.BaseURL,
			Timeout: cfg.RefSys.Timeout,
		}),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	app.DB = db

	// Initialize application services
	app.QueryService = application.NewQueryService(
		db,
		metricsCollector,
		logger,
		application.QueryServiceConfig{
			MaxRows: cfg.Query.MaxRows,
		},
	)
	app.ETLService = application.NewETLService(db, metricsCollector, logger)
	app.CatalogService = application.NewCatalogService(db, metricsCollector, logger)
	app.HealthService = application.NewHealthService(db)

	// Initialize bundle ingest from object storage if enabled
	if cfg.Ingest.Enabled {
		store, err := initStorage(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("initializing storage: %w", err)
		}
		app.Storage = store

		app.IngestService = application.NewIngestService(
			db,
			store,
			metricsCollector,
			logger,
			cfg.Ingest.CachePath,
			application.IngestConfig{
				SRID:      cfg.Ingest.SRID,
				Authority: cfg.Ingest.Authority,
				Charset:   cfg.Ingest.Charset,
			},
		)
		app.SyncService = application.NewSyncService(
			app.IngestService,
			cfg.Ingest.SyncInterval,
			logger,
		)
	}

	// Initialize HTTP server
	var metricsMW func(http.Handler) http.Handler
	if app.Metrics != nil {
		metricsMW = app.Metrics.Middleware
	}
	app.HTTPServer = httpAdapter.NewServer(
		cfg.Server,
		app.QueryService,
		app.ETLService,
		app.CatalogService,
		app.HealthService,
		app.IngestService,
		app.SyncService,
		metricsMW,
		logger,
	)

	// Initialize TLS server if enabled
	if cfg.TLS.Enabled {
		tlsServer, err := tlsAdapter.NewServer(
			tlsAdapter.Config{
				Enabled:  cfg.TLS.Enabled,
				Domains:  cfg.TLS.Domains,
				Email:    cfg.TLS.Email,
				CacheDir: cfg.TLS.CacheDir,
				Staging:  cfg.TLS.Staging,
				DNS: tlsAdapter.DNSConfig{
					SubscriptionID:    cfg.TLS.DNS.SubscriptionID,
					ResourceGroupName: cfg.TLS.DNS.ResourceGroupName,
					ClientID:          cfg.TLS.DNS.ClientID,
				},
			},
			app.HTTPServer.Router(),
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("initializing TLS: %w", err)
		}
		app.TLSServer = tlsServer
	}

	// Initialize the shapefile drop-directory watcher
	if cfg.Watch.Enabled {
		w, err := watcher.New(
			watcher.Config{
				Paths: cfg.Watch.Dirs,
			},
			app.handleFileEvent,
			logger,
		)
		if err != nil {
			logger.Warn("failed to initialize file watcher", "error", err)
		} else {
			app.Watcher = w
		}
	}

	return app, nil
}

// Start starts all application components.
func (a *App) Start(ctx context.Context) error {
	// Import all bundles from object storage
	if a.IngestService != nil {
		if err := a.IngestService.LoadAll(ctx); err != nil {
			a.Logger.Warn("failed to load bundles", "error", err)
		}
	}

	// Start periodic sync
	if a.SyncService != nil {
		a.SyncService.Start(ctx)
	}

	// Start file watcher
	if a.Watcher != nil {
		if err := a.Watcher.Start(ctx); err != nil {
			a.Logger.Warn("failed to start file watcher", "error", err)
		}
	}

	// Start metrics server in background
	if a.MetricsServer != nil {
		go func() {
			if err := a.MetricsServer.Start(); err != nil && err.Error() != "http: Server closed" {
				a.Logger.Error("metrics server error", "error", err)
			}
		}()
	}

	// Start server
	if a.Config.TLS.Enabled && a.TLSServer != nil {
		return a.TLSServer.ListenAndServe(a.Config.Server.Address())
	}
	return a.HTTPServer.Start()
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	// Stop watcher
	if a.Watcher != nil {
		_ = a.Watcher.Stop()
	}

	// Stop periodic sync
	if a.SyncService != nil {
		a.SyncService.Stop()
	}

	// Shutdown metrics server
	if a.MetricsServer != nil {
		if err := a.MetricsServer.Shutdown(ctx); err != nil {
			a.Logger.Error("metrics server shutdown error", "error", err)
		}
	}

	// Shutdown HTTP server
	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.Logger.Error("HTTP server shutdown error", "error", err)
	}

	// Close the database
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("database close error", "error", err)
		}
	}

	return nil
}

// handleFileEvent imports shapefiles dropped into a watched directory.
func (a *App) handleFileEvent(ctx context.Context, event watcher.Event) error {
	a.Logger.Info("file event", "path", event.Path, "operation", event.Operation.String())

	switch event.Operation {
	case watcher.OpCreate, watcher.OpModify:
		table := tableNameFromPath(event.Path)
		_, err := a.ETLService.ImportShapefile(ctx, event.Path, table, domain.ImportOptions{
			SRID:         a.Config.Watch.SRID,
			SpatialIndex: true,
		})
		return err

	case watcher.OpDelete:
		// Imported tables are kept; dropping them is left to the operator.
		return nil
	}

	return nil
}

// tableNameFromPath derives the target table name from a shapefile path.
func tableNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// initStorage initializes the appropriate storage adapter.
func initStorage(ctx context.Context, cfg config.StorageConfig) (output.ObjectStorage, error) {
	switch cfg.Type {
	case "local":
		return storage.NewLocalStorage(cfg.LocalPath), nil

	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})

	case "azure":
		return storage.NewAzureStorage(storage.AzureConfig{
			Container:        cfg.Azure.Container,
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ConnectionString: cfg.Azure.ConnectionString,
			Prefix:           cfg.Azure.Prefix,
		})

	case "http":
		return storage.NewHTTPStorage(storage.HTTPConfig{
			BaseURL:   cfg.HTTP.BaseURL,
			IndexFile: cfg.HTTP.IndexFile,
			Timeout:   cfg.HTTP.Timeout,
			Username:  cfg.HTTP.Username,
			Password:  cfg.HTTP.Password,
		}), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
