// Package input defines the primary/driving ports of the application.
package input

import (
	"context"

	"github.com/jobrunner/strata/internal/domain"
)

// QueryService defines the primary port for SQL queries against the
// spatial database.
type QueryService interface {
	// Query executes raw SQL and returns the post-processed frame.
	Query(ctx context.Context, query string, args ...any) (*domain.Frame, error)

	// CreateTableAs materializes a SELECT statement as a new table.
	CreateTableAs(ctx context.Context, table, query string, srid int, opts domain.LoadOptions) (domain.OperationLog, error)
}

// ETLService defines the primary port for spatial data movement and
// schema alteration.
type ETLService interface {
	// Load persists a frame as a registered spatial table.
	Load(ctx context.Context, frame *domain.Frame, table string, srid int, opts domain.LoadOptions) (domain.OperationLog, error)

	// AlterGeometry rebuilds a spatial table's geometry column.
	AlterGeometry(ctx context.Context, table string, opts domain.AlterOptions) (domain.OperationLog, error)

	// ImportShapefile imports an external shapefile into a new table.
	ImportShapefile(ctx context.Context, path, table string, opts domain.ImportOptions) (domain.OperationLog, error)

	// ExportShapefile exports a table as an external shapefile.
	ExportShapefile(ctx context.Context, table, path string, opts domain.ExportOptions) (domain.OperationLog, error)
}

// CatalogService defines the primary port for geometry catalog access.
type CatalogService interface {
	// ListTables returns every registered spatial table.
	ListTables(ctx context.Context) ([]domain.SpatialTable, error)

	// GetTable returns the catalog record for a single table.
	GetTable(ctx context.Context, name string) (domain.SpatialTable, error)
}

// HealthChecker defines the primary port for health checks.
type HealthChecker interface {
	// IsHealthy returns true if the service is healthy.
	IsHealthy(ctx context.Context) bool

	// IsReady returns true if the service is ready to accept requests.
	IsReady(ctx context.Context) bool

	// GetHealthDetails returns detailed health information.
	GetHealthDetails(ctx context.Context) HealthDetails
}

// HealthDetails contains detailed health information.
type HealthDetails struct {
	Healthy           bool              // Overall health status
	Ready             bool              // Ready to accept requests
	TablesLoaded      int               // Number of registered spatial tables
	SpatialiteVersion string            // Loaded extension version
	Components        map[string]string // Component statuses
}
