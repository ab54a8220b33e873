package output

import (
	"context"

	"github.com/jobrunner/strata/internal/domain"
)

// SpatialRepository defines the secondary port for SpatiaLite data access.
type SpatialRepository interface {
	// Load persists a frame as a registered spatial table.
	Load(ctx context.Context, frame *domain.Frame, table string, srid int, opts domain.LoadOptions) (domain.OperationLog, error)

	// Query executes raw SQL with geometry post-processing.
	Query(ctx context.Context, query string, args ...any) (*domain.Frame, error)

	// CreateTableAs materializes a SELECT statement as a new table.
	CreateTableAs(ctx context.Context, table, query string, srid int, opts domain.LoadOptions) (domain.OperationLog, error)

	// AlterGeometry rebuilds a spatial table's geometry column.
	AlterGeometry(ctx context.Context, table string, opts domain.AlterOptions) (domain.OperationLog, error)

	// ImportShapefile imports an external shapefile into a new table.
	ImportShapefile(ctx context.Context, path, table string, opts domain.ImportOptions) (domain.OperationLog, error)

	// ExportShapefile exports a table as an external shapefile.
	ExportShapefile(ctx context.Context, table, path string, opts domain.ExportOptions) (domain.OperationLog, error)

	// Geometries returns every registered spatial table.
	Geometries(ctx context.Context) ([]domain.SpatialTable, error)

	// GetGeometryData returns the catalog record for a single table.
	GetGeometryData(ctx context.Context, table string) (domain.SpatialTable, error)

	// IsSpatial reports whether a table is registered in the geometry catalog.
	IsSpatial(ctx context.Context, table string) (bool, error)

	// HasTable reports whether a table exists.
	HasTable(ctx context.Context, name string) (bool, error)

	// TableNames returns the names of all tables.
	TableNames(ctx context.Context) ([]string, error)

	// Version returns the version of the loaded spatial extension.
	Version(ctx context.Context) (string, error)

	// Path returns the database file path.
	Path() string

	// Close closes the underlying connection.
	Close() error
}
