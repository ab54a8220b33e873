package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/jobrunner/strata/internal/domain"
	"github.com/jobrunner/strata/internal/ports/output"
)

// ETLService handles spatial data movement and schema alteration. It
// wraps the repository with per-operation metrics and logging.
type ETLService struct {
	repo    output.SpatialRepository
	metrics output.MetricsCollector
	logger  *slog.Logger
}

// NewETLService creates a new ETL service.
func NewETLService(repo output.SpatialRepository, metrics output.MetricsCollector, logger *slog.Logger) *ETLService {
	return &ETLService{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
	}
}

// Load persists a frame as a registered spatial table.
func (s *ETLService) Load(ctx context.Context, frame *domain.Frame, table string, srid int, opts domain.LoadOptions) (domain.OperationLog, error) {
	start := time.Now()
	log, err := s.repo.Load(ctx, frame, table, srid, opts)
	s.observe(domain.OpLoad, start, err)
	return log, err
}

// AlterGeometry rebuilds a spatial table's geometry column.
func (s *ETLService) AlterGeometry(ctx context.Context, table string, opts domain.AlterOptions) (domain.OperationLog, error) {
	start := time.Now()
	log, err := s.repo.AlterGeometry(ctx, table, opts)
	s.observe(domain.OpAlterGeometry, start, err)
	return log, err
}

// ImportShapefile imports an external shapefile into a new table.
func (s *ETLService) ImportShapefile(ctx context.Context, path, table string, opts domain.ImportOptions) (domain.OperationLog, error) {
	start := time.Now()
	log, err := s.repo.ImportShapefile(ctx, path, table, opts)
	s.observe(domain.OpImportShapefile, start, err)
	return log, err
}

// ExportShapefile exports a table as an external shapefile.
func (s *ETLService) ExportShapefile(ctx context.Context, table, path string, opts domain.ExportOptions) (domain.OperationLog, error) {
	start := time.Now()
	log, err := s.repo.ExportShapefile(ctx, table, path, opts)
	s.observe(domain.OpExportShapefile, start, err)
	return log, err
}

func (s *ETLService) observe(op string, start time.Time, err error) {
	elapsed := time.Since(start)
	s.metrics.IncOperationCount(op, err == nil)
	s.metrics.ObserveOperationDuration(op, elapsed)
	if err != nil {
		s.logger.Error("operation failed", "operation", op, "error", err)
	}
}
