package application

import (
	"context"
	"log/slog"

	"github.com/jobrunner/strata/internal/domain"
	"github.com/jobrunner/strata/internal/ports/output"
)

// CatalogService exposes the geometry catalog.
type CatalogService struct {
	repo    output.SpatialRepository
	metrics output.MetricsCollector
	logger  *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo output.SpatialRepository, metrics output.MetricsCollector, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
	}
}

// ListTables returns every registered spatial table.
func (s *CatalogService) ListTables(ctx context.Context) ([]domain.SpatialTable, error) {
	tables, err := s.repo.Geometries(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.SetTablesLoaded(len(tables))
	return tables, nil
}

// GetTable returns the catalog record for a single table.
func (s *CatalogService) GetTable(ctx context.Context, name string) (domain.SpatialTable, error) {
	return s.repo.GetGeometryData(ctx, name)
}
