package application

import (
	"context"

	"github.com/jobrunner/strata/internal/ports/input"
	"github.com/jobrunner/strata/internal/ports/output"
)

// HealthService provides health check functionality.
type HealthService struct {
	repo output.SpatialRepository
}

// NewHealthService creates a new health service.
func NewHealthService(repo output.SpatialRepository) *HealthService {
	return &HealthService{
		repo: repo,
	}
}

// IsHealthy returns true if the service is healthy.
func (s *HealthService) IsHealthy(ctx context.Context) bool {
	return true // Basic health check
}

// IsReady returns true if the service is ready to accept requests. Ready
// means the database answers and the spatial extension is loaded.
func (s *HealthService) IsReady(ctx context.Context) bool {
	_, err := s.repo.Version(ctx)
	return err == nil
}

// GetHealthDetails returns detailed health information.
func (s *HealthService) GetHealthDetails(ctx context.Context) input.HealthDetails {
	components := map[string]string{
		"database": "ok",
	}

	version, err := s.repo.Version(ctx)
	if err != nil {
		components["database"] = err.Error()
	}

	loaded := 0
	if tables, err := s.repo.Geometries(ctx); err == nil {
		loaded = len(tables)
	} else {
		components["catalog"] = err.Error()
	}

	return input.HealthDetails{
		Healthy:           s.IsHealthy(ctx),
		Ready:             err == nil,
		TablesLoaded:      loaded,
		SpatialiteVersion: version,
		Components:        components,
	}
}
