package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/jobrunner/strata/internal/domain"
	"github.com/jobrunner/strata/internal/ports/output"
)

// QueryService handles SQL queries against the spatial database.
type QueryService struct {
	repo    output.SpatialRepository
	metrics output.MetricsCollector
	logger  *slog.Logger
	maxRows int
}

// QueryServiceConfig holds configuration for the query service.
type QueryServiceConfig struct {
	MaxRows int
}

// NewQueryService creates a new query service.
func NewQueryService(
	repo output.SpatialRepository,
	metrics output.MetricsCollector,
	logger *slog.Logger,
	cfg QueryServiceConfig,
) *QueryService {
	if cfg.MaxRows == 0 {
		cfg.MaxRows = 10000
	}

	return &QueryService{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		maxRows: cfg.MaxRows,
	}
}

// Query executes raw SQL and returns the post-processed frame. Results
// are truncated to the configured row limit.
func (s *QueryService) Query(ctx context.Context, query string, args ...any) (*domain.Frame, error) {
	start := time.Now()

	frame, err := s.repo.Query(ctx, query, args...)
	elapsed := time.Since(start)
	s.metrics.IncOperationCount("query", err == nil)
	s.metrics.ObserveOperationDuration("query", elapsed)
	if err != nil {
		s.logger.Warn("query failed", "error", err)
		return nil, err
	}

	if frame.Len() > s.maxRows {
		s.logger.Warn("query result truncated", "rows", frame.Len(), "max", s.maxRows)
		frame.Rows = frame.Rows[:s.maxRows]
	}

	s.logger.Debug("query completed", "rows", frame.Len(), "duration", elapsed)
	return frame, nil
}

// CreateTableAs materializes a SELECT statement as a new table.
func (s *QueryService) CreateTableAs(ctx context.Context, table, query string, srid int, opts domain.LoadOptions) (domain.OperationLog, error) {
	start := time.Now()

	log, err := s.repo.CreateTableAs(ctx, table, query, srid, opts)
	s.metrics.IncOperationCount("create_table_as", err == nil)
	s.metrics.ObserveOperationDuration("create_table_as", time.Since(start))
	if err != nil {
		s.logger.Warn("create table as failed", "table", table, "error", err)
		return log, err
	}

	s.logger.Info("table created from query", "table", table, "srid", srid)
	return log, nil
}
