package refsys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jobrunner/strata/internal/domain"
)

// DefinitionFetcher retrieves registration scripts for spatial reference
// systems absent from the registry.
type DefinitionFetcher interface {
	FetchDefinition(ctx context.Context, srid int, authority, format string) (string, error)
}

// Resolver checks and populates the spatial_ref_sys registry.
type Resolver struct {
	db      *sql.DB
	fetcher DefinitionFetcher
	logger  *slog.Logger
}

// NewResolver creates a resolver over the given database connection.
func NewResolver(db *sql.DB, fetcher DefinitionFetcher, logger *slog.Logger) *Resolver {
	return &Resolver{db: db, fetcher: fetcher, logger: logger}
}

// HasSRID reports whether a spatial reference system is registered, by
// identifier only.
func (r *Resolver) HasSRID(ctx context.Context, srid int) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM spatial_ref_sys WHERE srid = ?", srid,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking spatial_ref_sys: %w", err)
	}
	return count == 1, nil
}

// Resolve registers a spatial reference system if it is absent. It
// returns true when a registration script was fetched and executed, false
// when the system was already present.
func (r *Resolver) Resolve(ctx context.Context, srid int, authority string) (bool, error) {
	if authority == "" {
		authority = DefaultAuthority
	}

	present, err := r.HasSRID(ctx, srid)
	if err != nil {
		return false, err
	}
	if present {
		return false, nil
	}

	script, err := r.fetcher.FetchDefinition(ctx, srid, authority, "spatialite")
	if err != nil {
		return false, err
	}

	if _, err := r.db.ExecContext(ctx, script); err != nil {
		return false, &domain.LookupError{SRID: srid, Authority: authority,
			Err: fmt.Errorf("executing registration script: %w", err)}
	}

	r.logger.Info("registered spatial reference", "srid", srid, "authority", authority)
	return true, nil
}

// CRS looks up the coordinate reference system for a registered SRID. It
// fails with domain.ErrSRIDNotFound when the identifier has no matching
// registry entry.
func (r *Resolver) CRS(ctx context.Context, srid int) (domain.CRS, error) {
	var authority, proj4 string
	err := r.db.QueryRowContext(ctx,
		"SELECT auth_name, proj4text FROM spatial_ref_sys WHERE auth_srid = ?", srid,
	).Scan(&authority, &proj4)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CRS{}, fmt.Errorf("%w: %d", domain.ErrSRIDNotFound, srid)
	}
	if err != nil {
		return domain.CRS{}, fmt.Errorf("reading spatial_ref_sys: %w", err)
	}

	return domain.CRS{SRID: srid, Authority: authority, Proj4: proj4}, nil
}
