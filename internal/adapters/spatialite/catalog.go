package spatialite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jobrunner/strata/internal/domain"
)

// catalogQuery joins the geometry-column catalog with the reference
// registry.
const catalogQuery = `
	SELECT g.f_table_name, g.f_geometry_column, g.geometry_type,
	       g.coord_dimension, g.srid, g.spatial_index_enabled,
	       COALESCE(s.ref_sys_name, ''), COALESCE(s.auth_name, ''),
	       COALESCE(s.proj4text, '')
	FROM geometry_columns g
	LEFT JOIN spatial_ref_sys s ON g.srid = s.srid
`

// Geometries returns every registered spatial table, joined with its
// reference system.
func (d *DB) Geometries(ctx context.Context) ([]domain.SpatialTable, error) {
	rows, err := d.conn.QueryContext(ctx, catalogQuery)
	if err != nil {
		return nil, fmt.Errorf("reading geometry catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []domain.SpatialTable
	for rows.Next() {
		t, err := scanCatalogRow(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// GetGeometryData returns the catalog record for a single table. It fails
// with domain.ErrNotSpatial when the table is not registered.
func (d *DB) GetGeometryData(ctx context.Context, table string) (domain.SpatialTable, error) {
	rows, err := d.conn.QueryContext(ctx, catalogQuery+" WHERE g.f_table_name = ?", table)
	if err != nil {
		return domain.SpatialTable{}, fmt.Errorf("reading geometry catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.SpatialTable{}, err
		}
		return domain.SpatialTable{}, fmt.Errorf("%w: %s", domain.ErrNotSpatial, table)
	}
	return scanCatalogRow(rows)
}

// IsSpatial reports whether the table is registered in the geometry
// catalog.
func (d *DB) IsSpatial(ctx context.Context, table string) (bool, error) {
	var count int
	err := d.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM geometry_columns WHERE f_table_name = ?", table,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking geometry_columns: %w", err)
	}
	return count > 0, nil
}

func scanCatalogRow(rows *sql.Rows) (domain.SpatialTable, error) {
	var (
		t            domain.SpatialTable
		typeCode     int
		dims         any
		indexEnabled int
	)
	err := rows.Scan(&t.Name, &t.GeometryColumn, &typeCode, &dims,
		&t.SRID, &indexEnabled, &t.RefSysName, &t.Authority, &t.Proj4)
	if err != nil {
		return domain.SpatialTable{}, fmt.Errorf("scanning catalog row: %w", err)
	}

	t.TypeCode = typeCode
	if gt, err := domain.GeometryTypeFromCode(typeCode); err == nil {
		t.GeometryType = gt
	}
	t.Dimension = coordDimension(dims)
	return t, nil
}

// coordDimension normalizes the coord_dimension catalog value, which
// SpatiaLite stores either as a numeric ordinate count or as a
// dimensionality string.
func coordDimension(v any) domain.Dimension {
	switch d := v.(type) {
	case int64:
		switch d {
		case 2:
			return domain.DimXY
		case 3:
			return domain.DimXYZ
		case 4:
			return domain.DimXYZM
		}
	case string:
		if domain.ValidDimension(domain.Dimension(d)) {
			return domain.Dimension(d)
		}
	}
	return domain.DimXY
}
