package spatialite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jobrunner/strata/internal/domain"
)

// AlterGeometry rebuilds a spatial table's geometry column under new
// projection, type, dimensionality or nullability settings. The table is
// cloned without its geometry column, the column is re-added with the
// resolved settings, data migrates through a rowid-correlated subquery
// applying the composed transform (dimensionality cast applied before
// reprojection), and the clone replaces the original.
//
// The script runs as sequential statements without automatic rollback:
// a mid-script failure leaves completed steps applied and surfaces the
// rendered script through domain.ScriptError for manual recovery.
func (d *DB) AlterGeometry(ctx context.Context, table string, opts domain.AlterOptions) (domain.OperationLog, error) {
	var log domain.OperationLog

	if opts.Empty() {
		return log, domain.ErrNoChange
	}
	spatial, err := d.IsSpatial(ctx, table)
	if err != nil {
		return log, err
	}
	if !spatial {
		return log, fmt.Errorf("%w: %s", domain.ErrNotSpatial, table)
	}
	if opts.Dims != "" && !domain.ValidDimension(opts.Dims) {
		return log, fmt.Errorf("%w: %q", domain.ErrInvalidDimension, opts.Dims)
	}

	srid, transform, err := d.resolveAlterSRID(ctx, table, opts.SRID)
	if err != nil {
		return log, err
	}

	geomType := opts.GeomType
	if geomType == "" {
		geomType, err = d.currentGeometryType(ctx, table)
		if err != nil {
			return log, err
		}
	}

	dims := opts.Dims
	var cast string
	if dims == "" {
		dims, err = d.currentDimension(ctx, table)
		if err != nil {
			return log, err
		}
	} else {
		cast = fmt.Sprintf("CastTo%s(geometry)", dims)
	}

	notNull := 1
	if opts.NotNull != nil && !*opts.NotNull {
		notNull = 0
	}

	expr := composeTransform(transform, cast)
	statements := alterStatements(table, srid, geomType, dims, notNull, expr)
	script := strings.Join(statements, "\n")

	for _, stmt := range statements {
		if _, err := d.conn.ExecContext(ctx, stmt); err != nil {
			return log, &domain.ScriptError{Table: table, Script: script, Err: err}
		}
	}

	log.Append(domain.OpAlterGeometry, 1)
	d.logger.Info("altered geometry column",
		"table", table, "srid", srid, "type", geomType, "dims", dims)
	return log, nil
}

// resolveAlterSRID returns the effective SRID and the reprojection
// expression, empty when the SRID is unchanged.
func (d *DB) resolveAlterSRID(ctx context.Context, table string, requested *int) (int, string, error) {
	if requested == nil {
		data, err := d.GetGeometryData(ctx, table)
		if err != nil {
			return 0, "", err
		}
		return data.SRID, "", nil
	}
	return *requested, fmt.Sprintf("ST_Transform(geometry, %d)", *requested), nil
}

// currentGeometryType reads the dominant geometry type from the table
// content, stripped of any dimensionality suffix.
func (d *DB) currentGeometryType(ctx context.Context, table string) (string, error) {
	var t string
	err := d.conn.QueryRowContext(ctx,
		fmt.Sprintf("SELECT DISTINCT GeometryType(geometry) FROM %s", quoteIdent(table)), //#nosec G201 -- identifier quoted
	).Scan(&t)
	if err != nil {
		return "", &domain.QueryError{Table: table, Err: err}
	}
	if idx := strings.IndexByte(t, ' '); idx > 0 {
		t = t[:idx]
	}
	return t, nil
}

// currentDimension reads the coordinate dimensionality from the table
// content.
func (d *DB) currentDimension(ctx context.Context, table string) (domain.Dimension, error) {
	var dims string
	err := d.conn.QueryRowContext(ctx,
		fmt.Sprintf("SELECT DISTINCT CoordDimension(geometry) FROM %s", quoteIdent(table)), //#nosec G201 -- identifier quoted
	).Scan(&dims)
	if err != nil {
		return "", &domain.QueryError{Table: table, Err: err}
	}
	return domain.Dimension(dims), nil
}

// composeTransform combines the dimensionality cast and reprojection
// expressions. The cast applies first, substituted as the argument of the
// reprojection; either may stand alone; with neither, geometry passes
// through unchanged.
func composeTransform(transform, cast string) string {
	switch {
	case transform != "" && cast != "":
		return strings.Replace(transform, "geometry", cast, 1)
	case transform != "":
		return transform
	case cast != "":
		return cast
	}
	return "geometry"
}

// alterStatements renders the sequential alteration script. SRID, dims
// and not-null are validated integers/enumerations and identifiers are
// embedded through SpatiaLite's own admin functions, so the rendered text
// is not an injection surface.
func alterStatements(table string, srid int, geomType string, dims domain.Dimension, notNull int, expr string) []string {
	backup := table + "_bk"
	return []string{
		fmt.Sprintf("SELECT DropGeoTable('%s');", backup),
		fmt.Sprintf("SELECT CloneTable('main', '%s', '%s', 1, '::ignore::geometry');", table, backup),
		fmt.Sprintf("SELECT AddGeometryColumn('%s', 'geometry', %d, '%s', '%s', %d);",
			backup, srid, geomType, dims, notNull),
		fmt.Sprintf("UPDATE %s SET geometry = (SELECT %s FROM %s WHERE %s.rowid = %s.rowid);",
			quoteIdent(backup), expr, quoteIdent(table), quoteIdent(backup), quoteIdent(table)),
		fmt.Sprintf("SELECT DropGeoTable('%s');", table),
		fmt.Sprintf("SELECT CloneTable('main', '%s', '%s', 1);", backup, table),
		fmt.Sprintf("SELECT DropGeoTable('%s');", backup),
		"VACUUM;",
	}
}
