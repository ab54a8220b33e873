package spatialite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jobrunner/strata/internal/domain"
)

// stripShapefileExt normalizes a shapefile path to its extension-less
// base, as the SpatiaLite functions expect.
func stripShapefileExt(path string) string {
	ext := filepath.Ext(path)
	switch strings.ToLower(ext) {
	case ".shp", ".shx", ".dbf", ".prj":
		path = strings.TrimSuffix(path, ext)
	}
	return filepath.ToSlash(path)
}

// ImportShapefile imports an external shapefile into a new table via the
// extension's bulk ImportSHP function. It requires relaxed security mode
// and the source .shp to exist, and verifies afterwards that the target
// table was actually created; the native routine's own error signaling is
// not trusted.
func (d *DB) ImportShapefile(ctx context.Context, path, table string, opts domain.ImportOptions) (domain.OperationLog, error) {
	var log domain.OperationLog
	opts.ApplyDefaults()

	if err := d.checkRelaxedSecurity(); err != nil {
		return log, err
	}

	base := stripShapefileExt(path)
	if _, err := os.Stat(base + ".shp"); err != nil {
		return log, fmt.Errorf("%w: %s.shp", domain.ErrFileNotFound, base)
	}

	if opts.SRID != domain.SRIDUnknown {
		inserted, err := d.resolver.Resolve(ctx, opts.SRID, opts.Authority)
		if err != nil {
			return log, err
		}
		if inserted {
			log.Append(domain.OpResolveSpatialRef, 1)
		}
	}

	// ImportSHP takes its flags positionally in a fixed order.
	var imported int64
	err := d.conn.QueryRowContext(ctx,
		"SELECT ImportSHP(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		base, table, opts.Charset, opts.SRID,
		opts.GeomColumn, opts.PKColumn, opts.GeomType,
		boolFlag(opts.CoerceTo2D), boolFlag(opts.Compressed),
		boolFlag(opts.SpatialIndex), boolFlag(opts.TextDates),
	).Scan(&imported)
	if err != nil {
		return log, fmt.Errorf("%w: %v", domain.ErrImportFailed, err)
	}

	exists, err := d.HasTable(ctx, table)
	if err != nil {
		return log, err
	}
	if !exists {
		return log, fmt.Errorf("%w: table %s absent after ImportSHP", domain.ErrImportFailed, table)
	}

	log.Append(domain.OpImportShapefile, imported)
	d.logger.Info("imported shapefile",
		"path", base, "table", table, "srid", opts.SRID, "features", imported)
	return log, nil
}

// ExportShapefile exports a table as an external shapefile via the
// extension's ExportSHP function. A geometry type of AUTO is resolved
// from the table's catalog registration; unknown catalog type codes fail
// fast. The expected .shp must exist afterwards.
func (d *DB) ExportShapefile(ctx context.Context, table, path string, opts domain.ExportOptions) (domain.OperationLog, error) {
	var log domain.OperationLog
	opts.ApplyDefaults()

	if err := d.checkRelaxedSecurity(); err != nil {
		return log, err
	}

	exists, err := d.HasTable(ctx, table)
	if err != nil {
		return log, err
	}
	if !exists {
		return log, fmt.Errorf("%w: %s", domain.ErrTableNotFound, table)
	}

	base := stripShapefileExt(path)

	if opts.GeomType == "AUTO" {
		data, err := d.GetGeometryData(ctx, table)
		if err != nil {
			return log, err
		}
		gt, err := domain.GeometryTypeFromCode(data.TypeCode)
		if err != nil {
			return log, fmt.Errorf("resolving export geometry type for %s: %w", table, err)
		}
		opts.GeomType = string(gt)
	}

	var exported int64
	err = d.conn.QueryRowContext(ctx,
		"SELECT ExportSHP(?, ?, ?, ?)",
		table, opts.GeomColumn, base, opts.Charset,
	).Scan(&exported)
	if err != nil {
		return log, fmt.Errorf("%w: %v", domain.ErrExportFailed, err)
	}

	if _, err := os.Stat(base + ".shp"); err != nil {
		return log, fmt.Errorf("%w: %s.shp absent after ExportSHP", domain.ErrExportFailed, base)
	}

	log.Append(domain.OpExportShapefile, exported)
	d.logger.Info("exported shapefile", "table", table, "path", base)
	return log, nil
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
