package spatialite

import (
	"context"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/jobrunner/strata/internal/domain"
)

// Load persists a frame of geometry and attribute records as a spatial
// table and returns the ordered audit trail of the steps taken.
//
// Geometry is taken from the conventional geometry column, or parsed from
// a wkt column when no geometry column is present. Mixed geometry types
// are coerced to their multi-type equivalents; the declared table type is
// the longest of the distinct type names.
func (d *DB) Load(ctx context.Context, frame *domain.Frame, table string, srid int, opts domain.LoadOptions) (domain.OperationLog, error) {
	var log domain.OperationLog

	if opts.IfExists == "" {
		opts.IfExists = domain.IfExistsFail
	}
	switch opts.IfExists {
	case domain.IfExistsFail, domain.IfExistsReplace, domain.IfExistsAppend:
	default:
		return log, fmt.Errorf("%w: %q", domain.ErrInvalidIfExists, opts.IfExists)
	}

	// Register the spatial reference first if it is unknown.
	inserted, err := d.resolver.Resolve(ctx, srid, opts.Authority)
	if err != nil {
		return log, err
	}
	if inserted {
		log.Append(domain.OpResolveSpatialRef, 1)
	}

	// Auto-convert Well-Known Text to geometry objects.
	if !frame.HasColumn(domain.GeometryColumnName) && frame.HasColumn(domain.WKTColumnName) {
		if err := parseWKTColumn(frame); err != nil {
			return log, err
		}
		log.Append(domain.OpParseWKT, 1)
	}

	geomIdx := frame.ColumnIndex(domain.GeometryColumnName)
	if geomIdx < 0 {
		return log, fmt.Errorf("%w: frame carries no geometry column", domain.ErrInvalidInput)
	}

	// A spatial table accepts a single geometry type; coerce mixed-type
	// frames to multi form.
	geomType, mixed, err := resolveGeometryType(frame, geomIdx)
	if err != nil {
		return log, err
	}
	if mixed {
		for _, row := range frame.Rows {
			row[geomIdx] = domain.MultiOf(row[geomIdx].(orb.Geometry))
		}
		log.Append(domain.OpCollectMulti, 1)
	}

	if err := d.insertFrame(ctx, frame, table, geomIdx, opts.IfExists); err != nil {
		return log, err
	}

	// Convert the text column in place to the native geometry encoding.
	res, err := d.conn.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET %s = GeomFromText(%s, %d)", //#nosec G201 -- identifiers quoted, srid is an int
			quoteIdent(table), quoteIdent(domain.GeometryColumnName),
			quoteIdent(domain.GeometryColumnName), srid))
	if err != nil {
		return log, &domain.QueryError{Table: table, Err: err}
	}
	affected, _ := res.RowsAffected()
	log.Append(domain.OpGeomFromText, affected)

	// Recover the column as a registered geometry column, then verify the
	// registration actually landed in the catalog.
	_, err = d.conn.ExecContext(ctx, "SELECT RecoverGeometryColumn(?, ?, ?, ?)",
		table, domain.GeometryColumnName, srid, string(geomType))
	if err != nil {
		return log, &domain.QueryError{Table: table, Err: err}
	}
	spatial, err := d.IsSpatial(ctx, table)
	if err != nil {
		return log, err
	}
	if spatial {
		log.Append(domain.OpRecoverGeometry, 1)
	} else {
		log.Append(domain.OpRecoverGeometry, 0)
	}

	// Optionally repair invalid geometries in place.
	if !opts.SkipValidation {
		res, err := d.conn.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET %s = MakeValid(%s) WHERE NOT IsValid(%s)", //#nosec G201 -- identifiers quoted
				quoteIdent(table), quoteIdent(domain.GeometryColumnName),
				quoteIdent(domain.GeometryColumnName), quoteIdent(domain.GeometryColumnName)))
		if err != nil {
			return log, &domain.QueryError{Table: table, Err: err}
		}
		repaired, _ := res.RowsAffected()
		log.Append(domain.OpMakeValid, repaired)
	}

	log.Append(domain.OpLoad, int64(frame.Len()))
	d.logger.Info("loaded spatial table",
		"table", table, "srid", srid, "rows", frame.Len(), "type", geomType)
	return log, nil
}

// parseWKTColumn replaces a wkt column with parsed geometry objects.
func parseWKTColumn(frame *domain.Frame) error {
	wktIdx := frame.ColumnIndex(domain.WKTColumnName)
	geoms := make([]any, frame.Len())
	for i, row := range frame.Rows {
		text, ok := row[wktIdx].(string)
		if !ok {
			return fmt.Errorf("%w: wkt value in row %d is %T", domain.ErrInvalidInput, i, row[wktIdx])
		}
		g, err := wkt.Unmarshal(text)
		if err != nil {
			return fmt.Errorf("%w: row %d: %v", domain.ErrInvalidInput, i, err)
		}
		geoms[i] = g
	}
	frame.DropColumn(domain.WKTColumnName)
	frame.AddColumn(domain.GeometryColumnName, geoms)
	return nil
}

// resolveGeometryType inspects the distinct geometry type names across
// the frame. With more than one distinct type the declared type is the
// longest name (multi names are supersets of their single forms) and the
// frame needs multi-coercion.
func resolveGeometryType(frame *domain.Frame, geomIdx int) (domain.GeometryType, bool, error) {
	var distinct []domain.GeometryType
	seen := make(map[domain.GeometryType]bool)
	for i, row := range frame.Rows {
		g, ok := row[geomIdx].(orb.Geometry)
		if !ok {
			return "", false, fmt.Errorf("%w: geometry value in row %d is %T", domain.ErrInvalidInput, i, row[geomIdx])
		}
		t := domain.GeometryTypeOf(g)
		if !seen[t] {
			seen[t] = true
			distinct = append(distinct, t)
		}
	}
	if len(distinct) == 0 {
		return "", false, fmt.Errorf("%w: frame is empty", domain.ErrInvalidInput)
	}

	// Longest name wins; ties keep the first encountered.
	declared := distinct[0]
	for _, t := range distinct[1:] {
		if len(t) > len(declared) {
			declared = t
		}
	}
	if len(distinct) > 1 {
		declared = mustMultiType(declared)
	}
	return declared, len(distinct) > 1, nil
}

// mustMultiType maps a declared type to its multi form so the declaration
// matches the coerced rows.
func mustMultiType(t domain.GeometryType) domain.GeometryType {
	switch t {
	case domain.GeomPoint:
		return domain.GeomMultiPoint
	case domain.GeomLineString:
		return domain.GeomMultiLineString
	case domain.GeomPolygon:
		return domain.GeomMultiPolygon
	}
	return t
}

// insertFrame bulk-inserts the frame as a conventional table, geometry
// serialized as Well-Known Text.
func (d *DB) insertFrame(ctx context.Context, frame *domain.Frame, table string, geomIdx int, mode domain.IfExists) error {
	exists, err := d.HasTable(ctx, table)
	if err != nil {
		return err
	}

	switch {
	case exists && mode == domain.IfExistsFail:
		return fmt.Errorf("%w: %s", domain.ErrTableExists, table)
	case exists && mode == domain.IfExistsReplace:
		if _, err := d.conn.ExecContext(ctx,
			fmt.Sprintf("DROP TABLE %s", quoteIdent(table))); err != nil { //#nosec G201 -- identifier quoted
			return &domain.QueryError{Table: table, Err: err}
		}
		exists = false
	}

	if !exists {
		if _, err := d.conn.ExecContext(ctx, createTableSQL(frame, table, geomIdx)); err != nil {
			return &domain.QueryError{Table: table, Err: err}
		}
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(frame.Columns)), ",")
	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(table), placeholders)) //#nosec G201 -- identifier quoted
	if err != nil {
		_ = tx.Rollback()
		return &domain.QueryError{Table: table, Err: err}
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range frame.Rows {
		args := make([]any, len(row))
		copy(args, row)
		if geomIdx >= 0 {
			args[geomIdx] = wkt.MarshalString(row[geomIdx].(orb.Geometry))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			_ = tx.Rollback()
			return &domain.QueryError{Table: table, Err: err}
		}
	}
	return tx.Commit()
}

// createTableSQL builds the CREATE TABLE statement, inferring column
// affinity from the first non-nil value of each column. The geometry
// column is declared TEXT; it holds Well-Known Text until converted in
// place.
func createTableSQL(frame *domain.Frame, table string, geomIdx int) string {
	defs := make([]string, len(frame.Columns))
	for i, col := range frame.Columns {
		if i == geomIdx {
			defs[i] = quoteIdent(col) + " TEXT"
			continue
		}
		defs[i] = quoteIdent(col) + " " + columnAffinity(frame, i)
	}
	//#nosec G201 -- identifiers quoted
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
}

func columnAffinity(frame *domain.Frame, idx int) string {
	for _, row := range frame.Rows {
		switch row[idx].(type) {
		case nil:
			continue
		case int, int32, int64, bool:
			return "INTEGER"
		case float32, float64:
			return "REAL"
		case []byte:
			return "BLOB"
		default:
			return "TEXT"
		}
	}
	return "TEXT"
}

// quoteIdent quotes an SQL identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
