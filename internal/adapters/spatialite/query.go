package spatialite

import (
	"context"
	"fmt"

	"github.com/jobrunner/strata/internal/codec"
	"github.com/jobrunner/strata/internal/domain"
)

// Query executes raw SQL and post-processes the result. When a geometry
// column is present every non-null entry is decoded from the native blob
// encoding; if any entry is null, conversion stops there and the
// partially-decoded frame is returned with a warning instead of failing
// the whole query. Otherwise entries become geometry objects and the
// frame is tagged with the coordinate reference system of the first row.
func (d *DB) Query(ctx context.Context, query string, args ...any) (*domain.Frame, error) {
	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &domain.QueryError{Err: err}
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	frame := domain.NewFrame(columns...)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		frame.Append(values...)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if frame.Empty() {
		return frame, nil
	}

	if frame.HasColumn(domain.GeometryColumnName) {
		if err := d.rehydrateGeometry(ctx, frame); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

// rehydrateGeometry decodes the geometry column in place.
func (d *DB) rehydrateGeometry(ctx context.Context, frame *domain.Frame) error {
	geomIdx := frame.ColumnIndex(domain.GeometryColumnName)

	hasNull := false
	for i, row := range frame.Rows {
		switch v := row[geomIdx].(type) {
		case nil:
			hasNull = true
		case []byte:
			blob, err := codec.Decode(v)
			if err != nil {
				return fmt.Errorf("decoding geometry in row %d: %w", i, err)
			}
			row[geomIdx] = blob
		default:
			return fmt.Errorf("%w: geometry value in row %d is %T", domain.ErrInvalidInput, i, v)
		}
	}

	// NULL geometries degrade gracefully: leave decoded blob elements in
	// place and let the caller decide.
	if hasNull {
		d.logger.Warn("null geometries found, returning partially decoded frame")
		return nil
	}

	first := frame.Rows[0][geomIdx].(*codec.Blob)
	crs, err := d.resolver.CRS(ctx, first.SRIDInt())
	if err != nil {
		return err
	}

	for i, row := range frame.Rows {
		g, err := row[geomIdx].(*codec.Blob).Geometry()
		if err != nil {
			return fmt.Errorf("decoding geometry in row %d: %w", i, err)
		}
		row[geomIdx] = g
	}
	frame.CRS = &crs
	return nil
}

// CreateTableAs materializes a SELECT statement as a new table,
// preserving column affinity by round-tripping through a frame. With a
// positive SRID and a geometry-bearing result the table is loaded as a
// spatial table, otherwise as a conventional one.
func (d *DB) CreateTableAs(ctx context.Context, table, query string, srid int, opts domain.LoadOptions) (domain.OperationLog, error) {
	frame, err := d.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	spatial := srid > 0 &&
		(frame.HasColumn(domain.GeometryColumnName) || frame.HasColumn(domain.WKTColumnName))
	if spatial {
		return d.Load(ctx, frame, table, srid, opts)
	}

	var log domain.OperationLog
	if opts.IfExists == "" {
		opts.IfExists = domain.IfExistsFail
	}
	if err := d.insertFrame(ctx, frame, table, -1, opts.IfExists); err != nil {
		return log, err
	}
	log.Append(domain.OpLoad, int64(frame.Len()))
	return log, nil
}
