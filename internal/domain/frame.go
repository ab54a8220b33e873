package domain

// GeometryColumnName is the conventional name of the geometry column in
// frames and spatial tables.
const GeometryColumnName = "geometry"

// WKTColumnName is the conventional column under which frames may carry
// geometry as Well-Known Text instead of geometry objects.
const WKTColumnName = "wkt"

// Frame is a minimal ordered tabular result set. It stands in for the
// dataframe abstraction on both sides of the load/query pipeline: rows
// loaded into a spatial table and rows returned from a query. Cell values
// in a geometry column hold orb.Geometry (or decoded blob elements during
// partial post-processing), everything else is whatever the driver
// scanned.
type Frame struct {
	Columns []string // Column names, in order
	Rows    [][]any  // Row-major cell values
	CRS     *CRS     // Set when the frame carries rehydrated geometry
}

// NewFrame creates an empty frame with the given columns.
func NewFrame(columns ...string) *Frame {
	return &Frame{Columns: columns}
}

// Append adds a row. The caller is responsible for matching the column
// count.
func (f *Frame) Append(row ...any) {
	f.Rows = append(f.Rows, row)
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// Empty reports whether the frame has no rows.
func (f *Frame) Empty() bool {
	return len(f.Rows) == 0
}

// ColumnIndex returns the position of the named column, or -1.
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column is present.
func (f *Frame) HasColumn(name string) bool {
	return f.ColumnIndex(name) >= 0
}

// Column returns all values of the named column, or nil if absent.
func (f *Frame) Column(name string) []any {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	values := make([]any, len(f.Rows))
	for i, row := range f.Rows {
		values[i] = row[idx]
	}
	return values
}

// DropColumn removes the named column and its values. It is a no-op when
// the column is absent.
func (f *Frame) DropColumn(name string) {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return
	}
	f.Columns = append(f.Columns[:idx], f.Columns[idx+1:]...)
	for i, row := range f.Rows {
		f.Rows[i] = append(row[:idx], row[idx+1:]...)
	}
}

// AddColumn appends a column with the given values. Missing values are
// padded with nil; extra values are ignored.
func (f *Frame) AddColumn(name string, values []any) {
	f.Columns = append(f.Columns, name)
	for i := range f.Rows {
		var v any
		if i < len(values) {
			v = values[i]
		}
		f.Rows[i] = append(f.Rows[i], v)
	}
}
