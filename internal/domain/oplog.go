package domain

// Operation names recorded in an OperationLog during a multi-step load or
// transform.
const (
	OpResolveSpatialRef = "resolve_spatial_ref"
	OpParseWKT          = "parse_wkt"
	OpCollectMulti      = "collect_multi"
	OpGeomFromText      = "geom_from_text"
	OpRecoverGeometry   = "recover_geometry_column"
	OpMakeValid         = "make_valid"
	OpLoad              = "load"
	OpAlterGeometry     = "alter_geometry"
	OpImportShapefile   = "import_shapefile"
	OpExportShapefile   = "export_shapefile"
)

// LogEntry is one (operation, outcome-count) pair of an audit trail.
type LogEntry struct {
	Operation string // Operation name
	Result    int64  // Outcome count: rows affected, 1/0 success flag
}

// OperationLog is the ordered audit trail accumulated during a multi-step
// operation and returned to the caller. Append-only while the operation
// runs; it records completed steps even when a later step fails.
type OperationLog []LogEntry

// Append records an outcome for an operation.
func (l *OperationLog) Append(operation string, result int64) {
	*l = append(*l, LogEntry{Operation: operation, Result: result})
}

// Last returns the final entry, or a zero entry for an empty log.
func (l OperationLog) Last() LogEntry {
	if len(l) == 0 {
		return LogEntry{}
	}
	return l[len(l)-1]
}

// Result returns the outcome count of the first entry matching the
// operation name, and whether one was found.
func (l OperationLog) Result(operation string) (int64, bool) {
	for _, e := range l {
		if e.Operation == operation {
			return e.Result, true
		}
	}
	return 0, false
}
