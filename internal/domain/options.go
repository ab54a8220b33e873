package domain

// IfExists selects the behavior when a load's target table already
// exists.
type IfExists string

// IfExists modes.
const (
	IfExistsFail    IfExists = "fail"
	IfExistsReplace IfExists = "replace"
	IfExistsAppend  IfExists = "append"
)

// LoadOptions configures a frame load.
type LoadOptions struct {
	// SkipValidation disables the repair pass over rows failing the
	// validity predicate.
	SkipValidation bool

	// IfExists selects fail, replace or append semantics. Defaults to
	// fail.
	IfExists IfExists

	// Authority names the registry authority used when the SRID must be
	// fetched. Defaults to esri since most epsg systems are already
	// registered.
	Authority string
}

// ImportOptions configures a shapefile import. Zero values select the
// engine defaults.
type ImportOptions struct {
	Charset      string // DBF character encoding, defaults to UTF-8
	SRID         int    // EPSG SRID; 0 means unknown (-1)
	GeomColumn   string // Geometry column name, defaults to geometry
	PKColumn     string // DBF column for the primary key role, defaults to PK
	GeomType     string // AUTO or an explicit POINT|LINESTRING|... type
	CoerceTo2D   bool   // Cast geometries to 2D
	Compressed   bool   // Store compressed geometries
	SpatialIndex bool   // Build a spatial index immediately
	TextDates    bool   // Interpret DBF dates as plain text
	Authority    string // Registry authority for SRID resolution
}

// ApplyDefaults fills unset fields with the engine defaults.
func (o *ImportOptions) ApplyDefaults() {
	if o.Charset == "" {
		o.Charset = "UTF-8"
	}
	if o.SRID == 0 {
		o.SRID = SRIDUnknown
	}
	if o.GeomColumn == "" {
		o.GeomColumn = GeometryColumnName
	}
	if o.PKColumn == "" {
		o.PKColumn = "PK"
	}
	if o.GeomType == "" {
		o.GeomType = "AUTO"
	}
}

// ExportOptions configures a shapefile export.
type ExportOptions struct {
	GeomColumn string // Geometry column name, defaults to geometry
	Charset    string // DBF character encoding, defaults to UTF-8
	GeomType   string // AUTO resolves from the geometry catalog
}

// ApplyDefaults fills unset fields with the engine defaults.
func (o *ExportOptions) ApplyDefaults() {
	if o.GeomColumn == "" {
		o.GeomColumn = GeometryColumnName
	}
	if o.Charset == "" {
		o.Charset = "UTF-8"
	}
	if o.GeomType == "" {
		o.GeomType = "AUTO"
	}
}

// AlterOptions selects the geometry column properties to change. Unset
// fields keep the table's current registration/content.
type AlterOptions struct {
	SRID     *int      // Reproject to this spatial reference
	GeomType string    // Declared geometry type for the rebuilt column
	Dims     Dimension // Cast coordinates to this dimensionality
	NotNull  *bool     // Geometry NOT NULL constraint
}

// Empty reports whether no change was requested.
func (o AlterOptions) Empty() bool {
	return o.SRID == nil && o.GeomType == "" && o.Dims == "" && o.NotNull == nil
}
