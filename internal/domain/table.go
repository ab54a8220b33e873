package domain

import "strconv"

// SpatialTable describes a database table with one registered geometry
// column, as recorded in the geometry-column catalog. A table absent from
// the catalog is not spatially queryable.
type SpatialTable struct {
	Name           string       // Table name
	GeometryColumn string       // Designated geometry column name
	GeometryType   GeometryType // Declared geometry type
	TypeCode       int          // Raw catalog type code
	Dimension      Dimension    // Coordinate dimensionality
	SRID           int          // Spatial reference identifier
	NotNull        bool         // Geometry NOT NULL constraint
	RefSysName     string       // Reference system name, when joined
	Authority      string       // Reference system authority, when joined
	Proj4          string       // proj4-style definition, when joined
}

// SpatialRef is a row of the reference-system registry.
type SpatialRef struct {
	SRID      int    // Identifier within its authority
	Authority string // Authority name (epsg, esri, sr-org)
	AuthSRID  int    // Identifier assigned by the authority
	Name      string // Human-readable name
	Proj4     string // proj4-style definition string
}

// CRS is the coordinate reference system attached to a geometry-bearing
// query result.
type CRS struct {
	SRID      int    // Spatial reference identifier
	Authority string // Authority name
	Proj4     string // proj4-style definition string
}

// String renders the CRS in authority:code form for EPSG systems and as
// the raw proj4 definition otherwise.
func (c CRS) String() string {
	if c.Authority == "epsg" {
		return "epsg:" + strconv.Itoa(c.SRID)
	}
	return c.Proj4
}
