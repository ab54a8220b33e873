package domain

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Common spatial reference identifiers.
const (
	SRIDUnknown = -1
	SRIDWGS84   = 4326
)

// GeometryType represents a declared geometry type of a spatial table.
type GeometryType string

// Geometry type constants.
const (
	GeomPoint              GeometryType = "POINT"
	GeomLineString         GeometryType = "LINESTRING"
	GeomPolygon            GeometryType = "POLYGON"
	GeomMultiPoint         GeometryType = "MULTIPOINT"
	GeomMultiLineString    GeometryType = "MULTILINESTRING"
	GeomMultiPolygon       GeometryType = "MULTIPOLYGON"
	GeomGeometryCollection GeometryType = "GEOMETRYCOLLECTION"
)

// geometryTypeCodes maps the numeric type codes recorded in the
// geometry-column catalog to their declared type names. The full
// enumeration 0-7 is covered; unknown codes must fail fast.
var geometryTypeCodes = map[int]GeometryType{
	0: "GEOMETRY",
	1: GeomPoint,
	2: GeomLineString,
	3: GeomPolygon,
	4: GeomMultiPoint,
	5: GeomMultiLineString,
	6: GeomMultiPolygon,
	7: GeomGeometryCollection,
}

// GeometryTypeFromCode resolves a catalog geometry type code to its
// declared type name.
func GeometryTypeFromCode(code int) (GeometryType, error) {
	t, ok := geometryTypeCodes[code]
	if !ok {
		return "", fmt.Errorf("%w: unmapped code %d", ErrUnknownTypeCode, code)
	}
	return t, nil
}

// GeometryTypeOf returns the declared type name for an orb geometry.
func GeometryTypeOf(g orb.Geometry) GeometryType {
	switch g.(type) {
	case orb.Point:
		return GeomPoint
	case orb.LineString:
		return GeomLineString
	case orb.Ring, orb.Polygon, orb.Bound:
		return GeomPolygon
	case orb.MultiPoint:
		return GeomMultiPoint
	case orb.MultiLineString:
		return GeomMultiLineString
	case orb.MultiPolygon:
		return GeomMultiPolygon
	default:
		return GeomGeometryCollection
	}
}

// MultiOf coerces a geometry to its multi-type equivalent. Geometries
// that are already multi (or collections) are returned unchanged.
func MultiOf(g orb.Geometry) orb.Geometry {
	switch v := g.(type) {
	case orb.Point:
		return orb.MultiPoint{v}
	case orb.LineString:
		return orb.MultiLineString{v}
	case orb.Ring:
		return orb.MultiPolygon{orb.Polygon{v}}
	case orb.Polygon:
		return orb.MultiPolygon{v}
	case orb.Bound:
		return orb.MultiPolygon{v.ToPolygon()}
	default:
		return g
	}
}

// Dimension represents the coordinate dimensionality of a geometry column.
type Dimension string

// Coordinate dimension constants.
const (
	DimXY   Dimension = "XY"
	DimXYZ  Dimension = "XYZ"
	DimXYM  Dimension = "XYM"
	DimXYZM Dimension = "XYZM"
)

// ValidDimension reports whether d is one of the recognized coordinate
// dimensionalities.
func ValidDimension(d Dimension) bool {
	switch d {
	case DimXY, DimXYZ, DimXYM, DimXYZM:
		return true
	}
	return false
}
