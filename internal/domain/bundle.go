package domain

import "time"

// BundleStatus represents the lifecycle state of a shapefile bundle.
type BundleStatus string

// Bundle lifecycle states.
const (
	StatusPending   BundleStatus = "pending"
	StatusIngesting BundleStatus = "ingesting"
	StatusReady     BundleStatus = "ready"
	StatusFailed    BundleStatus = "failed"
)

// Bundle describes a shapefile bundle tracked by the ingest service. A
// bundle is the .shp file plus its sidecars, imported as one table.
type Bundle struct {
	Name       string    // Bundle name, the extension-less base of the .shp key
	Table      string    // Target table name
	Members    []string  // Object keys of the bundle members
	LocalPath  string    // Extension-less local path of the downloaded bundle
	Features   int64     // Features imported
	ImportedAt time.Time // Time of the successful import
}

// IsReady reports whether the bundle was imported successfully.
func (b Bundle) IsReady() bool {
	return !b.ImportedAt.IsZero()
}
