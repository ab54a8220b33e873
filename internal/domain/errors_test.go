package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSentinelWrapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		base error
	}{
		{"malformed geometry", ErrMalformedGeometry, ErrInvalidInput},
		{"unsupported dims", ErrUnsupportedDims, ErrUnsupported},
		{"invalid authority", ErrInvalidAuthority, ErrInvalidInput},
		{"reference lookup", ErrReferenceLookup, ErrUnavailable},
		{"relaxed security", ErrRelaxedSecurity, ErrUnsupported},
		{"file not found", ErrFileNotFound, ErrNotFound},
		{"table not found", ErrTableNotFound, ErrNotFound},
		{"table exists", ErrTableExists, ErrInvalidInput},
		{"import failed", ErrImportFailed, ErrInternal},
		{"not spatial", ErrNotSpatial, ErrInvalidInput},
		{"no change", ErrNoChange, ErrInvalidInput},
		{"srid not found", ErrSRIDNotFound, ErrNotFound},
		{"unknown type code", ErrUnknownTypeCode, ErrUnsupported},
		{"bundle not found", ErrBundleNotFound, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.base) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.base)
			}
		})
	}
}

func TestLookupError(t *testing.T) {
	err := &LookupError{SRID: 104726, Authority: "esri", Err: fmt.Errorf("timeout")}

	if !errors.Is(err, ErrReferenceLookup) {
		t.Error("LookupError should unwrap to ErrReferenceLookup")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("LookupError should unwrap to ErrUnavailable")
	}
	if !strings.Contains(err.Error(), "esri:104726") {
		t.Errorf("Error() = %q, should name the reference", err.Error())
	}
}

func TestScriptError(t *testing.T) {
	cause := fmt.Errorf("no such column")
	err := &ScriptError{Table: "parcels", Script: "BEGIN;\nDROP TABLE parcels;\nCOMMIT;", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("ScriptError should unwrap to the underlying error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "parcels") {
		t.Errorf("Error() = %q, should name the table", msg)
	}
	// The rendered script is kept for manual recovery
	if !strings.Contains(msg, "DROP TABLE") {
		t.Errorf("Error() = %q, should include the script", msg)
	}
}

func TestStorageError(t *testing.T) {
	err := &StorageError{Operation: "download", Key: "bundles/parcels.shp", Err: fmt.Errorf("denied")}

	if !strings.Contains(err.Error(), "bundles/parcels.shp") {
		t.Errorf("Error() = %q, should include the key", err.Error())
	}

	noKey := &StorageError{Operation: "list", Err: fmt.Errorf("denied")}
	if !strings.Contains(noKey.Error(), "list") {
		t.Errorf("Error() = %q, should include the operation", noKey.Error())
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: "database.path", Message: "required"}

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ConfigError should unwrap to ErrInvalidInput")
	}
	if !strings.Contains(err.Error(), "database.path") {
		t.Errorf("Error() = %q, should name the field", err.Error())
	}
}
