package refsys

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jobrunner/strata/internal/domain"
)

func TestFetchDefinitionValidation(t *testing.T) {
	f := NewFetcher(FetcherConfig{BaseURL: "http://127.0.0.1:0"})

	tests := []struct {
		name      string
		authority string
		format    string
		wantErr   error
	}{
		{name: "bad authority", authority: "ogc", format: "proj4", wantErr: domain.ErrInvalidAuthority},
		{name: "bad format", authority: "epsg", format: "wkt2", wantErr: domain.ErrInvalidFormat},
		{name: "empty authority", authority: "", format: "proj4", wantErr: domain.ErrInvalidAuthority},
		{name: "empty format", authority: "esri", format: "", wantErr: domain.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.FetchDefinition(context.Background(), 4326, tt.authority, tt.format)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FetchDefinition() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFetchDefinitionSpatiaLiteDerivation(t *testing.T) {
	const postgisInsert = `INSERT into spatial_ref_sys (srid, auth_name, auth_srid, proj4text, srtext) values (9102700, 'esri', 102700, '+proj=lcc +lat_1=45', 'PROJCS["NAD_1983"]');`

	var requestedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		_, _ = w.Write([]byte(postgisInsert))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{BaseURL: srv.URL})

	got, err := f.FetchDefinition(context.Background(), 102700, "esri", "spatialite")
	if err != nil {
		t.Fatalf("FetchDefinition() error = %v", err)
	}

	// The spatialite format is requested from the postgis endpoint.
	if want := "/ref/esri/102700/postgis/"; requestedPath != want {
		t.Errorf("requested path = %q, want %q", requestedPath, want)
	}

	// The leading 9 on the first SRID occurrence is rewritten; the
	// auth_srid value stays untouched.
	want := `INSERT into spatial_ref_sys (srid, auth_name, auth_srid, proj4text, srtext) values (102700, 'esri', 102700, '+proj=lcc +lat_1=45', 'PROJCS["NAD_1983"]');`
	if got != want {
		t.Errorf("FetchDefinition() = %q, want %q", got, want)
	}
}

func TestFetchDefinitionPassThroughFormats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("+proj=longlat +datum=WGS84 +no_defs"))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{BaseURL: srv.URL})

	got, err := f.FetchDefinition(context.Background(), 4326, "epsg", "proj4")
	if err != nil {
		t.Fatalf("FetchDefinition() error = %v", err)
	}
	if want := "+proj=longlat +datum=WGS84 +no_defs"; got != want {
		t.Errorf("FetchDefinition() = %q, want %q", got, want)
	}
}

func TestFetchDefinitionServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{BaseURL: srv.URL})

	_, err := f.FetchDefinition(context.Background(), 999999, "sr-org", "proj4")
	if !errors.Is(err, domain.ErrReferenceLookup) {
		t.Errorf("FetchDefinition() error = %v, want ErrReferenceLookup", err)
	}

	var lookupErr *domain.LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("FetchDefinition() error = %T, want *domain.LookupError", err)
	}
	if lookupErr.SRID != 999999 || lookupErr.Authority != "sr-org" {
		t.Errorf("LookupError = %+v, want srid 999999 authority sr-org", lookupErr)
	}
}
