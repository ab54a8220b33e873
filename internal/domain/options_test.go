package domain

import "testing"

func TestImportOptionsApplyDefaults(t *testing.T) {
	var opts ImportOptions
	opts.ApplyDefaults()

	if opts.Charset != "UTF-8" {
		t.Errorf("Charset = %q, want UTF-8", opts.Charset)
	}
	if opts.SRID != SRIDUnknown {
		t.Errorf("SRID = %d, want %d", opts.SRID, SRIDUnknown)
	}
	if opts.GeomColumn != GeometryColumnName {
		t.Errorf("GeomColumn = %q, want %q", opts.GeomColumn, GeometryColumnName)
	}
	if opts.PKColumn != "PK" {
		t.Errorf("PKColumn = %q, want PK", opts.PKColumn)
	}
	if opts.GeomType != "AUTO" {
		t.Errorf("GeomType = %q, want AUTO", opts.GeomType)
	}

	set := ImportOptions{Charset: "CP1252", SRID: 25832, GeomColumn: "geom"}
	set.ApplyDefaults()
	if set.Charset != "CP1252" || set.SRID != 25832 || set.GeomColumn != "geom" {
		t.Errorf("ApplyDefaults() overwrote explicit fields: %+v", set)
	}
}

func TestExportOptionsApplyDefaults(t *testing.T) {
	var opts ExportOptions
	opts.ApplyDefaults()

	if opts.GeomColumn != GeometryColumnName {
		t.Errorf("GeomColumn = %q, want %q", opts.GeomColumn, GeometryColumnName)
	}
	if opts.Charset != "UTF-8" {
		t.Errorf("Charset = %q, want UTF-8", opts.Charset)
	}
	if opts.GeomType != "AUTO" {
		t.Errorf("GeomType = %q, want AUTO", opts.GeomType)
	}
}

func TestAlterOptionsEmpty(t *testing.T) {
	srid := 4326
	notNull := true

	tests := []struct {
		name string
		opts AlterOptions
		want bool
	}{
		{name: "all unset", opts: AlterOptions{}, want: true},
		{name: "srid set", opts: AlterOptions{SRID: &srid}, want: false},
		{name: "geom type set", opts: AlterOptions{GeomType: "MULTIPOLYGON"}, want: false},
		{name: "dims set", opts: AlterOptions{Dims: DimXY}, want: false},
		{name: "not null set", opts: AlterOptions{NotNull: &notNull}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v", got, tt.want)
			}
		})
	}
}
