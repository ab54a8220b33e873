package spatialite

import (
	"strings"
	"testing"

	"github.com/jobrunner/strata/internal/domain"
)

func TestComposeTransform(t *testing.T) {
	tests := []struct {
		name      string
		transform string
		cast      string
		want      string
	}{
		{
			name: "neither",
			want: "geometry",
		},
		{
			name:      "transform only",
			transform: "ST_Transform(geometry, 4326)",
			want:      "ST_Transform(geometry, 4326)",
		},
		{
			name: "cast only",
			cast: "CastToXY(geometry)",
			want: "CastToXY(geometry)",
		},
		{
			name:      "cast composed inside transform",
			transform: "ST_Transform(geometry, 3857)",
			cast:      "CastToXY(geometry)",
			want:      "ST_Transform(CastToXY(geometry), 3857)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := composeTransform(tt.transform, tt.cast); got != tt.want {
				t.Errorf("composeTransform(%q, %q) = %q, want %q",
					tt.transform, tt.cast, got, tt.want)
			}
		})
	}
}

func TestAlterStatements(t *testing.T) {
	stmts := alterStatements("parcels", 3857, "MULTIPOLYGON", domain.DimXY, 1,
		"ST_Transform(CastToXY(geometry), 3857)")

	want := []string{
		"SELECT DropGeoTable('parcels_bk');",
		"SELECT CloneTable('main', 'parcels', 'parcels_bk', 1, '::ignore::geometry');",
		"SELECT AddGeometryColumn('parcels_bk', 'geometry', 3857, 'MULTIPOLYGON', 'XY', 1);",
		`UPDATE "parcels_bk" SET geometry = (SELECT ST_Transform(CastToXY(geometry), 3857) FROM "parcels" WHERE "parcels_bk".rowid = "parcels".rowid);`,
		"SELECT DropGeoTable('parcels');",
		"SELECT CloneTable('main', 'parcels_bk', 'parcels', 1);",
		"SELECT DropGeoTable('parcels_bk');",
		"VACUUM;",
	}

	if len(stmts) != len(want) {
		t.Fatalf("alterStatements() returned %d statements, want %d", len(stmts), len(want))
	}
	for i := range want {
		if stmts[i] != want[i] {
			t.Errorf("statement %d = %q, want %q", i, stmts[i], want[i])
		}
	}
}

func TestAlterStatementsPassthroughExpr(t *testing.T) {
	stmts := alterStatements("roads", 4326, "LINESTRING", domain.DimXY, 1, "geometry")

	joined := strings.Join(stmts, "\n")
	if !strings.Contains(joined, "(SELECT geometry FROM") {
		t.Errorf("expected pass-through geometry expression, got:\n%s", joined)
	}
}
