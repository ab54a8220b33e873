package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/jobrunner/strata/internal/domain"
)

// makeBlob assembles a SpatiaLite BLOB geometry around the given
// geometry: start marker, endian flag, SRID, zeroed MBR, MBR end marker,
// WKB body without its own endian flag, trailer.
func makeBlob(t *testing.T, srid int32, order binary.ByteOrder, g orb.Geometry) []byte {
	t.Helper()

	raw, err := wkb.Marshal(g, order)
	if err != nil {
		t.Fatalf("marshaling wkb: %v", err)
	}

	blob := make([]byte, 0, len(raw)+40)
	blob = append(blob, 0x00)
	if order == binary.LittleEndian {
		blob = append(blob, 0x01)
	} else {
		blob = append(blob, 0x00)
	}

	var sridBytes [4]byte
	order.PutUint32(sridBytes[:], uint32(srid))
	blob = append(blob, sridBytes[:]...)

	blob = append(blob, make([]byte, 32)...) // MBR, unused by the decoder
	blob = append(blob, 0x7C)
	blob = append(blob, raw[1:]...)
	blob = append(blob, 0xFE)
	return blob
}

func TestDecodeSRID(t *testing.T) {
	tests := []struct {
		name  string
		srid  int32
		order binary.ByteOrder
	}{
		{name: "little-endian wgs84", srid: 4326, order: binary.LittleEndian},
		{name: "big-endian wgs84", srid: 4326, order: binary.BigEndian},
		{name: "little-endian esri", srid: 102700, order: binary.LittleEndian},
		{name: "negative unknown", srid: -1, order: binary.LittleEndian},
		{name: "zero", srid: 0, order: binary.BigEndian},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := makeBlob(t, tt.srid, tt.order, orb.Point{10, 50})

			decoded, err := Decode(blob)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got := decoded.SRIDInt(); got != int(tt.srid) {
				t.Errorf("SRIDInt() = %d, want %d", got, tt.srid)
			}
			if got, want := decoded.SRID(), fmt.Sprintf("%d", tt.srid); got != want {
				t.Errorf("SRID() = %q, want %q", got, want)
			}
		})
	}
}

func TestDecodeGeometry(t *testing.T) {
	tests := []struct {
		name string
		geom orb.Geometry
	}{
		{name: "point", geom: orb.Point{10, 50}},
		{name: "linestring", geom: orb.LineString{{0, 0}, {1, 1}, {2, 0}}},
		{name: "polygon", geom: orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}},
		{name: "multipoint", geom: orb.MultiPoint{{0, 0}, {5, 5}}},
		{name: "multipolygon", geom: orb.MultiPolygon{{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := makeBlob(t, 4326, binary.LittleEndian, tt.geom)

			decoded, err := Decode(blob)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			g, err := decoded.Geometry()
			if err != nil {
				t.Fatalf("Geometry() error = %v", err)
			}
			if !orb.Equal(g, tt.geom) {
				t.Errorf("Geometry() = %v, want %v", g, tt.geom)
			}
		})
	}
}

func TestDecodeBigEndianBody(t *testing.T) {
	want := orb.Point{3, 7}
	blob := makeBlob(t, 4326, binary.BigEndian, want)

	decoded, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	g, err := decoded.Geometry()
	if err != nil {
		t.Fatalf("Geometry() error = %v", err)
	}
	if !orb.Equal(g, want) {
		t.Errorf("Geometry() = %v, want %v", g, want)
	}
}

func TestDecodeEWKT(t *testing.T) {
	blob := makeBlob(t, 4326, binary.LittleEndian, orb.Point{10, 50})

	decoded, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	ewkt, err := decoded.EWKT()
	if err != nil {
		t.Fatalf("EWKT() error = %v", err)
	}
	if want := "SRID=4326;POINT(10 50)"; ewkt != want {
		t.Errorf("EWKT() = %q, want %q", ewkt, want)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
	}{
		{name: "nil", blob: nil},
		{name: "empty", blob: []byte{}},
		{name: "header only", blob: make([]byte, 39)},
		{name: "one short of minimum", blob: make([]byte, 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.blob)
			if !errors.Is(err, domain.ErrMalformedGeometry) {
				t.Errorf("Decode() error = %v, want ErrMalformedGeometry", err)
			}
		})
	}
}

func TestDecodeZMUnsupported(t *testing.T) {
	// Hand-build a blob whose embedded WKB declares an ISO POINT Z
	// (type code 1001).
	blob := make([]byte, 0, 64)
	blob = append(blob, 0x00, 0x01)
	blob = append(blob, []byte{0xE6, 0x10, 0x00, 0x00}...) // 4326 LE
	blob = append(blob, make([]byte, 32)...)
	blob = append(blob, 0x7C)
	blob = append(blob, []byte{0xE9, 0x03, 0x00, 0x00}...) // type 1001 LE
	blob = append(blob, make([]byte, 24)...)               // x, y, z
	blob = append(blob, 0xFE)

	_, err := Decode(blob)
	if !errors.Is(err, domain.ErrUnsupportedDims) {
		t.Errorf("Decode() error = %v, want ErrUnsupportedDims", err)
	}
}

func TestDecodedWKBRoundTrip(t *testing.T) {
	want := orb.LineString{{1, 2}, {3, 4}}
	blob := makeBlob(t, 3857, binary.LittleEndian, want)

	decoded, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	// The reconstructed payload must be consumable as plain WKB.
	g, err := wkb.Unmarshal(decoded.WKB())
	if err != nil {
		t.Fatalf("wkb.Unmarshal() error = %v", err)
	}
	if !orb.Equal(g, want) {
		t.Errorf("round-tripped geometry = %v, want %v", g, want)
	}
}
