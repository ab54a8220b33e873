// Package codec decodes the SpatiaLite internal BLOB geometry encoding.
//
// The layout is fixed-offset: byte 0 is reserved (0x00 start marker),
// byte 1 is the byte-order flag (0 big-endian, 1 little-endian), bytes
// 2-5 hold the signed 32-bit spatial reference identifier in that byte
// order, bytes 6-37 the MBR, byte 38 a 0x7C marker, and the remainder up
// to the final 0xFE trailer byte is the geometry body. Prefixing the body
// with the byte-order flag yields standard Well-Known Binary.
package codec

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/jobrunner/strata/internal/domain"
)

const (
	// headerSize is the offset of the embedded geometry body: start
	// marker, endian flag, SRID, MBR and the MBR end marker.
	headerSize = 39

	// minBlobSize is the smallest well-formed blob: header, at least one
	// body byte and the trailer.
	minBlobSize = headerSize + 2
)

// WKB type-code modifiers for Z/M ordinates. ISO codes add 1000/2000,
// EWKB sets high bits. Either way the geometry is outside the
// fixed-offset scheme this codec supports.
const (
	ewkbZFlag = 0x80000000
	ewkbMFlag = 0x40000000
)

// Blob is a decoded SpatiaLite geometry element. It carries the embedded
// spatial reference identifier and the reconstructed WKB payload; the
// geometry views are derived on access.
type Blob struct {
	srid int32
	wkb  []byte
}

// Decode decodes a SpatiaLite BLOB geometry. It fails with
// domain.ErrMalformedGeometry when the payload is shorter than the fixed
// header allows, and with domain.ErrUnsupportedDims when the embedded
// geometry carries Z or M ordinates.
func Decode(blob []byte) (*Blob, error) {
	if len(blob) < minBlobSize {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrMalformedGeometry, len(blob))
	}

	var order binary.ByteOrder = binary.BigEndian
	if blob[1] == 1 {
		order = binary.LittleEndian
	}
	srid := int32(order.Uint32(blob[2:6]))

	// Reconstructed WKB: byte-order flag followed by the body, trailer
	// excluded.
	body := make([]byte, 0, len(blob)-headerSize)
	body = append(body, blob[1])
	body = append(body, blob[headerSize:len(blob)-1]...)

	if len(body) < 5 {
		return nil, fmt.Errorf("%w: truncated wkb body", domain.ErrMalformedGeometry)
	}
	typeCode := order.Uint32(body[1:5])
	if typeCode&(ewkbZFlag|ewkbMFlag) != 0 || (typeCode >= 1000 && typeCode < 4000) {
		return nil, fmt.Errorf("%w: wkb type code %d", domain.ErrUnsupportedDims, typeCode)
	}

	return &Blob{srid: srid, wkb: body}, nil
}

// SRID returns the spatial reference identifier as a decimal string,
// matching the authority convention.
func (b *Blob) SRID() string {
	return strconv.FormatInt(int64(b.srid), 10)
}

// SRIDInt returns the spatial reference identifier.
func (b *Blob) SRIDInt() int {
	return int(b.srid)
}

// WKB returns the reconstructed standard Well-Known Binary payload.
func (b *Blob) WKB() []byte {
	return b.wkb
}

// Geometry returns the embedded geometry as an orb.Geometry.
func (b *Blob) Geometry() (orb.Geometry, error) {
	g, err := wkb.Unmarshal(b.wkb)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedGeometry, err)
	}
	return g, nil
}

// WKT returns the embedded geometry as Well-Known Text.
func (b *Blob) WKT() (string, error) {
	g, err := b.Geometry()
	if err != nil {
		return "", err
	}
	return wkt.MarshalString(g), nil
}

// EWKT returns the embedded geometry as Extended Well-Known Text in the
// form "SRID=<id>;<wkt>".
func (b *Blob) EWKT() (string, error) {
	text, err := b.WKT()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SRID=%s;%s", b.SRID(), text), nil
}

// String implements fmt.Stringer using the EWKT form.
func (b *Blob) String() string {
	text, err := b.EWKT()
	if err != nil {
		return fmt.Sprintf("SRID=%s;<%v>", b.SRID(), err)
	}
	return text
}
