package staticmap

import (
	"strings"

	"quotewidget_backend/internal/quote"
)

// EncodePolyline encodes coordinates with the map provider's polyline
// algorithm: 1e5 fixed-precision deltas, zig-zag sign folding, 5-bit groups
// OR'd with 0x20 and offset by 63. The output must be bit-exact or the
// provider rejects the overlay.
func EncodePolyline(coords []quote.Coordinate) string {
	var b strings.Builder
	prevLat, prevLng := 0, 0

	for _, c := range coords {
		lat := roundE5(c.Lat)
		lng := roundE5(c.Lng)
		encodeSigned(&b, lat-prevLat)
		encodeSigned(&b, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return b.String()
}

func roundE5(v float64) int {
	if v < 0 {
		return int(v*1e5 - 0.5)
	}
	return int(v*1e5 + 0.5)
}

func encodeSigned(b *strings.Builder, v int) {
	// Zig-zag: left shift, invert when negative.
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		b.WriteByte(byte((0x20 | (u & 0x1f)) + 63))
		u >>= 5
	}
	b.WriteByte(byte(u + 63))
}

// closedRing returns the ring with the first vertex repeated at the end, as
// the provider expects for filled paths.
func closedRing(coords []quote.Coordinate) []quote.Coordinate {
	if len(coords) == 0 {
		return coords
	}
	first, last := coords[0], coords[len(coords)-1]
	if first.Lat == last.Lat && first.Lng == last.Lng {
		return coords
	}
	ring := make([]quote.Coordinate, len(coords), len(coords)+1)
	copy(ring, coords)
	return append(ring, first)
}
