package staticmap

import (
	"testing"

	"quotewidget_backend/internal/quote"
)

func TestEncodePolyline_ProviderReferenceExample(t *testing.T) {
	// The provider's published worked example.
	coords := []quote.Coordinate{
		{Lat: 38.5, Lng: -120.2},
		{Lat: 40.7, Lng: -120.95},
		{Lat: 43.252, Lng: -126.453},
	}

	got := EncodePolyline(coords)
	want := "_p~iF~ps|U_ulLnnqC_mqNvxq`@"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestEncodePolyline_UnitDelta(t *testing.T) {
	coords := []quote.Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 0.00001, Lng: 0.00001},
	}

	// Origin encodes as "??", a +1/+1 delta as "AA".
	got := EncodePolyline(coords)
	if got != "??AA" {
		t.Fatalf("expected %q, got %q", "??AA", got)
	}
}

func TestEncodePolyline_NegativeDelta(t *testing.T) {
	coords := []quote.Coordinate{
		{Lat: 0.00001, Lng: 0.00001},
		{Lat: 0, Lng: 0},
	}

	got := EncodePolyline(coords)
	if got != "AA@@" {
		t.Fatalf("expected %q, got %q", "AA@@", got)
	}
}

func TestClosedRing(t *testing.T) {
	open := []quote.Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}, {Lat: 3, Lng: 1}}

	ring := closedRing(open)
	if len(ring) != 4 {
		t.Fatalf("expected ring of 4 vertices, got %d", len(ring))
	}
	if ring[3] != ring[0] {
		t.Fatalf("expected closing vertex %v, got %v", ring[0], ring[3])
	}

	// Already closed rings are returned as-is.
	again := closedRing(ring)
	if len(again) != 4 {
		t.Fatalf("expected closed ring untouched, got %d vertices", len(again))
	}
}
