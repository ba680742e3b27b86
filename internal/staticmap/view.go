package staticmap

import "quotewidget_backend/internal/quote"

// defaultZoom is used when the view comes from an explicit center point or a
// geocoded address instead of polygon geometry.
const defaultZoom = 19

// View is a resolved map viewport.
type View struct {
	Center quote.Coordinate
	Zoom   int
}

// ResolveView derives a viewport from polygon geometry: the bounding box of
// every vertex across all polygons, its midpoint nudged south by 10% of the
// latitude span (so the shape sits slightly above visual center), and a zoom
// band keyed by the larger of the two spans. Returns false when there are no
// vertices at all.
func ResolveView(polygons []quote.Polygon) (View, bool) {
	first := true
	var minLat, maxLat, minLng, maxLng float64

	for _, p := range polygons {
		for _, c := range p.Coords {
			if first {
				minLat, maxLat = c.Lat, c.Lat
				minLng, maxLng = c.Lng, c.Lng
				first = false
				continue
			}
			if c.Lat < minLat {
				minLat = c.Lat
			}
			if c.Lat > maxLat {
				maxLat = c.Lat
			}
			if c.Lng < minLng {
				minLng = c.Lng
			}
			if c.Lng > maxLng {
				maxLng = c.Lng
			}
		}
	}
	if first {
		return View{}, false
	}

	latSpan := maxLat - minLat
	lngSpan := maxLng - minLng

	center := quote.Coordinate{
		Lat: (minLat+maxLat)/2 - latSpan*0.1,
		Lng: (minLng + maxLng) / 2,
	}

	span := latSpan
	if lngSpan > span {
		span = lngSpan
	}

	return View{Center: center, Zoom: zoomForSpan(span)}, true
}

// zoomForSpan picks the discrete zoom band for a bounding-box span.
// Boundary values fall into the smaller-zoom band.
func zoomForSpan(span float64) int {
	switch {
	case span < 0.0003:
		return 20
	case span < 0.001:
		return 19
	case span < 0.003:
		return 18
	default:
		return 17
	}
}
