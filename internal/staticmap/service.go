// Package staticmap produces the property snapshot image for a quote: a
// client-submitted capture when one was sent, otherwise a static map rendered
// by the external map provider with the drawn polygons as filled overlays.
package staticmap

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quotewidget_backend/internal/quote"
	"quotewidget_backend/platform/logger"
)

// minSnapshotBytes is the decoded-size floor below which a client-submitted
// snapshot is considered corrupt and ignored.
const minSnapshotBytes = 100

// overlayStyle is the fill/stroke pair for one polygon type.
type overlayStyle struct {
	fill   string
	stroke string
}

// Translucent fills keyed by polygon type. Unknown types use the lawn style.
var overlayStyles = map[string]overlayStyle{
	"lawn":  {fill: "0x2E7D3244", stroke: "0x2E7D32FF"},
	"mulch": {fill: "0x79554844", stroke: "0x795548FF"},
}

// Config is the subset of application config the renderer needs.
type Config interface {
	GetMapsAPIKey() string
	GetStaticMapURL() string
	GetStaticMapSize() string
	GetStaticMapType() string
}

// Service renders snapshot images.
type Service struct {
	cfg    Config
	client *http.Client
	log    *logger.Logger
}

// NewService creates the snapshot renderer.
func NewService(cfg Config, log *logger.Logger) *Service {
	return &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log,
	}
}

// Resolve produces the snapshot image bytes for a quote.
//
// A client-submitted data-URI snapshot wins when it decodes to a plausible
// size. Otherwise a static map is rendered, centered from polygon geometry,
// then an explicit center point, then the free-text address (geocoded by the
// provider). A render failure returns an error that callers must treat as a
// soft, fully-recoverable condition.
func (s *Service) Resolve(ctx context.Context, q *quote.Quote) ([]byte, error) {
	if img, ok := DecodeDataURI(q.Snapshot); ok {
		return img, nil
	}
	return s.render(ctx, q)
}

// DecodeDataURI decodes a base64 data-URI image, rejecting payloads below the
// corruption threshold. This is a size sanity check, not an image validator.
func DecodeDataURI(uri string) ([]byte, bool) {
	if uri == "" {
		return nil, false
	}
	payload := uri
	if i := strings.Index(payload, ","); i >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[i+1:]
	}
	img, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(img) <= minSnapshotBytes {
		return nil, false
	}
	return img, true
}

func (s *Service) render(ctx context.Context, q *quote.Quote) ([]byte, error) {
	if s.cfg.GetMapsAPIKey() == "" {
		return nil, fmt.Errorf("static map rendering disabled: no API key")
	}

	params := url.Values{}
	params.Set("size", s.cfg.GetStaticMapSize())
	params.Set("maptype", s.cfg.GetStaticMapType())
	params.Set("key", s.cfg.GetMapsAPIKey())

	if view, ok := ResolveView(q.Polygons); ok {
		params.Set("center", formatCoord(view.Center))
		params.Set("zoom", strconv.Itoa(view.Zoom))
	} else if q.MapCenter != nil {
		params.Set("center", formatCoord(*q.MapCenter))
		params.Set("zoom", strconv.Itoa(defaultZoom))
	} else if strings.TrimSpace(q.Address) != "" {
		// The provider geocodes a plain-text center.
		params.Set("center", strings.TrimSpace(q.Address))
		params.Set("zoom", strconv.Itoa(defaultZoom))
	} else {
		return nil, fmt.Errorf("no geometry, center, or address to render")
	}

	for _, p := range q.Polygons {
		if len(p.Coords) == 0 {
			continue
		}
		style, ok := overlayStyles[p.Type]
		if !ok {
			style = overlayStyles["lawn"]
		}
		enc := EncodePolyline(closedRing(p.Coords))
		params.Add("path", fmt.Sprintf("fillcolor:%s|color:%s|weight:2|enc:%s", style.fill, style.stroke, enc))
	}

	reqURL := s.cfg.GetStaticMapURL() + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.ExternalCallFailed("staticmap", "render", err)
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("static map upstream returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		s.log.ExternalCallFailed("staticmap", "render", err)
		return nil, err
	}

	return io.ReadAll(resp.Body)
}

func formatCoord(c quote.Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lng, 'f', 6, 64)
}
