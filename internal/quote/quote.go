// Package quote holds the canonical quote domain model and the normalization
// rules that turn a loosely-structured intake payload into structured records.
package quote

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Polygon is a drawn property overlay. Type is "lawn" or "mulch".
type Polygon struct {
	Type   string       `json:"type"`
	Coords []Coordinate `json:"coords"`
	Sqft   float64      `json:"sqft,omitempty"`
}

// Photo is a customer-uploaded image. The form submits either a bare data-URI
// string or an object with an explicit MIME type.
type Photo struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// UnmarshalJSON accepts both `"data:image/..."` and `{"type":..., "data":...}`.
func (p *Photo) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		p.Data = s
		p.Type = mimeFromDataURI(s)
		return nil
	}

	type alias Photo
	var a alias
	if err := json.Unmarshal(raw, &a); err != nil {
		return err
	}
	*p = Photo(a)
	if p.Type == "" {
		p.Type = mimeFromDataURI(p.Data)
	}
	return nil
}

func mimeFromDataURI(uri string) string {
	if !strings.HasPrefix(uri, "data:") {
		return ""
	}
	rest := uri[len("data:"):]
	if i := strings.IndexAny(rest, ";,"); i >= 0 {
		return rest[:i]
	}
	return ""
}

// FlexFloat accepts a JSON number or a numeric string. The form historically
// submitted square footage both ways.
type FlexFloat float64

// UnmarshalJSON implements flexible number decoding.
func (f *FlexFloat) UnmarshalJSON(raw []byte) error {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		*f = FlexFloat(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Unparsable measurement is treated as absent, not as a request error.
		*f = 0
		return nil
	}
	*f = FlexFloat(n)
	return nil
}

// Float returns the plain float value.
func (f FlexFloat) Float() float64 { return float64(f) }

// IsZero reports whether the value is absent or zero.
func (f FlexFloat) IsZero() bool { return f == 0 }

// FlexTime accepts an RFC3339 string or epoch milliseconds.
type FlexTime struct {
	time.Time
}

// UnmarshalJSON implements flexible timestamp decoding.
func (t *FlexTime) UnmarshalJSON(raw []byte) error {
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		t.Time = time.UnixMilli(ms)
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil // unparsable timestamp defaults later
	}
	t.Time = parsed
	return nil
}

// MarshalJSON writes RFC3339.
func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// Quote is one normalized customer submission. It is constructed once per
// inbound request and flows read-only through every pipeline stage.
type Quote struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`

	Services Services `json:"services"`

	LawnSqft    FlexFloat `json:"lawnSqft,omitempty"`
	TurfSqft    FlexFloat `json:"turfSqft,omitempty"`
	MulchSqft   FlexFloat `json:"mulchSqft,omitempty"`
	MulchCuYard FlexFloat `json:"mulchCuYards,omitempty"`
	MulchCuFt   FlexFloat `json:"mulchCuFt,omitempty"`
	MulchColor  string    `json:"mulchColor,omitempty"`
	MowingType  string    `json:"mowingType,omitempty"`

	HasGate     *bool  `json:"hasGate,omitempty"`
	GateWidth   string `json:"gateWidth,omitempty"`
	GateCode    string `json:"gateCode,omitempty"`
	HasStairs   *bool  `json:"hasStairs,omitempty"`
	HasDog      *bool  `json:"hasDog,omitempty"`
	IsOvergrown *bool  `json:"isOvergrown,omitempty"`
	GrassHeight string `json:"grassHeight,omitempty"`

	Notes           string `json:"notes,omitempty"`
	PropertyNotes   string `json:"propertyNotes,omitempty"`
	AdditionalNotes string `json:"additionalNotes,omitempty"`

	ReferralSource string `json:"referralSource,omitempty"`
	SMSConsent     bool   `json:"smsConsent,omitempty"`

	MapCenter *Coordinate `json:"mapCenter,omitempty"`
	Polygons  []Polygon   `json:"polygons,omitempty"`

	// Transient media. Stripped before the quote is persisted.
	Snapshot string  `json:"snapshot,omitempty"`
	Photos   []Photo `json:"photos,omitempty"`

	SubmissionID string   `json:"submissionId,omitempty"`
	Timestamp    FlexTime `json:"timestamp,omitempty"`
}

// LawnArea returns the first non-empty of lawnSqft/turfSqft (aliases).
func (q *Quote) LawnArea() float64 {
	if !q.LawnSqft.IsZero() {
		return q.LawnSqft.Float()
	}
	return q.TurfSqft.Float()
}

// EffectiveNotes resolves the free-text fallback chain. additionalNotes and
// propertyNotes supersede notes when present; the fields are never merged.
func (q *Quote) EffectiveNotes() string {
	if strings.TrimSpace(q.AdditionalNotes) != "" {
		return strings.TrimSpace(q.AdditionalNotes)
	}
	if strings.TrimSpace(q.PropertyNotes) != "" {
		return strings.TrimSpace(q.PropertyNotes)
	}
	return strings.TrimSpace(q.Notes)
}

// SubmittedAt returns the caller-supplied timestamp or the given fallback.
func (q *Quote) SubmittedAt(fallback time.Time) time.Time {
	if !q.Timestamp.IsZero() {
		return q.Timestamp.Time
	}
	return fallback
}

// FormatArea renders a square-footage value with thousands separators, the
// way staff are used to reading measurements.
func FormatArea(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	intPart, frac := s, ""
	if i := strings.Index(s, "."); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}
	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

// ParsedName is the first/last split of the free-text name field.
type ParsedName struct {
	FirstName string
	LastName  string
}

// ParseName splits a full name on whitespace. A single token becomes the
// first name with an empty last name.
func ParseName(fullName string) ParsedName {
	parts := strings.Fields(strings.TrimSpace(fullName))
	if len(parts) == 0 {
		return ParsedName{FirstName: "Customer"}
	}
	if len(parts) == 1 {
		return ParsedName{FirstName: parts[0]}
	}
	return ParsedName{
		FirstName: parts[0],
		LastName:  strings.Join(parts[1:], " "),
	}
}

// FirstName returns the leading name token, for greeting lines.
func (q *Quote) FirstName() string {
	if strings.TrimSpace(q.Name) == "" {
		return "there"
	}
	return ParseName(q.Name).FirstName
}
