package quote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// serviceLabels maps short service keys from the intake form to display
// labels. The table is shared by the CRM notes, the staff email, and the chat
// summary, so every surface shows the same service names.
var serviceLabels = map[string]string{
	// Mowing frequencies
	"mowing":   "Weekly Mowing",
	"weekly":   "Weekly Mowing",
	"biweekly": "Bi-Weekly Mowing",
	"onetime":  "One-Time Mowing",

	// Lawn services
	"aeration":     "Aeration",
	"overseeding":  "Overseeding",
	"weed_control": "Weed Control",

	// Fertilization frequencies
	"fertilization": "Fertilization",
	"standard_fert": "Standard Fertilization",
	"premium_fert":  "Premium Fertilization",
	"fertilizer":    "Fertilization",
	"recurring":     "Fertilization (Every 4-6 Weeks)",

	// Mulch colors
	"mulch": "Mulch Install",
	"black": "Black Mulch",
	"brown": "Brown Mulch",
	"red":   "Red Mulch",

	// Cleanup services
	"cleanup":      "Cleanup",
	"yard_cleanup": "Yard Cleanup",
	"leaf_cleanup": "Leaf Cleanup",

	// Bush trimming frequencies
	"bush_trimming": "Bush Trimming",
	"once":          "One-Time Bush Trimming",
	"twice":         "Twice Yearly Trimming",
	"monthly":       "Bush Trimming (Monthly)",
	"bimonthly":     "Bush Trimming (Every 2 Months)",
	"quarterly":     "Bush Trimming (Every 3 Months)",

	// Other
	"snow":      "Snow Removal",
	"in_person": "In-Person Estimate",
}

// partnerServiceKeys are services fulfilled by the weed-control/fertilization
// partner rather than in-house crews. A quote selecting only these needs
// partner pricing before an estimate can go out.
var partnerServiceKeys = map[string]bool{
	"weedMan":       true,
	"weed_control":  true,
	"fertilization": true,
	"fertilizer":    true,
	"standard_fert": true,
	"premium_fert":  true,
	"recurring":     true,
}

// partnerNestedKey is the reserved key whose value is a nested object of
// partner plan selections rather than a plain flag.
const partnerNestedKey = "weedMan"

// ServiceValue is one value in the mapping variant of Services: a selection
// flag, a sub-variant string, or a nested partner-plan object.
type ServiceValue struct {
	Bool   bool
	Str    string
	Nested map[string]json.RawMessage

	kind serviceValueKind
}

type serviceValueKind int

const (
	valueBool serviceValueKind = iota
	valueString
	valueNested
)

// IsString reports whether the value is a sub-variant string.
func (v ServiceValue) IsString() bool { return v.kind == valueString }

// IsNested reports whether the value is a nested object.
func (v ServiceValue) IsNested() bool { return v.kind == valueNested }

// ServiceEntry is one ordered key/value pair of the mapping variant.
type ServiceEntry struct {
	Key   string
	Value ServiceValue
}

// Services is the polymorphic services field: either an ordered list of
// service keys or a mapping from key to flag/sub-variant. Exactly one variant
// is populated; IsList discriminates.
type Services struct {
	IsList  bool
	List    []string
	Entries []ServiceEntry
}

// IsEmpty reports whether no services were submitted at all.
func (s Services) IsEmpty() bool {
	return len(s.List) == 0 && len(s.Entries) == 0
}

// UnmarshalJSON decodes either variant. Object keys keep their wire order;
// a duplicate key keeps its first occurrence only.
func (s *Services) UnmarshalJSON(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '[' {
		s.IsList = true
		return json.Unmarshal(trimmed, &s.List)
	}
	if trimmed[0] != '{' {
		return fmt.Errorf("services: expected array or object, got %s", preview(trimmed))
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if _, err := dec.Token(); err != nil { // opening brace
		return err
	}

	seen := make(map[string]bool)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("services: non-string key %v", keyTok)
		}

		var rawVal json.RawMessage
		if err := dec.Decode(&rawVal); err != nil {
			return err
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		val, err := decodeServiceValue(rawVal)
		if err != nil {
			return fmt.Errorf("services[%s]: %w", key, err)
		}
		s.Entries = append(s.Entries, ServiceEntry{Key: key, Value: val})
	}
	return nil
}

// MarshalJSON re-emits the original variant so the durable log keeps the
// submission's own shape.
func (s Services) MarshalJSON() ([]byte, error) {
	if s.IsList {
		return json.Marshal(s.List)
	}
	if len(s.Entries) == 0 {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s.Entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valJSON, err := e.Value.marshal()
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (v ServiceValue) marshal() ([]byte, error) {
	switch v.kind {
	case valueString:
		return json.Marshal(v.Str)
	case valueNested:
		return json.Marshal(v.Nested)
	default:
		return json.Marshal(v.Bool)
	}
}

func decodeServiceValue(raw json.RawMessage) (ServiceValue, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ServiceValue{}, fmt.Errorf("empty value")
	}

	switch trimmed[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return ServiceValue{}, err
		}
		return ServiceValue{Bool: b, kind: valueBool}, nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ServiceValue{}, err
		}
		return ServiceValue{Str: s, kind: valueString}, nil
	case '{':
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &nested); err != nil {
			return ServiceValue{}, err
		}
		return ServiceValue{Nested: nested, kind: valueNested}, nil
	default:
		return ServiceValue{}, fmt.Errorf("unsupported value %s", preview(trimmed))
	}
}

func preview(raw []byte) string {
	const max = 24
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}

// Labels normalizes the selection to an ordered list of display labels.
//
// List variant: each key maps through the label table, unknown keys pass
// through unchanged (so normalizing an already-normalized list is a no-op).
//
// Mapping variant: a true flag uses the key's label (unknown keys are
// title-cased); false excludes the key; a string value selects the value's
// own label when the value is in the table, else the key's label, else a
// literal "key: value". Nested objects contribute nothing here.
func (s Services) Labels() []string {
	if s.IsList {
		labels := make([]string, 0, len(s.List))
		for _, key := range s.List {
			if label, ok := serviceLabels[key]; ok {
				labels = append(labels, label)
			} else {
				labels = append(labels, key)
			}
		}
		return labels
	}

	labels := make([]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		switch {
		case e.Value.IsNested():
			continue
		case e.Value.IsString():
			if label, ok := serviceLabels[e.Value.Str]; ok {
				labels = append(labels, label)
			} else if label, ok := serviceLabels[e.Key]; ok {
				labels = append(labels, label)
			} else {
				labels = append(labels, e.Key+": "+e.Value.Str)
			}
		case e.Value.Bool:
			labels = append(labels, displayLabel(e.Key))
		}
	}
	return labels
}

// displayLabel resolves a key's label, title-casing unknown keys by replacing
// underscores with spaces.
func displayLabel(key string) string {
	if label, ok := serviceLabels[key]; ok {
		return label
	}
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Summary joins the normalized labels for one-line displays.
func (s Services) Summary() string {
	return strings.Join(s.Labels(), ", ")
}

// Has reports whether a specific service key is selected, across both
// variants. String sub-variants count as selected.
func (s Services) Has(key string) bool {
	if s.IsList {
		for _, k := range s.List {
			if k == key {
				return true
			}
		}
		return false
	}
	for _, e := range s.Entries {
		if e.Key != key {
			continue
		}
		switch {
		case e.Value.IsNested():
			return len(e.Value.Nested) > 0
		case e.Value.IsString():
			return e.Value.Str != ""
		default:
			return e.Value.Bool
		}
	}
	return false
}

// IsPartnerOnly classifies a quote as partner-service-only: at least one
// explicitly-selected partner service and no explicitly-selected in-house
// service. The reserved nested object is unwrapped and its inner keys
// (except the payment sub-field) checked the same way.
func (s Services) IsPartnerOnly() bool {
	hasPartner := false
	hasOwnService := false

	mark := func(key string) {
		if partnerServiceKeys[key] {
			hasPartner = true
		} else {
			hasOwnService = true
		}
	}

	if s.IsList {
		for _, key := range s.List {
			mark(key)
		}
		return hasPartner && !hasOwnService
	}

	for _, e := range s.Entries {
		switch {
		case e.Value.IsNested():
			if e.Key != partnerNestedKey {
				continue
			}
			for inner, rawVal := range e.Value.Nested {
				if inner == "payment" {
					continue
				}
				var b bool
				if err := json.Unmarshal(rawVal, &b); err == nil && b {
					mark(inner)
				}
			}
		case e.Value.Bool && !e.Value.IsString():
			mark(e.Key)
		}
	}
	return hasPartner && !hasOwnService
}
