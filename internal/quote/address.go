package quote

import (
	"regexp"
	"strings"
)

// ParsedAddress is the best-effort split of the free-text address field.
// It feeds the CRM address fields directly, with no user-facing correction
// step, so the fallback hierarchy below is a strict contract.
type ParsedAddress struct {
	Street string
	City   string
	State  string
	Zip    string
}

var (
	// State code immediately followed by a zip. Anchoring the two together
	// picks up the real zip instead of a leading house number.
	stateZipRe = regexp.MustCompile(`\b([A-Z]{2})\s*(\d{5})(?:-\d{4})?\b`)
	// Trailing zip, optionally followed by a country suffix.
	endZipRe = regexp.MustCompile(`(?i)(\d{5})(?:-\d{4})?(?:\s*,?\s*USA?)?\s*$`)
	// Standalone state code followed by a zip or end of string.
	stateRe = regexp.MustCompile(`\b([A-Z]{2})\s*(?:\d{5}|$)`)
	// State/zip tail inside a street or city segment.
	segmentTailRe = regexp.MustCompile(`\s+[A-Z]{2}\s*\d{5}.*$`)
	digitsOnlyRe  = regexp.MustCompile(`^\d+$`)
)

// serviceAreaZips are the local service-area zip codes. When parsing recovers
// a zip but no city, one of these defaults the city to the home town.
var serviceAreaZips = map[string]bool{
	"80010": true, "80011": true, "80012": true, "80013": true,
	"80014": true, "80015": true, "80016": true, "80017": true,
	"80018": true, "80019": true, "80040": true, "80041": true,
	"80042": true, "80044": true, "80045": true, "80046": true,
	"80047": true,
}

const serviceAreaCity = "Aurora"

// ParseAddress splits a free-text address into street/city/state/zip.
//
// Preferred: a two-letter state code directly followed by a 5-digit zip
// anywhere in the string. Fallback: a trailing 5-digit zip plus a separate
// two-letter state token. Comma segments supply street and city; a "city"
// segment that is really the zip is discarded. A recovered service-area zip
// with no city defaults the city to the home town.
func ParseAddress(address string) ParsedAddress {
	result := ParsedAddress{State: "CO"}

	address = strings.TrimSpace(address)
	if address == "" {
		return result
	}

	if m := stateZipRe.FindStringSubmatch(address); m != nil {
		result.State = m[1]
		result.Zip = m[2]
	} else {
		if m := endZipRe.FindStringSubmatch(address); m != nil {
			result.Zip = m[1]
		}
		if m := stateRe.FindStringSubmatch(address); m != nil {
			result.State = m[1]
		}
	}

	parts := strings.Split(address, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}

	if len(parts) >= 1 {
		result.Street = strings.TrimSpace(segmentTailRe.ReplaceAllString(parts[0], ""))
	}
	if len(parts) >= 2 {
		city := strings.TrimSpace(segmentTailRe.ReplaceAllString(parts[1], ""))
		// "456 Oak Ave, 80013" puts the zip where the city belongs.
		if city == result.Zip || digitsOnlyRe.MatchString(city) {
			city = ""
		}
		result.City = city
	}
	if len(parts) >= 3 {
		last := parts[len(parts)-1]
		if m := stateZipRe.FindStringSubmatch(last); m != nil {
			result.State = m[1]
			result.Zip = m[2]
		}
	}

	if result.City == "" && result.Zip != "" && serviceAreaZips[result.Zip] {
		result.City = serviceAreaCity
	}

	return result
}
