package quote

import "testing"

func TestParseAddress_StateZipTogether(t *testing.T) {
	got := ParseAddress("123 Main St, Aurora, CO 80015")

	if got.Street != "123 Main St" {
		t.Fatalf("street: expected %q, got %q", "123 Main St", got.Street)
	}
	if got.City != "Aurora" {
		t.Fatalf("city: expected Aurora, got %q", got.City)
	}
	if got.State != "CO" {
		t.Fatalf("state: expected CO, got %q", got.State)
	}
	if got.Zip != "80015" {
		t.Fatalf("zip: expected 80015, got %q", got.Zip)
	}
}

func TestParseAddress_ZipOnlyDefaultsServiceAreaCity(t *testing.T) {
	got := ParseAddress("456 Oak Ave, 80013")

	if got.Street != "456 Oak Ave" {
		t.Fatalf("street: expected %q, got %q", "456 Oak Ave", got.Street)
	}
	if got.Zip != "80013" {
		t.Fatalf("zip: expected 80013, got %q", got.Zip)
	}
	if got.City != "Aurora" {
		t.Fatalf("city: expected service-area fallback Aurora, got %q", got.City)
	}
}

func TestParseAddress_LeadingHouseNumberIsNotZip(t *testing.T) {
	got := ParseAddress("19082 E Chenango Cir, Aurora, CO 80015")

	if got.Zip != "80015" {
		t.Fatalf("zip: expected 80015 (not the house number), got %q", got.Zip)
	}
	if got.Street != "19082 E Chenango Cir" {
		t.Fatalf("street: got %q", got.Street)
	}
}

func TestParseAddress_ZipWithPlusFour(t *testing.T) {
	got := ParseAddress("789 Elm St, Denver, CO 80202-1234")

	if got.Zip != "80202" {
		t.Fatalf("zip: expected 80202, got %q", got.Zip)
	}
	if got.State != "CO" {
		t.Fatalf("state: expected CO, got %q", got.State)
	}
}

func TestParseAddress_NonServiceAreaZipNoCityFallback(t *testing.T) {
	got := ParseAddress("10 Somewhere Rd, 99999")

	if got.Zip != "99999" {
		t.Fatalf("zip: expected 99999, got %q", got.Zip)
	}
	if got.City != "" {
		t.Fatalf("city: expected empty for non-service-area zip, got %q", got.City)
	}
}

func TestParseAddress_Empty(t *testing.T) {
	got := ParseAddress("")

	if got.Street != "" || got.City != "" || got.Zip != "" {
		t.Fatalf("expected empty components, got %+v", got)
	}
	if got.State != "CO" {
		t.Fatalf("state: expected default CO, got %q", got.State)
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		in    string
		first string
		last  string
	}{
		{"jimmy the beast", "jimmy", "the beast"},
		{"Cher", "Cher", ""},
		{"  Ann  Marie  Smith ", "Ann", "Marie Smith"},
		{"", "Customer", ""},
	}

	for _, tc := range tests {
		got := ParseName(tc.in)
		if got.FirstName != tc.first || got.LastName != tc.last {
			t.Fatalf("ParseName(%q) = %+v, want first=%q last=%q", tc.in, got, tc.first, tc.last)
		}
	}
}
