package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(720) 555-0142", "+17205550142"},
		{"720-555-0142", "+17205550142"},
		{"+1 720 555 0142", "+17205550142"},
		{"not a number", "not a number"},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeE164(tt.in); got != tt.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(720) 555-0142", "7205550142"},
		{"+1 720 555 0142", "7205550142"},
		{"ext. 12-34", "1234"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Digits(tt.in); got != tt.want {
			t.Errorf("Digits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
