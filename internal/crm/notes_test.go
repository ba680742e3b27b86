package crm

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"quotewidget_backend/internal/quote"
)

func boolPtr(b bool) *bool { return &b }

func decodeServices(t *testing.T, raw string) quote.Services {
	t.Helper()
	var s quote.Services
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("decode services: %v", err)
	}
	return s
}

func TestBuildCustomerNotes(t *testing.T) {
	q := &quote.Quote{
		Services:   decodeServices(t, `{"mowing":true,"mulch":"black"}`),
		LawnSqft:   1500,
		MulchSqft:  300,
		MulchColor: "black",
		Notes:      "Please call before arriving",
		SMSConsent: true,
	}
	submitted := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	notes := BuildCustomerNotes(q, submitted)

	if !strings.Contains(notes, "Services Requested: Weekly Mowing, Black Mulch") {
		t.Errorf("missing services headline:\n%s", notes)
	}
	if !strings.Contains(notes, "Lawn: 1,500 sq ft") {
		t.Errorf("missing lawn measurement:\n%s", notes)
	}
	if !strings.Contains(notes, "Mulch: 300 sq ft (black)") {
		t.Errorf("missing mulch measurement:\n%s", notes)
	}
	if !strings.Contains(notes, "Customer Notes: Please call before arriving") {
		t.Errorf("missing customer notes:\n%s", notes)
	}
	if !strings.Contains(notes, "SMS/Email consent") {
		t.Errorf("missing consent line:\n%s", notes)
	}
	if !strings.Contains(notes, "Quote submitted: 8/31/2026") {
		t.Errorf("missing submission date:\n%s", notes)
	}
}

func TestBuildCustomerNotes_MinimalQuote(t *testing.T) {
	q := &quote.Quote{}
	notes := BuildCustomerNotes(q, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))

	if strings.Contains(notes, "Services Requested") {
		t.Errorf("empty services should not produce a headline:\n%s", notes)
	}
	if notes != "Quote submitted: 1/2/2026" {
		t.Errorf("minimal quote should only carry the date, got:\n%s", notes)
	}
}

func TestBuildPropertyNotes_FlagsExplicitYesNo(t *testing.T) {
	q := &quote.Quote{
		Services:    decodeServices(t, `{"mowing":"weekly"}`),
		MowingType:  "weekly",
		LawnSqft:    2400,
		HasGate:     boolPtr(true),
		GateWidth:   "48",
		GateCode:    "1234",
		HasStairs:   boolPtr(false),
		HasDog:      boolPtr(true),
		IsOvergrown: boolPtr(false),
	}

	notes := BuildPropertyNotes(q)

	if !strings.Contains(notes, "Mowing frequency: Weekly") {
		t.Errorf("missing mowing frequency:\n%s", notes)
	}
	if !strings.Contains(notes, "Lawn size: 2,400 sq ft") {
		t.Errorf("missing lawn size:\n%s", notes)
	}
	if !strings.Contains(notes, `Gate: Yes (48" wide) [Code: 1234]`) {
		t.Errorf("missing gate details:\n%s", notes)
	}
	if !strings.Contains(notes, "Stairs to backyard: No") {
		t.Errorf("answered-false flag must render an explicit No:\n%s", notes)
	}
	if !strings.Contains(notes, "Dogs: Yes") {
		t.Errorf("missing dog flag:\n%s", notes)
	}
	if !strings.Contains(notes, "Lawn condition: Normal") {
		t.Errorf("missing overgrown flag:\n%s", notes)
	}
}

func TestBuildPropertyNotes_UnansweredFlagsOmitted(t *testing.T) {
	q := &quote.Quote{Services: decodeServices(t, `{"aeration":true}`)}
	notes := BuildPropertyNotes(q)

	for _, label := range []string{"Gate:", "Stairs", "Dogs:", "Lawn condition"} {
		if strings.Contains(notes, label) {
			t.Errorf("unanswered flag %q should be omitted:\n%s", label, notes)
		}
	}
}

func TestBuildPropertyNotes_MulchDetails(t *testing.T) {
	q := &quote.Quote{
		Services:    decodeServices(t, `{"mulch":true}`),
		MulchSqft:   450,
		MulchCuYard: 4.5,
		MulchColor:  "brown",
	}

	notes := BuildPropertyNotes(q)

	if !strings.Contains(notes, "Mulch area: 450 sq ft") {
		t.Errorf("missing mulch area:\n%s", notes)
	}
	if !strings.Contains(notes, "Mulch volume: 4.5 cu yards") {
		t.Errorf("missing mulch volume:\n%s", notes)
	}
	if !strings.Contains(notes, "Mulch color: Brown") {
		t.Errorf("mulch color should be title-cased:\n%s", notes)
	}
}
