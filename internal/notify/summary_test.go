package notify

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"quotewidget_backend/internal/crm"
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

func TestBuildChatSummary(t *testing.T) {
	q := &quote.Quote{
		Name:           "Jane Doe",
		Email:          "jane@example.com",
		Phone:          "(720) 555-0142",
		Address:        "123 Main St, Aurora, CO 80015",
		Services:       decodeServices(t, `{"mowing":true,"mulch":"black"}`),
		LawnSqft:       1500,
		ReferralSource: "google",
		HasDog:         boolPtr(true),
		Notes:          "Side gate sticks",
	}
	crmResult := crm.Result{
		CopilotEnabled: true,
		Customer:       &crm.OpResult{Success: true, CustomerID: "100"},
		Property:       &crm.OpResult{Success: true, PropertyID: "200"},
	}

	text := BuildChatSummary(q, crmResult, "https://secure.copilotcrm.com")

	for _, want := range []string{
		"Jane Doe",
		"jane@example.com",
		"• Weekly Mowing",
		"• Black Mulch",
		"**Heard about us:** google",
		"**Lawn:** 1,500 sq ft",
		"Dogs: Yes",
		"Gate: No",
		"Stairs: No",
		"Side gate sticks",
		"https://secure.copilotcrm.com/customers/details/100",
		"(property 200)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
}

func TestBuildChatSummary_PartnerOnlyFlagged(t *testing.T) {
	q := &quote.Quote{Services: decodeServices(t, `{"weed_control":true}`)}

	text := BuildChatSummary(q, crm.Result{}, "https://secure.copilotcrm.com")

	if !strings.Contains(text, "Partner services only") {
		t.Errorf("partner-only quote must be flagged:\n%s", text)
	}
	if strings.Contains(text, "customers/details") {
		t.Errorf("no CRM block without a created customer:\n%s", text)
	}
}

func TestBuildChatSummary_MixedServicesNotPartnerFlagged(t *testing.T) {
	q := &quote.Quote{Services: decodeServices(t, `{"weed_control":true,"mowing":true}`)}

	text := BuildChatSummary(q, crm.Result{}, "")
	if strings.Contains(text, "Partner services only") {
		t.Errorf("mixed quote must not be flagged partner-only:\n%s", text)
	}
}

func TestBuildWakeSummary(t *testing.T) {
	q := &quote.Quote{
		Name:     "Jane Doe",
		Address:  "123 Main St",
		Services: decodeServices(t, `{"mowing":true}`),
	}
	got := BuildWakeSummary(q)
	want := "New quote request from Jane Doe (123 Main St): Weekly Mowing"
	if got != want {
		t.Errorf("wake summary = %q, want %q", got, want)
	}

	if got := BuildWakeSummary(&quote.Quote{}); !strings.Contains(got, "no services listed") {
		t.Errorf("empty quote wake summary = %q", got)
	}
}

func TestRenderStaffEmail_ConditionalSections(t *testing.T) {
	q := &quote.Quote{
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		Services:  decodeServices(t, `{"mowing":true}`),
		LawnSqft:  1500,
		HasGate:   boolPtr(true),
		GateWidth: "48",
		Notes:     "Ring the bell",
	}
	crmResult := crm.Result{
		CopilotEnabled: true,
		Customer:       &crm.OpResult{Success: true, CustomerID: "100"},
	}
	art := Artifacts{SnapshotPath: "/tmp/snap.png", PhotoPaths: []string{"a.jpg", "b.jpg"}}

	html, err := renderStaffEmail(buildStaffEmailData(q, crmResult, art, "https://secure.copilotcrm.com", time.Now()))
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		"New Website Lead",
		"Jane Doe",
		"<li>Weekly Mowing</li>",
		`Gate:</strong> Yes (48&#34; wide)`,
		"1,500",
		"Ring the bell",
		"https://secure.copilotcrm.com/customers/details/100",
		`src="cid:map_snapshot.png"`,
		"Customer Photos (2)",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("staff email missing %q", want)
		}
	}
}

func TestRenderStaffEmail_SectionsAbsentWhenEmpty(t *testing.T) {
	q := &quote.Quote{Name: "X", Services: decodeServices(t, `{"mowing":true}`)}

	html, err := renderStaffEmail(buildStaffEmailData(q, crm.Result{}, Artifacts{}, "", time.Now()))
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, absent := range []string{
		"Property Details",
		"Customer Notes",
		"Added to Copilot",
		"Property Map",
		"Customer Photos",
		"Partner Services Only",
	} {
		if strings.Contains(html, absent) {
			t.Errorf("empty-source section %q must be omitted", absent)
		}
	}
}
