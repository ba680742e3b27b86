package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"quotewidget_backend/internal/crm"
	"quotewidget_backend/internal/quote"
)

//go:embed templates/*.html
var templateFS embed.FS

type staffEmailData struct {
	Name      string
	Timestamp string
	Email     string
	Phone     string
	Address   string

	Services    []string
	PartnerOnly bool

	HasFlags  bool
	Gate      string
	Dogs      string
	Overgrown string
	Stairs    string

	LawnSqft  string
	MulchSqft string
	MulchCuFt string

	Notes string

	CrmCustomerID  string
	CrmCustomerURL string
	CrmPropertyID  string

	HasSnapshot bool
	PhotoCount  int
}

// denverTime renders the submission time in the business's local timezone.
func denverTime(t time.Time) string {
	loc, err := time.LoadLocation("America/Denver")
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format("Jan 2, 2006, 3:04 PM")
}

func buildStaffEmailData(q *quote.Quote, crmResult crm.Result, art Artifacts, crmBaseURL string, now time.Time) staffEmailData {
	data := staffEmailData{
		Name:        orNA(q.Name),
		Timestamp:   denverTime(q.SubmittedAt(now)),
		Email:       q.Email,
		Phone:       q.Phone,
		Address:     q.Address,
		Services:    q.Services.Labels(),
		PartnerOnly: q.Services.IsPartnerOnly(),
		Notes:       q.EffectiveNotes(),
		HasSnapshot: art.SnapshotPath != "",
		PhotoCount:  len(art.PhotoPaths),
	}

	data.HasFlags = q.HasGate != nil || q.HasDog != nil || q.IsOvergrown != nil || q.HasStairs != nil
	if data.HasFlags {
		data.Gate = yesNo(q.HasGate)
		if data.Gate == "Yes" {
			if q.GateWidth != "" {
				data.Gate += fmt.Sprintf(" (%s\" wide)", q.GateWidth)
			}
			if q.GateCode != "" {
				data.Gate += fmt.Sprintf(" — Code: %s", q.GateCode)
			}
		}
		data.Dogs = yesNo(q.HasDog)
		data.Overgrown = yesNo(q.IsOvergrown)
		if data.Overgrown == "Yes" && q.GrassHeight != "" {
			data.Overgrown += fmt.Sprintf(" (~%s\" tall)", q.GrassHeight)
		}
		data.Stairs = yesNo(q.HasStairs)
	}

	if area := q.LawnArea(); area > 0 {
		data.LawnSqft = quote.FormatArea(area)
	}
	if !q.MulchSqft.IsZero() {
		data.MulchSqft = quote.FormatArea(q.MulchSqft.Float())
		if !q.MulchCuFt.IsZero() {
			data.MulchCuFt = fmt.Sprintf("%v", q.MulchCuFt.Float())
		}
	}

	if id := crmResult.CustomerID(); id != "" {
		data.CrmCustomerID = id
		data.CrmCustomerURL = crmBaseURL + "/customers/details/" + id
		data.CrmPropertyID = crmResult.PropertyID()
	}

	return data
}

func renderStaffEmail(data staffEmailData) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/staff_notification.html")
	if err != nil {
		return "", fmt.Errorf("parse staff email template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute staff email template: %w", err)
	}
	return buf.String(), nil
}
