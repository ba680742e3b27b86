package crm

import (
	"fmt"
	"strings"
	"time"

	"quotewidget_backend/internal/quote"
)

var mulchColorNames = map[string]string{
	"red":   "Red",
	"black": "Black",
	"brown": "Brown",
}

var mowingFrequencyNames = map[string]string{
	"weekly":   "Weekly",
	"biweekly": "Bi-Weekly",
	"onetime":  "One-Time",
}

// BuildCustomerNotes renders the customer-level note: services headline
// first, then the measurements summary, the customer's own notes, the
// consent flag and the submission date. This is what staff see when they
// open the customer record, so the service list leads.
func BuildCustomerNotes(q *quote.Quote, submittedAt time.Time) string {
	var lines []string

	if services := q.Services.Summary(); services != "" {
		lines = append(lines, fmt.Sprintf("🎯 Services Requested: %s", services))
		lines = append(lines, "")
	}

	if area := q.LawnArea(); area > 0 {
		lines = append(lines, fmt.Sprintf("📐 Lawn: %s sq ft", quote.FormatArea(area)))
	}
	if !q.MulchSqft.IsZero() {
		line := fmt.Sprintf("🌿 Mulch: %s sq ft", quote.FormatArea(q.MulchSqft.Float()))
		if q.MulchColor != "" {
			line += fmt.Sprintf(" (%s)", q.MulchColor)
		}
		lines = append(lines, line)
	}
	if len(lines) > 1 {
		lines = append(lines, "")
	}

	if notes := q.EffectiveNotes(); notes != "" {
		lines = append(lines, fmt.Sprintf("📝 Customer Notes: %s", notes))
		lines = append(lines, "")
	}

	if q.SMSConsent {
		lines = append(lines, "SMS/Email consent: ✓")
	}

	lines = append(lines, fmt.Sprintf("Quote submitted: %s", submittedAt.Format("1/2/2006")))

	return strings.Join(lines, "\n")
}

// BuildPropertyNotes renders the property-level note: service specifics,
// measurements, access and condition flags with an explicit Yes/No whenever
// the customer answered, and the free-text notes last. Distinct from the
// customer note by emphasis, not just layout.
func BuildPropertyNotes(q *quote.Quote) string {
	lines := []string{fmt.Sprintf("Services: %s", q.Services.Summary())}

	if q.MowingType != "" && q.Services.Has("mowing") {
		freq := q.MowingType
		if named, ok := mowingFrequencyNames[q.MowingType]; ok {
			freq = named
		}
		lines = append(lines, fmt.Sprintf("Mowing frequency: %s", freq))
	}

	if !q.LawnSqft.IsZero() {
		lines = append(lines, fmt.Sprintf("Lawn size: %s sq ft", quote.FormatArea(q.LawnSqft.Float())))
	}
	if !q.MulchSqft.IsZero() {
		lines = append(lines, fmt.Sprintf("Mulch area: %s sq ft", quote.FormatArea(q.MulchSqft.Float())))
		if !q.MulchCuYard.IsZero() {
			lines = append(lines, fmt.Sprintf("Mulch volume: %v cu yards", q.MulchCuYard.Float()))
		}
	}
	if q.MulchColor != "" {
		color := q.MulchColor
		if named, ok := mulchColorNames[q.MulchColor]; ok {
			color = named
		}
		lines = append(lines, fmt.Sprintf("Mulch color: %s", color))
	}

	if q.HasGate != nil {
		if *q.HasGate {
			gate := "Gate: Yes"
			if q.GateWidth != "" {
				gate += fmt.Sprintf(" (%s\" wide)", q.GateWidth)
			}
			if q.GateCode != "" {
				gate += fmt.Sprintf(" [Code: %s]", q.GateCode)
			}
			lines = append(lines, gate)
		} else {
			lines = append(lines, "Gate: No")
		}
	}

	if q.HasStairs != nil {
		if *q.HasStairs {
			lines = append(lines, "Stairs to backyard: Yes")
		} else {
			lines = append(lines, "Stairs to backyard: No")
		}
	}

	if q.HasDog != nil {
		if *q.HasDog {
			lines = append(lines, "Dogs: Yes ⚠️")
		} else {
			lines = append(lines, "Dogs: No")
		}
	}

	if q.IsOvergrown != nil {
		if *q.IsOvergrown {
			overgrown := "Lawn condition: OVERGROWN ⚠️"
			if q.GrassHeight != "" {
				overgrown += fmt.Sprintf(" (%s)", q.GrassHeight)
			}
			lines = append(lines, overgrown)
		} else {
			lines = append(lines, "Lawn condition: Normal")
		}
	}

	if notes := q.EffectiveNotes(); notes != "" {
		lines = append(lines, fmt.Sprintf("\nCustomer notes:\n%s", notes))
	}

	return strings.Join(lines, "\n")
}
