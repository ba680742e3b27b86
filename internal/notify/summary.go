package notify

import (
	"fmt"
	"strings"

	"quotewidget_backend/internal/crm"
	"quotewidget_backend/internal/quote"
)

// yesNo renders a tri-state answer, treating "not asked" as No the way the
// staff channels always have.
func yesNo(v *bool) string {
	if v != nil && *v {
		return "Yes"
	}
	return "No"
}

// BuildChatSummary renders the chat-channel text: content-equivalent to the
// staff email, with contact info, services, partner flag, property condition
// flags (always explicit Yes/No), notes and CRM IDs.
func BuildChatSummary(q *quote.Quote, crmResult crm.Result, crmBaseURL string) string {
	var b strings.Builder

	b.WriteString("🌱 **New Quote Request**\n\n")
	b.WriteString(fmt.Sprintf("**Name:** %s\n", orNA(q.Name)))
	b.WriteString(fmt.Sprintf("**Email:** %s\n", orNA(q.Email)))
	b.WriteString(fmt.Sprintf("**Phone:** %s\n", orNA(q.Phone)))
	b.WriteString(fmt.Sprintf("**Address:** %s\n", orNA(q.Address)))

	if q.ReferralSource != "" {
		b.WriteString(fmt.Sprintf("**Heard about us:** %s\n", q.ReferralSource))
	}

	b.WriteString("\n**Services**\n")
	labels := q.Services.Labels()
	if len(labels) == 0 {
		b.WriteString("• (none listed)\n")
	}
	for _, label := range labels {
		b.WriteString("• " + label + "\n")
	}
	if q.Services.IsPartnerOnly() {
		b.WriteString("⚠️ Partner services only — vendor pricing needed before estimate\n")
	}

	if area := q.LawnArea(); area > 0 {
		b.WriteString(fmt.Sprintf("**Lawn:** %s sq ft\n", quote.FormatArea(area)))
	}
	if !q.MulchSqft.IsZero() {
		line := fmt.Sprintf("**Mulch:** %s sq ft", quote.FormatArea(q.MulchSqft.Float()))
		if !q.MulchCuFt.IsZero() {
			line += fmt.Sprintf(" (%v cu ft)", q.MulchCuFt.Float())
		}
		if q.MulchColor != "" {
			line += fmt.Sprintf(", %s", q.MulchColor)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n**Property**\n")
	gate := yesNo(q.HasGate)
	if gate == "Yes" {
		if q.GateWidth != "" {
			gate += fmt.Sprintf(" (%s\" wide)", q.GateWidth)
		}
		if q.GateCode != "" {
			gate += fmt.Sprintf(" [code %s]", q.GateCode)
		}
	}
	b.WriteString(fmt.Sprintf("Gate: %s | Dogs: %s | Stairs: %s | Overgrown: %s\n",
		gate, yesNo(q.HasDog), yesNo(q.HasStairs), yesNo(q.IsOvergrown)))

	if notes := q.EffectiveNotes(); notes != "" {
		b.WriteString("\n**Notes**\n" + notes + "\n")
	}

	if id := crmResult.CustomerID(); id != "" {
		b.WriteString(fmt.Sprintf("\n✅ Copilot customer: %s/customers/details/%s",
			strings.TrimRight(crmBaseURL, "/"), id))
		if pid := crmResult.PropertyID(); pid != "" {
			b.WriteString(fmt.Sprintf(" (property %s)", pid))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// BuildWakeSummary is the one-line nudge sent to the automation agent.
func BuildWakeSummary(q *quote.Quote) string {
	summary := q.Services.Summary()
	if summary == "" {
		summary = "no services listed"
	}
	return fmt.Sprintf("New quote request from %s (%s): %s", orNA(q.Name), orNA(q.Address), summary)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
