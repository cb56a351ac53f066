// Package sheets stores leads in the team's Google spreadsheet, either through
// an Apps Script web app or directly through the Sheets API.
package sheets

import (
	"time"

	"github.com/wolfman30/agency-leads/internal/leads"
)

// StatusNew is the internal status a freshly captured lead starts with.
const StatusNew = "new"

// Columns is the header row of the lead sheet, in column order.
var Columns = []string{
	"Timestamp",
	"Name",
	"Email",
	"Company",
	"Intent",
	"Stage",
	"Needs",
	"Message",
	"Source",
	"UTM_Content",
	"Status_Internal",
	"UTM_Source",
	"UTM_Medium",
	"UTM_Campaign",
	"User_Agent",
	"Country",
}

// Payload is the JSON document posted to the Apps Script web app. The script
// fills Timestamp and Status_Internal itself.
type Payload struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Company     string `json:"company"`
	Intent      string `json:"intent"`
	Stage       string `json:"stage"`
	Needs       string `json:"needs"`
	Message     string `json:"message"`
	PageSection string `json:"page_section"`
	CTALabel    string `json:"cta_label"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UserAgent   string `json:"user_agent"`
	Country     string `json:"country"`
}

// NewPayload maps a validated submission onto the sheet payload.
func NewPayload(sub leads.Submission, meta leads.RequestMeta) Payload {
	return Payload{
		Name:        sub.FullName,
		Email:       sub.Email,
		Company:     sub.Company,
		Intent:      string(sub.Intent),
		Stage:       string(sub.Stage),
		Needs:       sub.NeedsString(),
		Message:     sub.Message,
		PageSection: orDefault(sub.Tracking.PageSection, "unknown"),
		CTALabel:    orDefault(sub.Tracking.CTALabel, "direct"),
		UTMSource:   sub.Tracking.UTMSource,
		UTMMedium:   sub.Tracking.UTMMedium,
		UTMCampaign: sub.Tracking.UTMCampaign,
		UserAgent:   meta.UserAgent,
		Country:     meta.Country,
	}
}

// Row renders the payload as a full sheet row matching Columns.
func (p Payload) Row(at time.Time) []interface{} {
	return []interface{}{
		at.UTC().Format(time.RFC3339),
		p.Name,
		p.Email,
		p.Company,
		p.Intent,
		p.Stage,
		p.Needs,
		p.Message,
		p.PageSection,
		p.CTALabel,
		StatusNew,
		p.UTMSource,
		p.UTMMedium,
		p.UTMCampaign,
		p.UserAgent,
		p.Country,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
