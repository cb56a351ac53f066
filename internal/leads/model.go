package leads

import (
	"strings"
	"time"
)

// Stage describes how soon the prospect wants to start.
type Stage string

const (
	StageExploring Stage = "exploring"
	StageReady     Stage = "ready"
	StageUrgent    Stage = "urgent"
)

// Need is a service tag selected on the form.
type Need string

const (
	NeedWebDesign  Need = "web-design"
	NeedWebDev     Need = "web-dev"
	NeedAIStrategy Need = "ai-strategy"
	NeedSEO        Need = "seo"
	NeedEcommerce  Need = "ecommerce"
	NeedOther      Need = "other"
)

// AllNeeds lists the service tags in display order.
var AllNeeds = []Need{NeedWebDesign, NeedWebDev, NeedAIStrategy, NeedSEO, NeedEcommerce, NeedOther}

// Intent is derived from the form type the visitor opened.
type Intent string

const (
	IntentAnalyzeProject Intent = "analyze_project"
	IntentConversation   Intent = "conversation"
)

// Language is the visitor's UI language.
type Language string

const (
	LanguageEN Language = "en"
	LanguageES Language = "es"
)

// Tracking holds display-only provenance sent by the browser. It is attacker
// controlled and never used for decisions.
type Tracking struct {
	PageSection string
	CTALabel    string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
}

// Submission is a validated, normalized lead. It lives for one request.
type Submission struct {
	ID       string
	FullName string
	Email    string
	Company  string
	Stage    Stage
	Needs    []Need
	Intent   Intent
	Message  string
	Language Language
	Tracking Tracking
}

// NeedsString joins needs in submission order with ", ".
func (s Submission) NeedsString() string {
	parts := make([]string, len(s.Needs))
	for i, n := range s.Needs {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}

// FormType maps the intent back to the form type the client posted.
func (s Submission) FormType() string {
	if s.Intent == IntentAnalyzeProject {
		return "analyze"
	}
	return "conversation"
}

// RequestMeta is request provenance taken from headers, not the body.
type RequestMeta struct {
	ClientID   string
	UserAgent  string
	Country    string
	ReceivedAt time.Time
}
