package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/wolfman30/agency-leads/internal/leads"
	"github.com/wolfman30/agency-leads/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var leadEmailTracer = otel.Tracer("agency.internal.notify.lead_email")

// html/template escapes every interpolated value for its context, so lead
// text can never inject markup into the admin mailbox.
var leadHTMLTemplate = htmltemplate.Must(htmltemplate.New("lead_html").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <style>
      body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
      .container { max-width: 600px; margin: 0 auto; padding: 20px; }
      .header { background: #0066FF; color: white; padding: 20px; border-radius: 8px 8px 0 0; }
      .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 8px 8px; }
      .field { margin-bottom: 20px; }
      .label { font-weight: bold; color: #0066FF; margin-bottom: 5px; }
      .message-box { background: white; padding: 15px; border-left: 4px solid #0066FF; border-radius: 4px; white-space: pre-wrap; }
      .meta { font-size: 12px; color: #999; }
    </style>
  </head>
  <body>
    <div class="container">
      <div class="header"><h2>{{.IntentLabel}} - {{.L.NewLead}}</h2></div>
      <div class="content">
        <div class="field"><div class="label">{{.L.FullName}}</div><div>{{.FullName}}</div></div>
        <div class="field"><div class="label">{{.L.Email}}</div><div><a href="mailto:{{.Email}}">{{.Email}}</a></div></div>
        <div class="field"><div class="label">{{.L.Company}}</div><div>{{.Company}}</div></div>
        <div class="field"><div class="label">{{.L.Stage}}</div><div>{{.StageLabel}}</div></div>
        <div class="field"><div class="label">{{.L.Needs}}</div><div>{{.NeedsList}}</div></div>
        {{if .Message}}<div class="field"><div class="label">{{.L.Message}}</div><div class="message-box">{{.Message}}</div></div>{{end}}
        <hr style="margin: 30px 0; border: none; border-top: 1px solid #ddd;">
        <div class="meta">
          <strong>{{.L.Tracking}}</strong><br>
          <strong>{{.L.Source}}</strong> {{.PageSection}}<br>
          <strong>{{.L.CTA}}</strong> {{.CTALabel}}<br>
          {{if .UTMSource}}<strong>UTM Source:</strong> {{.UTMSource}}<br>{{end}}
          {{if .UTMMedium}}<strong>UTM Medium:</strong> {{.UTMMedium}}<br>{{end}}
          {{if .UTMCampaign}}<strong>UTM Campaign:</strong> {{.UTMCampaign}}<br>{{end}}
          {{if .Country}}<strong>{{.L.Country}}</strong> {{.Country}}<br>{{end}}
          <strong>{{.L.Client}}</strong> {{.ClientID}}<br>
          <strong>{{.L.Language}}</strong> {{.Language}}<br>
          <strong>{{.L.FormType}}</strong> {{.FormType}}<br>
          <strong>{{.L.Date}}</strong> {{.ReceivedAt}}
        </div>
      </div>
    </div>
  </body>
</html>
`))

var leadTextTemplate = texttemplate.Must(texttemplate.New("lead_text").Parse(`{{.IntentLabel}} - {{.L.NewLead}}

{{.L.FullName}} {{.FullName}}
{{.L.Email}} {{.Email}}
{{.L.Company}} {{.Company}}
{{.L.Stage}} {{.StageLabel}}
{{.L.Needs}} {{.NeedsList}}
{{.L.Message}} {{if .Message}}{{.Message}}{{else}}{{.L.NoMessage}}{{end}}

{{.L.Source}} {{.PageSection}}
{{.L.CTA}} {{.CTALabel}}
{{.L.Client}} {{.ClientID}}
{{.L.Language}} {{.Language}}
{{.L.FormType}} {{.FormType}}
{{.L.Date}} {{.ReceivedAt}}
`))

type leadEmailView struct {
	L           labelSet
	IntentLabel string
	FullName    string
	Email       string
	Company     string
	StageLabel  string
	NeedsList   string
	Message     string
	PageSection string
	CTALabel    string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	Country     string
	ClientID    string
	Language    string
	FormType    string
	ReceivedAt  string
}

func newLeadEmailView(sub leads.Submission, meta leads.RequestMeta) leadEmailView {
	l := labelsFor(sub.Language)
	needs := make([]string, len(sub.Needs))
	for i, n := range sub.Needs {
		needs[i] = l.ServiceNeeds[n]
	}
	received := meta.ReceivedAt
	if received.IsZero() {
		received = time.Now()
	}
	return leadEmailView{
		L:           l,
		IntentLabel: l.Intent[sub.Intent],
		FullName:    sub.FullName,
		Email:       sub.Email,
		Company:     sub.Company,
		StageLabel:  l.Stages[sub.Stage],
		NeedsList:   strings.Join(needs, ", "),
		Message:     sub.Message,
		PageSection: orDefault(sub.Tracking.PageSection, "unknown"),
		CTALabel:    orDefault(sub.Tracking.CTALabel, "direct"),
		UTMSource:   sub.Tracking.UTMSource,
		UTMMedium:   sub.Tracking.UTMMedium,
		UTMCampaign: sub.Tracking.UTMCampaign,
		Country:     meta.Country,
		ClientID:    meta.ClientID,
		Language:    string(sub.Language),
		FormType:    sub.FormType(),
		ReceivedAt:  received.UTC().Format(time.RFC1123),
	}
}

// RenderLeadEmail builds the admin notification for a lead. User text in the
// HTML part is escaped by the template engine.
func RenderLeadEmail(sub leads.Submission, meta leads.RequestMeta) (EmailMessage, error) {
	view := newLeadEmailView(sub, meta)

	var html bytes.Buffer
	if err := leadHTMLTemplate.Execute(&html, view); err != nil {
		return EmailMessage{}, fmt.Errorf("notify: render lead html: %w", err)
	}
	var text bytes.Buffer
	if err := leadTextTemplate.Execute(&text, view); err != nil {
		return EmailMessage{}, fmt.Errorf("notify: render lead text: %w", err)
	}

	return EmailMessage{
		Subject:     singleLine(fmt.Sprintf("%s - %s (%s)", view.IntentLabel, sub.Company, sub.FullName)),
		Body:        text.String(),
		HTML:        html.String(),
		ReplyTo:     sub.Email,
		ReplyToName: singleLine(sub.FullName),
	}, nil
}

// LeadNotifierConfig holds the admin mailbox the notifier writes to.
type LeadNotifierConfig struct {
	AdminEmail string
	AdminName  string
	Provider   string
}

// LeadNotifier is the email sink of the submission pipeline.
type LeadNotifier struct {
	sender   EmailSender
	to       string
	toName   string
	provider string
	logger   *logging.Logger
}

// NewLeadNotifier wraps sender as a lead sink. A nil sender yields a notifier
// that is not Ready.
func NewLeadNotifier(sender EmailSender, cfg LeadNotifierConfig, logger *logging.Logger) *LeadNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Provider == "" {
		cfg.Provider = "email"
	}
	return &LeadNotifier{
		sender:   sender,
		to:       cfg.AdminEmail,
		toName:   cfg.AdminName,
		provider: cfg.Provider,
		logger:   logger,
	}
}

func (n *LeadNotifier) Name() string { return leads.SinkEmail }

// Ready reports whether an email provider is configured.
func (n *LeadNotifier) Ready() bool { return n != nil && n.sender != nil }

// Deliver renders and sends the notification in a single attempt.
func (n *LeadNotifier) Deliver(ctx context.Context, sub leads.Submission, meta leads.RequestMeta) (leads.Receipt, error) {
	if !n.Ready() {
		return leads.Receipt{}, leads.NewSinkError(leads.SinkEmail, leads.ErrSinkMisconfigured, 0, "no email provider")
	}
	ctx, span := leadEmailTracer.Start(ctx, "notify.lead_email.send")
	defer span.End()
	span.SetAttributes(
		attribute.String("agency.submission_id", sub.ID),
		attribute.String("agency.email_provider", n.provider),
	)

	msg, err := RenderLeadEmail(sub, meta)
	if err != nil {
		span.RecordError(err)
		n.logger.Error("lead email render failed", "error", err, "submission_id", sub.ID)
		return leads.Receipt{}, leads.NewSinkError(leads.SinkEmail, leads.ErrSinkMisconfigured, 0, "render failed")
	}
	msg.To = n.to
	msg.ToName = n.toName

	id, err := n.sender.Send(ctx, msg)
	if err != nil {
		span.RecordError(err)
		status := 0
		var perr *ProviderError
		if errors.As(err, &perr) {
			status = perr.StatusCode
		}
		detail := n.provider + " send failed"
		if errors.Is(err, context.DeadlineExceeded) {
			detail = n.provider + " send timed out"
		}
		return leads.Receipt{}, leads.NewSinkError(leads.SinkEmail, leads.ErrSinkRemoteFailure, status, detail)
	}
	return leads.Receipt{MessageID: id}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var _ leads.RequiredSink = (*LeadNotifier)(nil)
