package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/agency-leads/internal/leads"
	"github.com/wolfman30/agency-leads/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var webhookTracer = otel.Tracer("agency.internal.sheets.webhook")

const maxResponseBytes = 64 << 10

// WebhookStore posts leads to a Google Apps Script web app.
type WebhookStore struct {
	url        string
	httpClient *http.Client
	logger     *logging.Logger
}

// WebhookOption configures a WebhookStore.
type WebhookOption func(*WebhookStore)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(s *WebhookStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) WebhookOption {
	return func(s *WebhookStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewWebhookStore creates a store for the given web app URL. An empty URL is
// allowed: the store then reports itself as not configured on every delivery.
func NewWebhookStore(url string, opts ...WebhookOption) *WebhookStore {
	s := &WebhookStore{
		url:        strings.TrimSpace(url),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WebhookStore) Name() string { return leads.SinkSheets }

// ValidURL reports whether url looks like a deployed Apps Script web app.
func ValidURL(url string) bool {
	return strings.Contains(url, "script.google.com") && strings.HasSuffix(url, "/exec")
}

type webhookResult struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// Deliver posts the lead payload once. The URL shape is checked before any
// network call.
func (s *WebhookStore) Deliver(ctx context.Context, sub leads.Submission, meta leads.RequestMeta) (leads.Receipt, error) {
	if s.url == "" {
		s.logger.Warn("sheets webhook url not configured, skipping", "submission_id", sub.ID)
		return leads.Receipt{}, leads.NewSinkError(leads.SinkSheets, leads.ErrSinkNotConfigured, 0, "")
	}
	if !ValidURL(s.url) {
		s.logger.Error("sheets webhook url has invalid format", "submission_id", sub.ID)
		return leads.Receipt{}, leads.NewSinkError(leads.SinkSheets, leads.ErrSinkMisconfigured, 0, "invalid web app url")
	}

	ctx, span := webhookTracer.Start(ctx, "sheets.webhook.append")
	defer span.End()
	span.SetAttributes(attribute.String("agency.submission_id", sub.ID))

	body, err := json.Marshal(NewPayload(sub, meta))
	if err != nil {
		span.RecordError(err)
		return leads.Receipt{}, leads.NewSinkError(leads.SinkSheets, leads.ErrSinkMisconfigured, 0, "encode payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		return leads.Receipt{}, leads.NewSinkError(leads.SinkSheets, leads.ErrSinkMisconfigured, 0, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("sheets webhook request failed", "error", err, "submission_id", sub.ID)
		detail := "request failed"
		if errors.Is(err, context.DeadlineExceeded) {
			detail = "request timed out"
		}
		return leads.Receipt{}, leads.NewSinkError(leads.SinkSheets, leads.ErrSinkRemoteFailure, 0, detail)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Error("sheets webhook returned error status", "status", resp.StatusCode, "body", string(respBody), "submission_id", sub.ID)
		return leads.Receipt{}, leads.NewSinkError(leads.SinkSheets, leads.ErrSinkRemoteFailure, resp.StatusCode, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	var result webhookResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		s.logger.Error("sheets webhook returned non-json body", "error", err, "submission_id", sub.ID)
		return leads.Receipt{}, leads.NewSinkError(leads.SinkSheets, leads.ErrSinkRemoteFailure, resp.StatusCode, "non-json response")
	}
	if result.Success != nil && !*result.Success {
		s.logger.Error("sheets webhook reported failure", "script_error", result.Error, "submission_id", sub.ID)
		return leads.Receipt{}, leads.NewSinkError(leads.SinkSheets, leads.ErrSinkRemoteFailure, resp.StatusCode, "script reported failure")
	}

	s.logger.Info("lead saved to sheet", "submission_id", sub.ID)
	return leads.Receipt{}, nil
}

var _ leads.Sink = (*WebhookStore)(nil)
