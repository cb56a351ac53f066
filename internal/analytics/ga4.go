// Package analytics reports captured leads to Google Analytics 4 through the
// Measurement Protocol.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/agency-leads/internal/leads"
	"github.com/wolfman30/agency-leads/pkg/logging"
)

const (
	defaultCollectURL = "https://www.google-analytics.com/mp/collect"
	leadEventName     = "generate_lead"
)

// GA4Config holds Measurement Protocol credentials.
type GA4Config struct {
	MeasurementID string
	APISecret     string
	// CollectURL overrides the collection endpoint (debug endpoint, tests).
	CollectURL string
}

// GA4Client sends server-side lead events.
type GA4Client struct {
	measurementID string
	apiSecret     string
	collectURL    string
	httpClient    *http.Client
	logger        *logging.Logger
}

// NewGA4Client returns nil when the measurement id or api secret is missing.
func NewGA4Client(cfg GA4Config, httpClient *http.Client, logger *logging.Logger) *GA4Client {
	if cfg.MeasurementID == "" || cfg.APISecret == "" {
		return nil
	}
	if cfg.CollectURL == "" {
		cfg.CollectURL = defaultCollectURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &GA4Client{
		measurementID: cfg.MeasurementID,
		apiSecret:     cfg.APISecret,
		collectURL:    cfg.CollectURL,
		httpClient:    httpClient,
		logger:        logger,
	}
}

type mpEvent struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
}

type mpPayload struct {
	ClientID string    `json:"client_id"`
	Events   []mpEvent `json:"events"`
}

// TrackLead records a generate_lead event. Errors are logged and swallowed so
// analytics never affects the submission result.
func (c *GA4Client) TrackLead(ctx context.Context, sub leads.Submission, meta leads.RequestMeta) {
	if c == nil {
		return
	}
	if err := c.send(ctx, sub); err != nil {
		c.logger.Warn("ga4 lead event failed", "error", err, "submission_id", sub.ID)
		return
	}
	c.logger.Debug("ga4 lead event sent", "submission_id", sub.ID)
}

func (c *GA4Client) send(ctx context.Context, sub leads.Submission) error {
	payload := mpPayload{
		ClientID: uuid.NewString(),
		Events: []mpEvent{{
			Name: leadEventName,
			Params: map[string]any{
				"intent":       string(sub.Intent),
				"stage":        string(sub.Stage),
				"page_section": orDefault(sub.Tracking.PageSection, "unknown"),
				"cta_label":    orDefault(sub.Tracking.CTALabel, "direct"),
				"language":     string(sub.Language),
			},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("analytics: encode event: %w", err)
	}

	q := url.Values{}
	q.Set("measurement_id", c.measurementID)
	q.Set("api_secret", c.apiSecret)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.collectURL+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("analytics: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("analytics: post event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("analytics: collect returned status %d", resp.StatusCode)
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

var _ leads.EventTracker = (*GA4Client)(nil)
