package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/agency-leads/internal/leads"
	"github.com/wolfman30/agency-leads/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

var apiTracer = otel.Tracer("agency.internal.sheets.api")

// APIConfig selects the spreadsheet and range leads are appended to.
type APIConfig struct {
	SpreadsheetID string
	Range         string
}

// APIStore appends leads straight to a spreadsheet through the Sheets API.
type APIStore struct {
	values        *sheetsapi.SpreadsheetsValuesService
	spreadsheetID string
	rng           string
	now           func() time.Time
	logger        *logging.Logger
}

// NewAPIStore builds a Sheets API client with opts (credentials, endpoint).
// No client is created when SpreadsheetID is empty.
func NewAPIStore(ctx context.Context, cfg APIConfig, logger *logging.Logger, opts ...option.ClientOption) (*APIStore, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Range == "" {
		cfg.Range = "Leads!A1"
	}
	store := &APIStore{
		spreadsheetID: cfg.SpreadsheetID,
		rng:           cfg.Range,
		now:           time.Now,
		logger:        logger,
	}
	if cfg.SpreadsheetID == "" {
		return store, nil
	}

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	store.values = svc.Spreadsheets.Values
	return store, nil
}

func (s *APIStore) Name() string { return leads.SinkSheets }

// Deliver appends one row with the full column set.
func (s *APIStore) Deliver(ctx context.Context, sub leads.Submission, meta leads.RequestMeta) (leads.Receipt, error) {
	if s.spreadsheetID == "" || s.values == nil {
		return leads.Receipt{}, leads.NewSinkError(leads.SinkSheets, leads.ErrSinkNotConfigured, 0, "")
	}

	ctx, span := apiTracer.Start(ctx, "sheets.api.append")
	defer span.End()
	span.SetAttributes(
		attribute.String("agency.submission_id", sub.ID),
		attribute.String("sheets.range", s.rng),
	)

	at := meta.ReceivedAt
	if at.IsZero() {
		at = s.now()
	}
	vr := &sheetsapi.ValueRange{
		Values: [][]interface{}{NewPayload(sub, meta).Row(at)},
	}

	resp, err := s.values.Append(s.spreadsheetID, s.rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		span.RecordError(err)
		s.logger.Error("sheets api append failed", "error", err, "submission_id", sub.ID)
		status := 0
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			status = gerr.Code
		}
		return leads.Receipt{}, leads.NewSinkError(leads.SinkSheets, leads.ErrSinkRemoteFailure, status, "append failed")
	}

	var updated string
	if resp.Updates != nil {
		updated = resp.Updates.UpdatedRange
	}
	s.logger.Info("lead appended to sheet", "submission_id", sub.ID, "range", updated)
	return leads.Receipt{}, nil
}

var _ leads.Sink = (*APIStore)(nil)
