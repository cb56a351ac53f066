package leads

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/agency-leads/internal/observability/metrics"
	"github.com/wolfman30/agency-leads/internal/ratelimit"
	"github.com/wolfman30/agency-leads/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultCooldown    = 60 * time.Second
	defaultSinkTimeout = 10 * time.Second
)

var submitTracer = otel.Tracer("agency.internal.leads.service")

// EventTracker receives accepted leads for analytics. Calls are fire and forget.
type EventTracker interface {
	TrackLead(ctx context.Context, sub Submission, meta RequestMeta)
}

// ServiceConfig wires the submission pipeline.
type ServiceConfig struct {
	Limiter     ratelimit.Limiter
	Validator   *Validator
	Sinks       []Sink
	Tracker     EventTracker
	Metrics     *metrics.LeadMetrics
	SinkTimeout time.Duration
	Logger      *logging.Logger
}

// Service runs a submission from rate check to reconciled result.
type Service struct {
	limiter     ratelimit.Limiter
	validator   *Validator
	sinks       []Sink
	tracker     EventTracker
	metrics     *metrics.LeadMetrics
	sinkTimeout time.Duration
	logger      *logging.Logger
}

// NewService creates a submission service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.NewMemoryStore(defaultCooldown)
	}
	if cfg.Validator == nil {
		cfg.Validator = NewValidator()
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = defaultSinkTimeout
	}
	return &Service{
		limiter:     cfg.Limiter,
		validator:   cfg.Validator,
		sinks:       cfg.Sinks,
		tracker:     cfg.Tracker,
		metrics:     cfg.Metrics,
		sinkTimeout: cfg.SinkTimeout,
		logger:      cfg.Logger,
	}
}

// Result is a reconciled submission.
type Result struct {
	SubmissionID string
	Outcomes     []Outcome
}

// Outcome returns the settled outcome for the named sink.
func (r *Result) Outcome(sink string) (Outcome, bool) {
	if r == nil {
		return Outcome{}, false
	}
	for _, o := range r.Outcomes {
		if o.Sink == sink {
			return o, true
		}
	}
	return Outcome{}, false
}

// Delivered reports whether the named sink accepted the lead.
func (r *Result) Delivered(sink string) bool {
	o, ok := r.Outcome(sink)
	return ok && o.Delivered()
}

// Partial reports whether at least one sink did not deliver.
func (r *Result) Partial() bool {
	for _, o := range r.Outcomes {
		if !o.Delivered() {
			return true
		}
	}
	return false
}

// Submit checks sink readiness, rate-limits, spam-checks, validates and fans
// the lead out to every sink. It fails with ErrRateLimited, ErrServiceMisconfigured, ErrInvalidBody,
// ErrSpamDetected, *ValidationError or ErrDeliveryFailed; any delivered sink
// makes the submission succeed.
func (s *Service) Submit(ctx context.Context, body []byte, meta RequestMeta) (*Result, error) {
	ctx, span := submitTracer.Start(ctx, "leads.submit")
	defer span.End()

	if meta.ReceivedAt.IsZero() {
		meta.ReceivedAt = time.Now().UTC()
	}

	// Readiness is deployment state; checking it first keeps a broken deploy
	// from spending every client's cooldown.
	for _, sink := range s.sinks {
		if req, ok := sink.(RequiredSink); ok && !req.Ready() {
			s.logger.Error("required sink not configured", "sink", sink.Name())
			s.finish(span, metrics.OutcomeMisconfigured, ErrServiceMisconfigured)
			return nil, ErrServiceMisconfigured
		}
	}

	if !s.limiter.Allow(ctx, meta.ClientID) {
		s.logger.Info("lead rate limited", "client_id", meta.ClientID)
		s.finish(span, metrics.OutcomeRateLimited, ErrRateLimited)
		return nil, ErrRateLimited
	}

	raw, err := ParseRaw(body)
	if err != nil {
		s.finish(span, metrics.OutcomeInvalid, err)
		return nil, err
	}

	if raw.Honeypot() {
		s.logger.Info("honeypot triggered, dropping submission", "client_id", meta.ClientID)
		s.finish(span, metrics.OutcomeSpam, nil)
		return nil, ErrSpamDetected
	}

	sub, err := s.validator.Validate(raw)
	if err != nil {
		s.logger.Info("lead validation failed", "client_id", meta.ClientID, "error", err)
		s.finish(span, metrics.OutcomeInvalid, err)
		return nil, err
	}
	sub.ID = uuid.NewString()
	span.SetAttributes(
		attribute.String("leads.submission_id", sub.ID),
		attribute.String("leads.intent", string(sub.Intent)),
	)
	s.logger.Info("processing lead submission", "submission_id", sub.ID, "intent", sub.Intent, "client_id", meta.ClientID)

	// Deliveries outlive a disconnected client; each is bounded by the sink timeout.
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sinkTimeout)
	defer cancel()
	outcomes := settleAll(dctx, s.sinks, sub, meta)

	result := &Result{SubmissionID: sub.ID, Outcomes: outcomes}
	delivered := 0
	for _, o := range outcomes {
		s.metrics.ObserveDelivery(o.Sink, string(o.Status), o.Duration.Seconds())
		span.SetAttributes(attribute.String("leads.sink."+o.Sink, string(o.Status)))
		switch o.Status {
		case StatusDelivered:
			delivered++
			s.logger.Info("lead delivered", "submission_id", sub.ID, "sink", o.Sink, "message_id", o.MessageID)
		case StatusSkipped:
			s.logger.Info("lead sink skipped", "submission_id", sub.ID, "sink", o.Sink, "reason", o.Err)
		default:
			s.logger.Warn("lead sink failed", "submission_id", sub.ID, "sink", o.Sink, "error", o.Err)
		}
	}

	if delivered == 0 {
		s.logger.Error("lead delivery failed on every sink", "submission_id", sub.ID, "error", errors.Join(sinkErrors(outcomes)...))
		s.finish(span, metrics.OutcomeFailed, ErrDeliveryFailed)
		return result, ErrDeliveryFailed
	}

	outcome := metrics.OutcomeSuccess
	if result.Partial() {
		outcome = metrics.OutcomePartial
	}
	s.finish(span, outcome, nil)

	if s.tracker != nil {
		go s.tracker.TrackLead(context.WithoutCancel(ctx), sub, meta)
	}
	return result, nil
}

func (s *Service) finish(span trace.Span, outcome string, err error) {
	s.metrics.ObserveSubmission(outcome)
	span.SetAttributes(attribute.String("leads.outcome", outcome))
	if err != nil && outcome == metrics.OutcomeFailed {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
}

func sinkErrors(outcomes []Outcome) []error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}
