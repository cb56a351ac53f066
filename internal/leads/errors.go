package leads

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrRateLimited is returned when the client is still in cooldown.
	ErrRateLimited = errors.New("leads: too many requests")

	// ErrSpamDetected marks a honeypot hit. Callers report it as success.
	ErrSpamDetected = errors.New("leads: spam detected")

	// ErrInvalidBody is returned when the body is not a JSON object.
	ErrInvalidBody = errors.New("leads: invalid request body")

	// ErrServiceMisconfigured is returned when a required sink has no provider.
	ErrServiceMisconfigured = errors.New("leads: service not configured")

	// ErrDeliveryFailed is returned when no sink delivered the lead.
	ErrDeliveryFailed = errors.New("leads: delivery failed on every sink")

	// ErrSinkNotConfigured is a benign skip for optional sinks.
	ErrSinkNotConfigured = errors.New("leads: sink not configured")

	// ErrSinkMisconfigured means the sink configuration is present but unusable.
	ErrSinkMisconfigured = errors.New("leads: sink misconfigured")

	// ErrSinkRemoteFailure means the upstream rejected or failed the delivery.
	ErrSinkRemoteFailure = errors.New("leads: sink remote failure")
)

// ValidationError carries one message per offending field, keyed by the
// field's JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "leads: invalid submission: " + strings.Join(parts, "; ")
}

// SinkError is the structured failure a sink reports. Detail is safe to log
// but is never sent to clients.
type SinkError struct {
	Sink       string
	Kind       error
	StatusCode int
	Detail     string
}

func (e *SinkError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Sink, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *SinkError) Unwrap() error { return e.Kind }

// NewSinkError builds a SinkError of the given kind.
func NewSinkError(sink string, kind error, status int, detail string) *SinkError {
	return &SinkError{Sink: sink, Kind: kind, StatusCode: status, Detail: detail}
}
