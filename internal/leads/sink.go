package leads

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Sink names used in responses and metrics.
const (
	SinkEmail  = "email"
	SinkSheets = "sheets"
)

// Receipt is what a sink returns on delivery.
type Receipt struct {
	// MessageID is the provider id, when the provider hands one back.
	MessageID string
}

// Sink delivers a lead to one external system.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, sub Submission, meta RequestMeta) (Receipt, error)
}

// RequiredSink is implemented by sinks the endpoint cannot run without.
type RequiredSink interface {
	Sink
	Ready() bool
}

// DeliveryStatus is the settled state of one sink.
type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "delivered"
	StatusSkipped   DeliveryStatus = "skipped"
	StatusFailed    DeliveryStatus = "failed"
)

// Outcome is a settled sink attempt. Err is for logs only.
type Outcome struct {
	Sink      string
	Status    DeliveryStatus
	MessageID string
	Err       error
	Duration  time.Duration
}

// Delivered reports whether the sink accepted the lead.
func (o Outcome) Delivered() bool { return o.Status == StatusDelivered }

// settleAll runs every sink concurrently and waits for all of them. A failing
// or panicking sink never stops the others.
func settleAll(ctx context.Context, sinks []Sink, sub Submission, meta RequestMeta) []Outcome {
	outcomes := make([]Outcome, len(sinks))
	var wg sync.WaitGroup
	for i, sink := range sinks {
		wg.Add(1)
		go func(i int, sink Sink) {
			defer wg.Done()
			outcomes[i] = attempt(ctx, sink, sub, meta)
		}(i, sink)
	}
	wg.Wait()
	return outcomes
}

func attempt(ctx context.Context, sink Sink, sub Submission, meta RequestMeta) (out Outcome) {
	start := time.Now()
	out.Sink = sink.Name()
	defer func() {
		if r := recover(); r != nil {
			out.Status = StatusFailed
			out.Err = NewSinkError(out.Sink, ErrSinkRemoteFailure, 0, fmt.Sprintf("panic: %v", r))
		}
		out.Duration = time.Since(start)
	}()

	receipt, err := sink.Deliver(ctx, sub, meta)
	switch {
	case err == nil:
		out.Status = StatusDelivered
		out.MessageID = receipt.MessageID
	case errors.Is(err, ErrSinkNotConfigured):
		out.Status = StatusSkipped
		out.Err = err
	default:
		out.Status = StatusFailed
		out.Err = err
	}
	return out
}
