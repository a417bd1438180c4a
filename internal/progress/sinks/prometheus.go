package sinks

import (
	"context"

	"github.com/mjfield/edgewarm/internal/metrics"
	"github.com/mjfield/edgewarm/internal/progress"
)

// PrometheusSink translates progress events into Prometheus collectors.
type PrometheusSink struct{}

// NewPrometheusSink registers the collectors and returns the sink.
func NewPrometheusSink() *PrometheusSink {
	metrics.Init()
	return &PrometheusSink{}
}

// Consume updates the collectors for one event.
func (s *PrometheusSink) Consume(_ context.Context, evt progress.Event) error {
	switch evt.Stage {
	case progress.StageAttempt:
		metrics.ObserveAttempt(evt.LocationCode, evt.StatusCode)
	case progress.StageTargetDone:
		metrics.ObserveTarget(evt.LocationCode, evt.Success, evt.Latency)
	case progress.StageRunDone:
		metrics.ObserveRun(evt.Note)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
