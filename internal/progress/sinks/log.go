// Package sinks provides the built-in progress sinks: structured logging,
// colored console rendering, and Prometheus counters.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/mjfield/edgewarm/internal/progress"
)

// LogSink emits structured logs for the progress stream. Useful during
// development or when no console is attached.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event using structured fields.
func (s *LogSink) Consume(_ context.Context, evt progress.Event) error {
	s.logger.Info("progress event",
		zap.String("run_id", evt.RunID.String()),
		zap.String("stage", string(evt.Stage)),
		zap.String("domain", evt.Domain),
		zap.String("url", evt.URL),
		zap.String("location", evt.LocationCode),
		zap.String("phase", evt.Phase),
		zap.Int("pass", evt.Pass),
		zap.Int("attempt", evt.Attempt),
		zap.Bool("success", evt.Success),
		zap.Int("status_code", evt.StatusCode),
		zap.String("failure", evt.Failure),
		zap.Duration("latency", evt.Latency),
		zap.Int("completed", evt.Completed),
		zap.Int("total", evt.Total),
		zap.String("note", evt.Note),
	)
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
