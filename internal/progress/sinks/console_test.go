package sinks

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/mjfield/edgewarm/internal/progress"
	"github.com/mjfield/edgewarm/internal/warming"
)

func init() {
	// Force deterministic output regardless of the test environment's TTY.
	color.NoColor = true
}

func consume(t *testing.T, evt progress.Event) string {
	t.Helper()
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)
	require.NoError(t, sink.Consume(context.Background(), evt))
	return buf.String()
}

func TestConsoleSinkRendersSuccessLine(t *testing.T) {
	out := consume(t, progress.Event{
		Stage:        progress.StageTargetDone,
		URL:          "https://example.com/about",
		LocationName: "Sydney",
		Success:      true,
		Completed:    3,
		Total:        6,
	})

	require.Contains(t, out, "[ 50%]")
	require.Contains(t, out, "Sydney")
	require.Contains(t, out, "✓")
	require.Contains(t, out, "https://example.com/about")
	require.NotContains(t, out, "attempt")
}

func TestConsoleSinkRendersHTTPFailureDetail(t *testing.T) {
	out := consume(t, progress.Event{
		Stage:        progress.StageTargetDone,
		URL:          "https://example.com/broken",
		LocationName: "Melbourne",
		StatusCode:   503,
		Failure:      string(warming.FailureHTTPStatus),
		Attempt:      3,
		Completed:    6,
		Total:        6,
	})

	require.Contains(t, out, "[100%]")
	require.Contains(t, out, "✗ (HTTP 503)")
	require.Contains(t, out, "(attempt 3)")
}

func TestConsoleSinkRendersPriorityPass(t *testing.T) {
	out := consume(t, progress.Event{
		Stage:        progress.StageTargetDone,
		URL:          "https://example.com",
		LocationName: "Sydney",
		Success:      true,
		Phase:        string(warming.PhasePriority),
		Pass:         2,
		Completed:    1,
		Total:        10,
	})

	require.Contains(t, out, "[pass 2]")
}

func TestConsoleSinkRendersRunMilestones(t *testing.T) {
	require.Contains(t,
		consume(t, progress.Event{Stage: progress.StageDiscoveryDone, Domain: "https://example.com", URLCount: 12}),
		"discovered 12 URLs")
	require.Contains(t,
		consume(t, progress.Event{Stage: progress.StageWarmingStart, Domain: "https://example.com", Total: 60}),
		"warming 60 targets")
	require.Contains(t,
		consume(t, progress.Event{Stage: progress.StageDomainDone, Domain: "https://example.com", Completed: 58, Total: 60}),
		"done (58/60 succeeded)")
	require.Contains(t,
		consume(t, progress.Event{Stage: progress.StageRunDone}),
		"completed")
}
