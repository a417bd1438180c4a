package sinks

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/mjfield/edgewarm/internal/progress"
	"github.com/mjfield/edgewarm/internal/warming"
)

// ConsoleSink renders percent-complete status lines for an operator
// watching the run.
type ConsoleSink struct {
	out     io.Writer
	ok      *color.Color
	bad     *color.Color
	heading *color.Color
}

// NewConsoleSink writes colored status lines to out.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{
		out:     out,
		ok:      color.New(color.FgGreen),
		bad:     color.New(color.FgRed),
		heading: color.New(color.FgCyan, color.Bold),
	}
}

// Consume renders one event.
func (s *ConsoleSink) Consume(_ context.Context, evt progress.Event) error {
	switch evt.Stage {
	case progress.StageRunStart:
		s.heading.Fprintf(s.out, "Starting cache warming run %s\n", evt.RunID)
	case progress.StageDiscoveryDone:
		fmt.Fprintf(s.out, "%s: discovered %d URLs\n", evt.Domain, evt.URLCount)
	case progress.StageWarmingStart:
		s.heading.Fprintf(s.out, "%s: warming %d targets\n", evt.Domain, evt.Total)
	case progress.StageTargetDone:
		s.targetLine(evt)
	case progress.StageDomainDone:
		fmt.Fprintf(s.out, "%s: done (%d/%d succeeded)\n", evt.Domain, evt.Completed, evt.Total)
	case progress.StageRunDone:
		s.heading.Fprintln(s.out, "Cache warming run completed")
	}
	return nil
}

func (s *ConsoleSink) targetLine(evt progress.Event) {
	mark := s.ok.Sprint("✓")
	if !evt.Success {
		switch warming.FailureKind(evt.Failure) {
		case warming.FailureHTTPStatus:
			mark = s.bad.Sprintf("✗ (HTTP %d)", evt.StatusCode)
		default:
			mark = s.bad.Sprintf("✗ (%s)", evt.Failure)
		}
	}
	line := fmt.Sprintf("[%3d%%] %-28s %s %s", evt.Percent(), evt.LocationName, mark, evt.URL)
	if evt.Attempt > 1 {
		line += fmt.Sprintf(" (attempt %d)", evt.Attempt)
	}
	if warming.Phase(evt.Phase) == warming.PhasePriority {
		line += fmt.Sprintf(" [pass %d]", evt.Pass)
	}
	fmt.Fprintln(s.out, line)
}

// Close implements the Sink interface; it performs no action.
func (s *ConsoleSink) Close(context.Context) error {
	return nil
}
