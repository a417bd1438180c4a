package progress

import "context"

// Sink renders or records progress events. Implementations must tolerate
// repeated calls and may be invoked from the hub goroutine only, so they
// need no internal synchronization against each other.
type Sink interface {
	Consume(ctx context.Context, evt Event) error
	Close(ctx context.Context) error
}

// Emitter publishes individual events; Hub satisfies this interface so the
// engine stays agnostic about how events are buffered or rendered.
type Emitter interface {
	Emit(evt Event)
}

// Discard is an Emitter that drops every event.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(Event) {}
