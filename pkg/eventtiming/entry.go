package eventtiming

import (
	"time"

	"github.com/go-drift/perf/pkg/perfentry"
	"github.com/go-drift/perf/pkg/surface"
)

// eventEntry tracks one event from platform delivery until it settles.
// The in-flight table owns the entry; every access happens under the
// table lock. The target is a correlation key only and is never mutated
// through.
type eventEntry struct {
	name            string
	target          surface.Node
	startTime       time.Time
	processingStart time.Time
	processingEnd   time.Time
	interactionID   perfentry.InteractionID
	waitingForMount bool
}

// waitingForDispatch reports whether handler dispatch has not finished
// for the entry.
func (e *eventEntry) waitingForDispatch() bool {
	return e.processingEnd.IsZero()
}

// InFlightEntry is a read-only copy of a tracked event, exposed for
// debugging.
type InFlightEntry struct {
	Tag             Tag
	Name            string
	Surface         surface.ID
	HasTarget       bool
	StartTime       time.Time
	ProcessingStart time.Time
	ProcessingEnd   time.Time
	WaitingForMount bool
}
