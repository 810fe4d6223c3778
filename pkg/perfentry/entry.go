// Package perfentry defines the settled event timing record and the
// reporting sinks that consume it.
//
// The timing pipeline hands finished records to a Reporter. Reporters are
// reached through a Handle, a liveness-checked reference whose owner can
// expire it at any moment; producers probe the handle on every operation
// and treat an expired sink as "drop silently". BufferedReporter is the
// standard in-process sink: a ring buffer of recent entries with
// subscription fan-out for live consumers.
package perfentry

import "time"

// InteractionID groups entries that belong to one logical user
// interaction, such as a pointerdown/pointerup/click triple. Zero means
// no interaction has been assigned.
type InteractionID uint64

// Event is a settled event timing record.
type Event struct {
	// Name is the canonical event name (for example "click").
	Name string
	// StartTime is when the platform delivered the event.
	StartTime time.Time
	// Duration spans from StartTime until the event's visual effects
	// were committed.
	Duration time.Duration
	// ProcessingStart is when dispatch to handlers began.
	ProcessingStart time.Time
	// ProcessingEnd is when dispatch to handlers finished.
	ProcessingEnd time.Time
	// InteractionID carries the interaction grouping, unchanged.
	InteractionID InteractionID
}

// Reporter consumes settled event timing records.
// ReportEvent may allocate or block, so callers must not invoke it while
// holding locks that event producers contend on.
type Reporter interface {
	ReportEvent(e Event)
}
