package eventtiming

import (
	"sort"
	"sync"
	"time"

	"github.com/go-drift/perf/pkg/errors"
	"github.com/go-drift/perf/pkg/perfentry"
	"github.com/go-drift/perf/pkg/surface"
)

// Logger correlates the lifecycle stages of user-interaction events and
// reports settled timing records to the sink behind its handle.
//
// Producers call OnEventStart, OnProcessingStart and OnProcessingEnd as
// an event moves through dispatch. The host's frame loop calls
// DispatchPendingEntries once per tick and TreeDidMount after each
// commit to settle entries whose visual effects are on screen.
type Logger struct {
	sink  *perfentry.Handle
	clock Clock

	mu       sync.Mutex
	inFlight map[Tag]*eventEntry
}

// NewLogger creates a logger reporting to the sink behind handle. A nil
// handle behaves like an expired sink: every operation is a no-op.
func NewLogger(sink *perfentry.Handle) *Logger {
	return &Logger{
		sink:     sink,
		clock:    systemClock{},
		inFlight: make(map[Tag]*eventEntry),
	}
}

// SetClock replaces the logger's time source. Returns the previous clock
// so callers can restore it during cleanup. Install clocks before
// producers start; SetClock does not synchronize with in-flight calls.
func (l *Logger) SetClock(c Clock) Clock {
	prev := l.clock
	if c == nil {
		c = systemClock{}
	}
	l.clock = c
	return prev
}

// OnEventStart begins tracking an event delivered to target. It returns
// the tag for the processing-stage calls, or EmptyTag when the event
// type is untracked or the sink is gone. A zero startTime means "now";
// callers with a platform-accurate delivery time pass it instead. The
// target may be nil for events with no tree association.
func (l *Logger) OnEventStart(name string, target surface.Node, startTime time.Time) Tag {
	if _, ok := l.sink.Get(); !ok {
		return EmptyTag
	}
	reported, ok := ReportedName(name)
	if !ok {
		return EmptyTag
	}

	tag := nextTag()
	if startTime.IsZero() {
		startTime = l.clock.Now()
	}

	l.mu.Lock()
	l.inFlight[tag] = &eventEntry{
		name:      reported,
		target:    target,
		startTime: startTime,
	}
	l.mu.Unlock()
	return tag
}

// OnProcessingStart records that handler dispatch began for the event
// with the given tag. Unknown tags are ignored. The timestamp is sampled
// before taking the table lock.
func (l *Logger) OnProcessingStart(tag Tag) {
	if _, ok := l.sink.Get(); !ok {
		return
	}
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.inFlight[tag]
	if !ok {
		return
	}
	if !entry.processingStart.IsZero() {
		fault("eventtiming.OnProcessingStart", entry.name, tag, "processing start recorded twice")
	}
	entry.processingStart = now
}

// OnProcessingEnd records that handler dispatch finished for the event
// with the given tag. Unknown tags are ignored. Recording an end without
// a prior OnProcessingStart violates the lifecycle contract and hits the
// invariant fault path; the timestamp is still recorded so the entry
// stays internally consistent.
func (l *Logger) OnProcessingEnd(tag Tag) {
	if _, ok := l.sink.Get(); !ok {
		return
	}
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.inFlight[tag]
	if !ok {
		return
	}
	if entry.processingStart.IsZero() {
		fault("eventtiming.OnProcessingEnd", entry.name, tag, "processing end recorded before processing start")
	}
	entry.processingEnd = now
}

// DispatchPendingEntries settles fully processed entries. The host frame
// loop calls it once per tick with the set of surfaces that still have
// unflushed rendering updates.
//
// Entries still being processed are left alone. Fully processed entries
// whose target sits on a surface in pending are marked waiting and held
// back until TreeDidMount for that surface; the mark is never revisited
// by this sweep. Everything else is reported with a duration ending at
// the sweep's clock reading and removed from the table.
func (l *Logger) DispatchPendingEntries(pending surface.Set) {
	if _, ok := l.sink.Get(); !ok {
		return
	}
	now := l.clock.Now()
	l.deliver(l.collectPending(pending, now))
}

// TreeDidMount settles entries that were waiting for the committed
// root's surface to mount. Their durations end at mountTime; a zero
// mountTime means "now". Waiting entries of other surfaces stay.
func (l *Logger) TreeDidMount(root surface.Node, mountTime time.Time) {
	if _, ok := l.sink.Get(); !ok {
		return
	}
	if mountTime.IsZero() {
		mountTime = l.clock.Now()
	}
	l.deliver(l.collectMounted(root, mountTime))
}

// collectPending runs the pending-update sweep under the table lock and
// returns the settled records.
func (l *Logger) collectPending(pending surface.Set, now time.Time) []perfentry.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	var settled []perfentry.Event
	for tag, entry := range l.inFlight {
		if entry.waitingForDispatch() || entry.waitingForMount {
			continue
		}
		if surface.HasPendingUpdates(entry.target, pending) {
			// Reported once the surface's root mounts.
			entry.waitingForMount = true
			continue
		}
		settled = append(settled, settleEntry("eventtiming.DispatchPendingEntries", tag, entry, now))
		delete(l.inFlight, tag)
	}
	return settled
}

// collectMounted runs the mount-completion sweep under the table lock
// and returns the settled records.
func (l *Logger) collectMounted(root surface.Node, mountTime time.Time) []perfentry.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	var settled []perfentry.Event
	for tag, entry := range l.inFlight {
		if entry.waitingForMount && surface.InRoot(entry.target, root) {
			settled = append(settled, settleEntry("eventtiming.TreeDidMount", tag, entry, mountTime))
			delete(l.inFlight, tag)
		}
	}
	return settled
}

// deliver forwards settled records to the sink. It runs outside the
// table lock and probes the handle per record; records whose sink
// expired in the meantime are dropped. Their entries are already gone
// from the table either way.
func (l *Logger) deliver(settled []perfentry.Event) {
	for _, e := range settled {
		r, ok := l.sink.Get()
		if !ok {
			return
		}
		r.ReportEvent(e)
	}
}

// settleEntry builds the settled record for an entry leaving the table.
// An entry reaching this point must carry both processing timestamps and
// a non-negative duration; anything else hits the invariant fault path.
func settleEntry(op string, tag Tag, entry *eventEntry, end time.Time) perfentry.Event {
	if entry.processingStart.IsZero() {
		fault(op, entry.name, tag, "reporting an entry with no processing start")
	}
	if entry.processingEnd.IsZero() {
		fault(op, entry.name, tag, "reporting an entry with no processing end")
	}
	duration := end.Sub(entry.startTime)
	if duration < 0 {
		fault(op, entry.name, tag, "negative event duration")
	}
	return perfentry.Event{
		Name:            entry.name,
		StartTime:       entry.startTime,
		Duration:        duration,
		ProcessingStart: entry.processingStart,
		ProcessingEnd:   entry.processingEnd,
		InteractionID:   entry.interactionID,
	}
}

// InFlightSnapshot returns read-only copies of the tracked entries in
// tag order. Intended for the debug observer. The unlock is deferred so
// a panicking target SurfaceID cannot leave the table locked.
func (l *Logger) InFlightSnapshot() []InFlightEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]InFlightEntry, 0, len(l.inFlight))
	for tag, entry := range l.inFlight {
		e := InFlightEntry{
			Tag:             tag,
			Name:            entry.name,
			StartTime:       entry.startTime,
			ProcessingStart: entry.processingStart,
			ProcessingEnd:   entry.processingEnd,
			WaitingForMount: entry.waitingForMount,
		}
		if entry.target != nil {
			e.Surface = entry.target.SurfaceID()
			e.HasTarget = true
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Tag < entries[j].Tag })
	return entries
}

// fault reports a violated lifecycle invariant. In debug mode it panics
// after reporting so broken instrumentation fails fast; otherwise
// execution continues with the violation recorded.
func fault(op, event string, tag Tag, detail string) {
	err := &errors.InvariantError{
		Op:     op,
		Event:  event,
		Tag:    uint64(tag),
		Detail: detail,
	}
	errors.ReportInvariant(err)
	if errors.DebugMode {
		panic(err)
	}
}
