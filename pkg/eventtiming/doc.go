// Package eventtiming correlates the lifecycle of user-interaction
// events inside the rendering pipeline and reports settled timing
// records to a performance entry sink.
//
// # Lifecycle
//
// The host engine drives a Logger through three producer calls as an
// event moves through dispatch:
//
//	tag := logger.OnEventStart("topClick", target, platformTime)
//	logger.OnProcessingStart(tag)
//	// ... handlers run ...
//	logger.OnProcessingEnd(tag)
//
// OnEventStart resolves the internal event name against a static table
// of tracked types and returns EmptyTag for everything else, so callers
// can pass every dispatched event through without filtering first.
//
// # Settlement
//
// An entry is not reported when processing ends: its duration must cover
// the visual consequences of the event. The frame loop calls
// DispatchPendingEntries once per tick with the set of surfaces that
// still have unflushed updates. Entries whose target sits on such a
// surface are held back and marked; they are reported by a later
// TreeDidMount call for their surface, with the mount time as the end of
// the duration. Entries with no pending visual work (and entries with no
// target at all) are reported directly by the sweep.
//
// # Sinks
//
// Settled records flow to the perfentry.Reporter behind the handle the
// Logger was built with. The handle is probed at the start of every
// operation and again per delivered record; an expired handle turns the
// operation into a silent no-op. Records are copied out under the table
// lock and delivered after it is released.
//
// # Concurrency
//
// Producer calls, the frame sweep, and mount notifications may arrive on
// different goroutines. One mutex guards the in-flight table; the two
// sweeps serialize against each other and against producers on that
// mutex. Tags come from a process-wide atomic counter and are never
// reused.
package eventtiming
