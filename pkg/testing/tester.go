package testing

import (
	"testing"
	"time"

	"github.com/go-drift/perf/pkg/eventtiming"
	"github.com/go-drift/perf/pkg/perfentry"
	"github.com/go-drift/perf/pkg/pipeline"
	"github.com/go-drift/perf/pkg/surface"
)

// StaticNode is a surface.Node with a fixed surface ID, for building
// test targets and roots.
type StaticNode struct {
	ID surface.ID
}

// SurfaceID returns the node's fixed surface.
func (n StaticNode) SurfaceID() surface.ID {
	return n.ID
}

// InteractionTester drives a complete event timing pipeline with a fake
// clock: a Logger, a pipeline Owner wired to it, and a buffered sink.
// Interactions are scripted through Dispatch, StepFrame and
// MountSurface, and the settled entries read back through Entries.
type InteractionTester struct {
	clock  *FakeClock
	logger *eventtiming.Logger
	owner  *pipeline.Owner
	buffer *perfentry.BufferedReporter
}

// NewInteractionTester creates a tester with a fresh pipeline.
// Call Cleanup() when done, or use NewInteractionTesterWithT() instead.
func NewInteractionTester() *InteractionTester {
	clk := NewFakeClock()
	buffer := perfentry.NewBufferedReporter(64)
	logger := eventtiming.NewLogger(buffer.Handle())
	logger.SetClock(clk)
	owner := pipeline.NewOwner()
	owner.AttachLogger(logger)
	return &InteractionTester{
		clock:  clk,
		logger: logger,
		owner:  owner,
		buffer: buffer,
	}
}

// NewInteractionTesterWithT creates a tester that auto-cleans up via
// t.Cleanup(). This is the recommended constructor for tests.
func NewInteractionTesterWithT(t *testing.T) *InteractionTester {
	tester := NewInteractionTester()
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup closes the sink, expiring the handle producers probe.
func (t *InteractionTester) Cleanup() {
	t.buffer.Close()
}

// Clock returns the fake clock driving the pipeline.
func (t *InteractionTester) Clock() *FakeClock {
	return t.clock
}

// Logger returns the logger under test.
func (t *InteractionTester) Logger() *eventtiming.Logger {
	return t.logger
}

// Pipeline returns the pipeline owner.
func (t *InteractionTester) Pipeline() *pipeline.Owner {
	return t.owner
}

// Buffer returns the buffered sink collecting settled entries.
func (t *InteractionTester) Buffer() *perfentry.BufferedReporter {
	return t.buffer
}

// Dispatch delivers an event at the current clock reading and runs its
// processing stage, advancing the clock by processing. It returns the
// event's tag (EmptyTag for untracked event types).
func (t *InteractionTester) Dispatch(name string, target surface.Node, processing time.Duration) eventtiming.Tag {
	tag := t.logger.OnEventStart(name, target, time.Time{})
	t.logger.OnProcessingStart(tag)
	t.clock.Advance(processing)
	t.logger.OnProcessingEnd(tag)
	return tag
}

// ScheduleUpdate marks a surface as having unflushed rendering work, so
// entries targeting it wait for MountSurface.
func (t *InteractionTester) ScheduleUpdate(id surface.ID) {
	t.owner.ScheduleUpdate(id)
}

// StepFrame advances the clock by d and runs one settlement tick.
func (t *InteractionTester) StepFrame(d time.Duration) {
	t.clock.Advance(d)
	t.owner.Step()
}

// MountSurface commits surface id at the current clock reading,
// settling entries that were waiting for it.
func (t *InteractionTester) MountSurface(id surface.ID) {
	t.owner.DidMount(StaticNode{ID: id}, t.clock.Now())
}

// Entries returns the settled entries reported so far, oldest first.
func (t *InteractionTester) Entries() []perfentry.Event {
	return t.buffer.Snapshot().Entries
}
