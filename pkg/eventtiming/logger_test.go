package eventtiming_test

import (
	"sync"
	"testing"
	"time"

	"github.com/go-drift/perf/pkg/errors"
	"github.com/go-drift/perf/pkg/eventtiming"
	"github.com/go-drift/perf/pkg/perfentry"
	"github.com/go-drift/perf/pkg/surface"
	perftest "github.com/go-drift/perf/pkg/testing"
)

type testTarget struct {
	id surface.ID
}

func (n *testTarget) SurfaceID() surface.ID {
	return n.id
}

type captureReporter struct {
	mu     sync.Mutex
	events []perfentry.Event
}

func (r *captureReporter) ReportEvent(e perfentry.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *captureReporter) Events() []perfentry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]perfentry.Event, len(r.events))
	copy(events, r.events)
	return events
}

// expireOnFirstReport expires its own handle as soon as the first record
// arrives, simulating a sink torn down while a sweep is delivering.
type expireOnFirstReport struct {
	captureReporter
	handle *perfentry.Handle
}

func (r *expireOnFirstReport) ReportEvent(e perfentry.Event) {
	r.captureReporter.ReportEvent(e)
	r.handle.Expire()
}

type testErrorHandler struct {
	onInvariant func(*errors.InvariantError)
}

func (h *testErrorHandler) HandleError(err *errors.PerfError)          {}
func (h *testErrorHandler) HandlePanic(err *errors.PanicError)         {}
func (h *testErrorHandler) HandleInvariant(err *errors.InvariantError) {
	if h.onInvariant != nil {
		h.onInvariant(err)
	}
}

func newTestLogger() (*eventtiming.Logger, *captureReporter, *perftest.FakeClock) {
	reporter := &captureReporter{}
	logger := eventtiming.NewLogger(perfentry.NewHandle(reporter))
	clock := perftest.NewFakeClock()
	logger.SetClock(clock)
	return logger, reporter, clock
}

func TestLogger_ReportsAfterFrameSweep(t *testing.T) {
	logger, reporter, clock := newTestLogger()
	base := clock.Now()
	target := &testTarget{id: 1}

	clock.Set(base.Add(100 * time.Millisecond))
	tag := logger.OnEventStart("topClick", target, time.Time{})
	if tag == eventtiming.EmptyTag {
		t.Fatal("expected a tag for topClick")
	}

	clock.Set(base.Add(110 * time.Millisecond))
	logger.OnProcessingStart(tag)
	clock.Set(base.Add(120 * time.Millisecond))
	logger.OnProcessingEnd(tag)

	clock.Set(base.Add(130 * time.Millisecond))
	logger.DispatchPendingEntries(nil)

	events := reporter.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 reported entry, got %d", len(events))
	}
	e := events[0]
	if e.Name != "click" {
		t.Errorf("Name = %q, want %q", e.Name, "click")
	}
	if !e.StartTime.Equal(base.Add(100 * time.Millisecond)) {
		t.Errorf("StartTime = %v, want base+100ms", e.StartTime)
	}
	if e.Duration != 30*time.Millisecond {
		t.Errorf("Duration = %v, want 30ms", e.Duration)
	}
	if !e.ProcessingStart.Equal(base.Add(110 * time.Millisecond)) {
		t.Errorf("ProcessingStart = %v, want base+110ms", e.ProcessingStart)
	}
	if !e.ProcessingEnd.Equal(base.Add(120 * time.Millisecond)) {
		t.Errorf("ProcessingEnd = %v, want base+120ms", e.ProcessingEnd)
	}
	if e.InteractionID != 0 {
		t.Errorf("InteractionID = %d, want 0", e.InteractionID)
	}
	if n := len(logger.InFlightSnapshot()); n != 0 {
		t.Errorf("expected empty table after settlement, got %d entries", n)
	}
}

func TestLogger_WaitsForMountWhenSurfacePending(t *testing.T) {
	logger, reporter, clock := newTestLogger()
	base := clock.Now()
	target := &testTarget{id: 1}

	clock.Set(base.Add(100 * time.Millisecond))
	tag := logger.OnEventStart("topClick", target, time.Time{})
	clock.Set(base.Add(110 * time.Millisecond))
	logger.OnProcessingStart(tag)
	clock.Set(base.Add(120 * time.Millisecond))
	logger.OnProcessingEnd(tag)

	clock.Set(base.Add(130 * time.Millisecond))
	logger.DispatchPendingEntries(surface.NewSet(1))
	if len(reporter.Events()) != 0 {
		t.Fatal("entry on a surface with pending updates should wait for mount")
	}

	// The waiting mark sticks: later frame sweeps leave the entry for the
	// mount notification even when nothing is pending anymore.
	clock.Set(base.Add(140 * time.Millisecond))
	logger.DispatchPendingEntries(nil)
	if len(reporter.Events()) != 0 {
		t.Fatal("waiting entry must settle via mount, not a later frame sweep")
	}

	logger.TreeDidMount(&testTarget{id: 1}, base.Add(150*time.Millisecond))

	events := reporter.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 reported entry after mount, got %d", len(events))
	}
	e := events[0]
	if e.Name != "click" {
		t.Errorf("Name = %q, want %q", e.Name, "click")
	}
	if e.Duration != 50*time.Millisecond {
		t.Errorf("Duration = %v, want 50ms (mount time ends the span)", e.Duration)
	}
	if !e.ProcessingStart.Equal(base.Add(110 * time.Millisecond)) {
		t.Errorf("ProcessingStart = %v, want base+110ms", e.ProcessingStart)
	}
	if !e.ProcessingEnd.Equal(base.Add(120 * time.Millisecond)) {
		t.Errorf("ProcessingEnd = %v, want base+120ms", e.ProcessingEnd)
	}
}

func TestLogger_UntrackedEventProducesEmptyTag(t *testing.T) {
	logger, reporter, _ := newTestLogger()

	tag := logger.OnEventStart("topMouseMove", &testTarget{id: 1}, time.Time{})
	if tag != eventtiming.EmptyTag {
		t.Fatalf("expected EmptyTag for untracked event, got %d", tag)
	}

	// The sentinel tag is harmless in later calls.
	logger.OnProcessingStart(tag)
	logger.OnProcessingEnd(tag)
	logger.DispatchPendingEntries(nil)

	if len(reporter.Events()) != 0 {
		t.Error("untracked events must not produce entries")
	}
	if n := len(logger.InFlightSnapshot()); n != 0 {
		t.Errorf("untracked events must not be tracked, got %d entries", n)
	}
}

func TestLogger_EverySupportedEventSettles(t *testing.T) {
	logger, reporter, clock := newTestLogger()

	supported := eventtiming.SupportedEvents()
	for name := range supported {
		tag := logger.OnEventStart(name, nil, time.Time{})
		if tag == eventtiming.EmptyTag {
			t.Fatalf("OnEventStart(%q) returned EmptyTag", name)
		}
		logger.OnProcessingStart(tag)
		logger.OnProcessingEnd(tag)
	}

	clock.Advance(5 * time.Millisecond)
	logger.DispatchPendingEntries(nil)

	events := reporter.Events()
	if len(events) != len(supported) {
		t.Fatalf("reported %d entries, want %d", len(events), len(supported))
	}
	seen := make(map[string]bool, len(events))
	for _, e := range events {
		if e.Duration < 0 {
			t.Errorf("%s duration = %v, want non-negative", e.Name, e.Duration)
		}
		seen[e.Name] = true
	}
	for name, reported := range supported {
		if !seen[reported] {
			t.Errorf("no entry reported for %s (%s)", name, reported)
		}
	}
}

func TestLogger_RepeatedSweepsReportOnce(t *testing.T) {
	logger, reporter, clock := newTestLogger()

	tag := logger.OnEventStart("topClick", nil, time.Time{})
	logger.OnProcessingStart(tag)
	logger.OnProcessingEnd(tag)

	clock.Advance(10 * time.Millisecond)
	logger.DispatchPendingEntries(nil)
	logger.DispatchPendingEntries(nil)

	if got := len(reporter.Events()); got != 1 {
		t.Fatalf("expected exactly 1 reported entry after repeated sweeps, got %d", got)
	}
}

func TestLogger_UnknownTagIsIgnored(t *testing.T) {
	logger, reporter, clock := newTestLogger()

	logger.OnProcessingStart(9999)
	logger.OnProcessingEnd(9999)
	if n := len(logger.InFlightSnapshot()); n != 0 {
		t.Errorf("unknown tags must not create entries, got %d", n)
	}

	// A tag whose entry already settled behaves the same way.
	tag := logger.OnEventStart("topClick", nil, time.Time{})
	logger.OnProcessingStart(tag)
	logger.OnProcessingEnd(tag)
	clock.Advance(time.Millisecond)
	logger.DispatchPendingEntries(nil)
	if len(reporter.Events()) != 1 {
		t.Fatal("expected the entry to settle")
	}

	logger.OnProcessingEnd(tag)
	if len(reporter.Events()) != 1 {
		t.Error("calls with a settled tag must be no-ops")
	}
}

func TestLogger_ProcessingEndWithoutStartPanicsInDebug(t *testing.T) {
	logger, _, clock := newTestLogger()

	oldDebug := errors.DebugMode
	errors.SetDebugMode(true)
	defer errors.SetDebugMode(oldDebug)

	var captured *errors.InvariantError
	oldHandler := errors.DefaultHandler
	errors.SetHandler(&testErrorHandler{onInvariant: func(err *errors.InvariantError) {
		captured = err
	}})
	defer errors.SetHandler(oldHandler)

	tag := logger.OnEventStart("topKeyDown", nil, time.Time{})
	clock.Advance(5 * time.Millisecond)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic in debug mode")
			}
		}()
		logger.OnProcessingEnd(tag)
	}()

	if captured == nil {
		t.Fatal("expected the violation to reach the handler")
	}
	if captured.Tag != uint64(tag) {
		t.Errorf("Tag = %d, want %d", captured.Tag, tag)
	}
	if captured.Event != "keydown" {
		t.Errorf("Event = %q, want %q", captured.Event, "keydown")
	}
}

func TestLogger_ReleaseModeContinuesAfterFault(t *testing.T) {
	logger, reporter, clock := newTestLogger()

	oldDebug := errors.DebugMode
	errors.SetDebugMode(false)
	defer errors.SetDebugMode(oldDebug)

	var violations int
	oldHandler := errors.DefaultHandler
	errors.SetHandler(&testErrorHandler{onInvariant: func(err *errors.InvariantError) {
		violations++
	}})
	defer errors.SetHandler(oldHandler)

	tag := logger.OnEventStart("topClick", nil, time.Time{})
	clock.Advance(10 * time.Millisecond)
	logger.OnProcessingEnd(tag)

	clock.Advance(10 * time.Millisecond)
	logger.DispatchPendingEntries(nil)

	if violations == 0 {
		t.Error("expected invariant violations to be reported")
	}
	events := reporter.Events()
	if len(events) != 1 {
		t.Fatalf("expected the flagged entry to still settle, got %d entries", len(events))
	}
	if !events[0].ProcessingStart.IsZero() {
		t.Error("ProcessingStart should stay unset on the flagged entry")
	}
	if events[0].ProcessingEnd.IsZero() {
		t.Error("ProcessingEnd should be recorded on the flagged entry")
	}
	if n := len(logger.InFlightSnapshot()); n != 0 {
		t.Errorf("flagged entries must not leak, got %d in flight", n)
	}
}

func TestLogger_ExpiredSinkDisablesTracking(t *testing.T) {
	reporter := &captureReporter{}
	handle := perfentry.NewHandle(reporter)
	handle.Expire()
	logger := eventtiming.NewLogger(handle)

	tag := logger.OnEventStart("topClick", &testTarget{id: 1}, time.Time{})
	if tag != eventtiming.EmptyTag {
		t.Fatalf("expected EmptyTag with expired sink, got %d", tag)
	}
	logger.DispatchPendingEntries(nil)
	logger.TreeDidMount(&testTarget{id: 1}, time.Time{})

	if len(reporter.Events()) != 0 {
		t.Error("expired sink must not receive entries")
	}
}

func TestLogger_NilHandleBehavesLikeExpired(t *testing.T) {
	logger := eventtiming.NewLogger(nil)
	if tag := logger.OnEventStart("topClick", nil, time.Time{}); tag != eventtiming.EmptyTag {
		t.Fatalf("expected EmptyTag with nil handle, got %d", tag)
	}
	logger.DispatchPendingEntries(nil)
	logger.TreeDidMount(nil, time.Time{})
}

func TestLogger_SinkExpiryDuringDelivery(t *testing.T) {
	reporter := &expireOnFirstReport{}
	handle := perfentry.NewHandle(reporter)
	reporter.handle = handle
	logger := eventtiming.NewLogger(handle)
	clock := perftest.NewFakeClock()
	logger.SetClock(clock)

	for _, name := range []string{"topClick", "topKeyDown"} {
		tag := logger.OnEventStart(name, nil, time.Time{})
		logger.OnProcessingStart(tag)
		logger.OnProcessingEnd(tag)
	}

	clock.Advance(10 * time.Millisecond)
	logger.DispatchPendingEntries(nil)

	if got := len(reporter.Events()); got != 1 {
		t.Fatalf("expected exactly one delivered entry before expiry, got %d", got)
	}
	if n := len(logger.InFlightSnapshot()); n != 0 {
		t.Errorf("dropped entries must still leave the table, got %d in flight", n)
	}
}

func TestLogger_NilTargetSettlesViaFrameSweep(t *testing.T) {
	logger, reporter, clock := newTestLogger()

	tag := logger.OnEventStart("topKeyUp", nil, time.Time{})
	logger.OnProcessingStart(tag)
	logger.OnProcessingEnd(tag)

	clock.Advance(20 * time.Millisecond)
	// A target-less entry can never correlate with a surface, so pending
	// surfaces do not hold it back.
	logger.DispatchPendingEntries(surface.NewSet(1, 2, 3))

	events := reporter.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 reported entry, got %d", len(events))
	}
	if events[0].Name != "keyup" {
		t.Errorf("Name = %q, want %q", events[0].Name, "keyup")
	}
	if events[0].Duration != 20*time.Millisecond {
		t.Errorf("Duration = %v, want 20ms", events[0].Duration)
	}
}

func TestLogger_MountSettlesOnlyMatchingSurface(t *testing.T) {
	logger, reporter, clock := newTestLogger()
	base := clock.Now()

	tagA := logger.OnEventStart("topClick", &testTarget{id: 1}, time.Time{})
	tagB := logger.OnEventStart("topPointerDown", &testTarget{id: 2}, time.Time{})
	for _, tag := range []eventtiming.Tag{tagA, tagB} {
		logger.OnProcessingStart(tag)
		logger.OnProcessingEnd(tag)
	}

	clock.Set(base.Add(10 * time.Millisecond))
	logger.DispatchPendingEntries(surface.NewSet(1, 2))
	if len(reporter.Events()) != 0 {
		t.Fatal("both entries should wait for their mounts")
	}

	logger.TreeDidMount(&testTarget{id: 1}, base.Add(20*time.Millisecond))
	events := reporter.Events()
	if len(events) != 1 {
		t.Fatalf("expected only the surface-1 entry, got %d", len(events))
	}
	if events[0].Name != "click" {
		t.Errorf("Name = %q, want %q", events[0].Name, "click")
	}

	snapshot := logger.InFlightSnapshot()
	if len(snapshot) != 1 {
		t.Fatalf("expected the surface-2 entry to remain, got %d", len(snapshot))
	}
	if snapshot[0].Surface != 2 || !snapshot[0].WaitingForMount {
		t.Errorf("remaining entry = %+v, want waiting on surface 2", snapshot[0])
	}

	logger.TreeDidMount(&testTarget{id: 2}, base.Add(30*time.Millisecond))
	if len(reporter.Events()) != 2 {
		t.Error("expected the surface-2 entry after its mount")
	}
}

func TestLogger_CallerStartTimeWins(t *testing.T) {
	logger, reporter, clock := newTestLogger()
	base := clock.Now()

	platformTime := base.Add(20 * time.Millisecond)
	clock.Set(base.Add(40 * time.Millisecond))
	tag := logger.OnEventStart("topTouchStart", nil, platformTime)
	logger.OnProcessingStart(tag)
	logger.OnProcessingEnd(tag)

	clock.Set(base.Add(70 * time.Millisecond))
	logger.DispatchPendingEntries(nil)

	events := reporter.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 reported entry, got %d", len(events))
	}
	if !events[0].StartTime.Equal(platformTime) {
		t.Errorf("StartTime = %v, want the caller-supplied %v", events[0].StartTime, platformTime)
	}
	if events[0].Duration != 50*time.Millisecond {
		t.Errorf("Duration = %v, want 50ms measured from the caller-supplied start", events[0].Duration)
	}
}

func TestLogger_SweepSkipsUnfinishedProcessing(t *testing.T) {
	logger, reporter, clock := newTestLogger()

	tag := logger.OnEventStart("topClick", &testTarget{id: 1}, time.Time{})
	logger.OnProcessingStart(tag)

	clock.Advance(5 * time.Millisecond)
	logger.DispatchPendingEntries(nil)

	if len(reporter.Events()) != 0 {
		t.Error("entries still being processed must not be reported")
	}
	snapshot := logger.InFlightSnapshot()
	if len(snapshot) != 1 {
		t.Fatalf("expected the entry to stay tracked, got %d", len(snapshot))
	}
	if !snapshot[0].ProcessingEnd.IsZero() {
		t.Error("ProcessingEnd should still be unset")
	}
	if snapshot[0].WaitingForMount {
		t.Error("an unfinished entry must not be marked waiting for mount")
	}
}

func TestLogger_InFlightSnapshotOrder(t *testing.T) {
	logger, _, _ := newTestLogger()

	tags := []eventtiming.Tag{
		logger.OnEventStart("topClick", &testTarget{id: 3}, time.Time{}),
		logger.OnEventStart("topKeyDown", nil, time.Time{}),
		logger.OnEventStart("topDrop", &testTarget{id: 5}, time.Time{}),
	}

	snapshot := logger.InFlightSnapshot()
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(snapshot))
	}
	for i, e := range snapshot {
		if e.Tag != tags[i] {
			t.Errorf("entry %d tag = %d, want %d (tag order)", i, e.Tag, tags[i])
		}
	}
	if snapshot[0].Name != "click" || !snapshot[0].HasTarget || snapshot[0].Surface != 3 {
		t.Errorf("entry 0 = %+v, want click on surface 3", snapshot[0])
	}
	if snapshot[1].HasTarget {
		t.Error("entry 1 should have no target")
	}
}

func TestLogger_ConcurrentProducersAndSweeps(t *testing.T) {
	logger, reporter, _ := newTestLogger()

	const producers = 4
	const perProducer = 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				tag := logger.OnEventStart("topPointerDown", &testTarget{id: 1}, time.Time{})
				logger.OnProcessingStart(tag)
				logger.OnProcessingEnd(tag)
			}
		}()
	}

	stop := make(chan struct{})
	var sweeper sync.WaitGroup
	sweeper.Add(1)
	go func() {
		defer sweeper.Done()
		for {
			select {
			case <-stop:
				return
			default:
				logger.DispatchPendingEntries(nil)
			}
		}
	}()

	wg.Wait()
	close(stop)
	sweeper.Wait()
	logger.DispatchPendingEntries(nil)

	if got := len(reporter.Events()); got != producers*perProducer {
		t.Errorf("reported %d entries, want %d", got, producers*perProducer)
	}
	if n := len(logger.InFlightSnapshot()); n != 0 {
		t.Errorf("expected empty table, got %d in flight", n)
	}
}
