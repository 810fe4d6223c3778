// Package testing provides a test harness for event timing pipelines.
//
// # Quick Start
//
// Create a tester, script an interaction, and make assertions:
//
//	func TestClickTiming(t *testing.T) {
//	    tester := perftest.NewInteractionTesterWithT(t)
//
//	    // Deliver a click and let its handlers run for 8ms.
//	    tester.Dispatch("topClick", perftest.StaticNode{ID: 1}, 8*time.Millisecond)
//
//	    // One frame tick later the entry settles.
//	    tester.StepFrame(8 * time.Millisecond)
//
//	    entries := tester.Entries()
//	    if len(entries) != 1 || entries[0].Name != "click" {
//	        t.Fatalf("unexpected entries: %v", entries)
//	    }
//	}
//
// # Mount Correlation
//
// Hold an entry back behind a pending surface and settle it by mounting:
//
//	tester.Dispatch("topClick", perftest.StaticNode{ID: 1}, 5*time.Millisecond)
//	tester.ScheduleUpdate(1)
//	tester.StepFrame(8 * time.Millisecond) // entry waits
//	tester.Clock().Advance(30 * time.Millisecond)
//	tester.MountSurface(1) // entry settles with the mount time
//
// # Deterministic Time
//
// The tester installs a FakeClock on the logger, so durations move only
// through Dispatch, StepFrame and explicit Clock() adjustments.
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import perftest "github.com/go-drift/perf/pkg/testing"
package testing
