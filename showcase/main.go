// Package main provides the perf demo application.
// It runs a simulated interaction workload through the event timing
// pipeline and serves the observer endpoints for perftap to inspect.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-drift/perf/pkg/eventtiming"
	"github.com/go-drift/perf/pkg/observer"
	"github.com/go-drift/perf/pkg/perfentry"
	"github.com/go-drift/perf/pkg/pipeline"
	"github.com/go-drift/perf/pkg/surface"
)

const frameInterval = 16 * time.Millisecond

// demoSurface identifies one of the simulated app's render surfaces.
type demoSurface surface.ID

func (s demoSurface) SurfaceID() surface.ID { return surface.ID(s) }

// The demo renders three surfaces, numbered the way a host app would
// number its windows.
const (
	home     demoSurface = 1
	search   demoSurface = 2
	checkout demoSurface = 3
)

// demoEvents is the weighted event mix the workload emits. topMouseMove
// is not a tracked event, so a slice of the traffic exercises the
// silent drop path.
var demoEvents = []struct {
	name   string
	weight int
}{
	{"topClick", 5},
	{"topKeyDown", 4},
	{"topPointerDown", 3},
	{"topPointerUp", 3},
	{"topChange", 2},
	{"topFocus", 1},
	{"topMouseMove", 2},
}

func main() {
	port := flag.Int("port", 9999, "observer port (0 picks an ephemeral port)")
	seed := flag.Int64("seed", 0, "workload seed (0 seeds from the current time)")
	flag.Parse()

	buffer := perfentry.NewBufferedReporter(256)
	logger := eventtiming.NewLogger(buffer.Handle())
	owner := pipeline.NewOwner()
	owner.AttachLogger(logger)

	srv := observer.New(observer.Options{Port: *port, Logger: logger, Buffer: buffer})
	actual, err := srv.Start()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting observer: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("perf demo: observer on http://localhost:%d\n", actual)
	fmt.Printf("perf demo: try `perftap --addr localhost:%d watch`\n", actual)

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		runFrameLoop(owner, rand.New(rand.NewSource(*seed+1)), stop)
	}()
	go func() {
		defer wg.Done()
		runWorkload(logger, owner, rand.New(rand.NewSource(*seed)), stop)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	fmt.Println("\nShutting down...")
	close(stop)
	wg.Wait()
	srv.Stop()
	buffer.Close()
}

// runFrameLoop ticks the settlement pass. Surfaces with scheduled
// updates mount a few frames after the update lands, the way a real
// pipeline's commit would.
func runFrameLoop(owner *pipeline.Owner, r *rand.Rand, stop <-chan struct{}) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for id := range owner.PendingSurfaces() {
				if r.Intn(4) == 0 {
					owner.DidMount(demoSurface(id), time.Now())
				}
			}
			owner.Step()
		}
	}
}

// runWorkload emits one simulated interaction every few hundred
// milliseconds: start the event, process it for a while, and sometimes
// dirty the surface it hit so settlement has to wait for the mount.
func runWorkload(logger *eventtiming.Logger, owner *pipeline.Owner, r *rand.Rand, stop <-chan struct{}) {
	surfaces := []demoSurface{home, search, checkout}

	for {
		select {
		case <-stop:
			return
		case <-time.After(time.Duration(200+r.Intn(600)) * time.Millisecond):
		}

		name := pickEvent(r)
		var target surface.Node
		if r.Intn(4) > 0 {
			target = surfaces[r.Intn(len(surfaces))]
		}

		tag := logger.OnEventStart(name, target, time.Time{})
		if tag == eventtiming.EmptyTag {
			continue
		}

		logger.OnProcessingStart(tag)
		time.Sleep(processingTime(r))
		logger.OnProcessingEnd(tag)

		if td, ok := target.(demoSurface); ok && r.Intn(3) == 0 {
			owner.ScheduleUpdate(td.SurfaceID())
		}
	}
}

// processingTime draws a simulated handler duration. Most handlers run
// a few milliseconds; about one in eight stalls past the slow
// threshold.
func processingTime(r *rand.Rand) time.Duration {
	if r.Intn(8) == 0 {
		return time.Duration(110+r.Intn(80)) * time.Millisecond
	}
	return time.Duration(2+r.Intn(28)) * time.Millisecond
}

func pickEvent(r *rand.Rand) string {
	total := 0
	for _, e := range demoEvents {
		total += e.weight
	}
	n := r.Intn(total)
	for _, e := range demoEvents {
		if n < e.weight {
			return e.name
		}
		n -= e.weight
	}
	return demoEvents[0].name
}
