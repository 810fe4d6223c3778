// Package pipeline connects a rendering pipeline's commit lifecycle to
// event timing settlement.
//
// The host engine owns the actual build/layout/commit machinery; an
// Owner only tracks which surfaces have rendering updates scheduled but
// not yet mounted, runs one settlement pass per frame tick, and fans
// mount notifications out to registered hooks. AttachLogger wires an
// eventtiming.Logger into both paths.
package pipeline

import (
	"sync"
	"time"

	"github.com/go-drift/perf/pkg/eventtiming"
	"github.com/go-drift/perf/pkg/surface"
)

// MountHook is notified after a surface's committed tree mounts.
type MountHook interface {
	TreeDidMount(root surface.Node, mountTime time.Time)
}

// Owner tracks surfaces with unflushed rendering updates and drives
// event timing settlement from the frame loop.
type Owner struct {
	mu      sync.Mutex
	pending surface.Set
	hooks   []MountHook

	// OnFrameSettle is called by Step with a snapshot of the surfaces
	// still awaiting a mount. AttachLogger points it at
	// Logger.DispatchPendingEntries.
	OnFrameSettle func(pending surface.Set)
}

// NewOwner creates an Owner with no pending surfaces.
func NewOwner() *Owner {
	return &Owner{pending: make(surface.Set)}
}

// ScheduleUpdate records that surface id has rendering work scheduled
// but not yet mounted. Scheduling an already pending surface is a no-op.
func (o *Owner) ScheduleUpdate(id surface.ID) {
	o.mu.Lock()
	o.pending.Add(id)
	o.mu.Unlock()
}

// PendingSurfaces returns a copy of the surfaces awaiting a mount.
func (o *Owner) PendingSurfaces() surface.Set {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending.Clone()
}

// AddMountHook registers a hook notified after each mount.
func (o *Owner) AddMountHook(h MountHook) {
	if h == nil {
		return
	}
	o.mu.Lock()
	o.hooks = append(o.hooks, h)
	o.mu.Unlock()
}

// Step runs one settlement tick. The frame loop calls it once per tick,
// after the frame's rendering work has been flushed. The callback
// receives its own copy of the pending set.
func (o *Owner) Step() {
	o.mu.Lock()
	pending := o.pending.Clone()
	o.mu.Unlock()

	if o.OnFrameSettle != nil {
		o.OnFrameSettle(pending)
	}
}

// DidMount records that the tree rooted at root mounted at mountTime.
// It clears the surface's pending mark and notifies mount hooks outside
// the owner lock.
func (o *Owner) DidMount(root surface.Node, mountTime time.Time) {
	if root == nil {
		return
	}

	o.mu.Lock()
	delete(o.pending, root.SurfaceID())
	hooks := make([]MountHook, len(o.hooks))
	copy(hooks, o.hooks)
	o.mu.Unlock()

	for _, h := range hooks {
		h.TreeDidMount(root, mountTime)
	}
}

// AttachLogger wires a logger into the owner: each Step settles entries
// against the pending surfaces, and each mount notifies the logger.
func (o *Owner) AttachLogger(l *eventtiming.Logger) {
	if l == nil {
		return
	}
	o.AddMountHook(l)
	o.OnFrameSettle = l.DispatchPendingEntries
}
