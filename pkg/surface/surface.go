// Package surface defines surface identity for event timing correlation.
//
// A surface is one mounted root's coordinate space. Event targets and
// committed tree roots both carry a surface ID, and the timing pipeline
// uses that ID alone to decide when an event's visual effects have been
// committed. Targets are correlation keys: the package never mutates or
// retains the nodes it is handed.
package surface

// ID identifies a rendering surface.
type ID int64

// Node is implemented by tree participants that belong to a surface,
// such as event targets and committed roots. SurfaceID must be safe to
// call from any goroutine.
type Node interface {
	// SurfaceID returns the surface the node belongs to.
	SurfaceID() ID
}

// Set is an unordered collection of surface IDs.
type Set map[ID]struct{}

// NewSet returns a Set containing the given IDs.
func NewSet(ids ...ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id into the set.
func (s Set) Add(id ID) {
	s[id] = struct{}{}
}

// Has reports whether id is in the set.
func (s Set) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// HasPendingUpdates reports whether target belongs to one of the surfaces
// in pending. A nil target belongs to no surface and never matches.
func HasPendingUpdates(target Node, pending Set) bool {
	if target == nil || len(pending) == 0 {
		return false
	}
	return pending.Has(target.SurfaceID())
}

// InRoot reports whether target belongs to the surface rooted at root.
// A nil target or nil root never matches.
func InRoot(target, root Node) bool {
	if target == nil || root == nil {
		return false
	}
	return target.SurfaceID() == root.SurfaceID()
}
