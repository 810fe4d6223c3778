package perfentry

import "sync/atomic"

// Handle is a liveness-checked reference to a Reporter. The owner of the
// reporter expires the handle when the reporter is torn down; producers
// holding the handle observe the expiry on their next Get. Get must be
// called fresh before every use, never cached across operations.
type Handle struct {
	r atomic.Pointer[Reporter]
}

// NewHandle returns a handle referencing r. A nil reporter yields a
// handle that is already expired.
func NewHandle(r Reporter) *Handle {
	h := &Handle{}
	if r != nil {
		h.r.Store(&r)
	}
	return h
}

// Get returns the reporter and true while the handle is live.
// It is safe to call on a nil handle.
func (h *Handle) Get() (Reporter, bool) {
	if h == nil {
		return nil, false
	}
	p := h.r.Load()
	if p == nil {
		return nil, false
	}
	return *p, true
}

// Expire detaches the reporter. All subsequent Get calls report the
// handle as dead. Expiring an already expired handle is a no-op.
func (h *Handle) Expire() {
	if h == nil {
		return
	}
	h.r.Store(nil)
}
