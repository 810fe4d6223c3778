package perfentry

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultEntryCapacity = 512
	// defaultSlowThreshold matches the Event Timing durationThreshold
	// default of 104ms.
	defaultSlowThreshold = 104 * time.Millisecond
)

// Timeline is a point-in-time view of a BufferedReporter.
type Timeline struct {
	// Entries holds the buffered records in chronological order.
	Entries []Event
	// Slow counts entries whose duration exceeded the slow threshold.
	Slow int
	// Dropped counts entries overwritten in the ring and no longer
	// readable.
	Dropped int
	// Total counts every entry ever reported, including ones that have
	// since been overwritten in the ring. The i-th entry in Entries has
	// sequence number Total - len(Entries) + i + 1.
	Total uint64
	// Threshold is the slow entry threshold in effect.
	Threshold time.Duration
}

// EntryHandler receives entries from a BufferedReporter subscription.
type EntryHandler struct {
	OnEntry func(e Event)
	OnDone  func()
}

// Subscription represents an active entry subscription.
type Subscription struct {
	reporter *BufferedReporter
	handler  *EntryHandler
	canceled atomic.Bool
}

// Cancel stops receiving entries on this subscription.
func (s *Subscription) Cancel() {
	if s.canceled.CompareAndSwap(false, true) {
		s.reporter.removeSubscription(s)
	}
}

// IsCanceled returns true if this subscription has been canceled.
func (s *Subscription) IsCanceled() bool {
	return s.canceled.Load()
}

// BufferedReporter stores recent settled entries in a ring buffer and
// fans them out to live subscribers. It is the standard in-process sink
// behind the debug observer and the export pipeline.
type BufferedReporter struct {
	mu        sync.RWMutex
	entries   []Event
	index     int
	count     int
	slow      int
	dropped   int
	total     uint64
	threshold time.Duration
	subs      []*Subscription
	closed    bool

	handle *Handle
}

// NewBufferedReporter creates a reporter holding up to capacity entries.
func NewBufferedReporter(capacity int) *BufferedReporter {
	if capacity <= 0 {
		capacity = defaultEntryCapacity
	}
	r := &BufferedReporter{
		entries:   make([]Event, capacity),
		threshold: defaultSlowThreshold,
	}
	r.handle = NewHandle(r)
	return r
}

// Handle returns the liveness handle producers probe before reporting.
// Close expires it.
func (r *BufferedReporter) Handle() *Handle {
	return r.handle
}

// Capacity returns the ring capacity.
func (r *BufferedReporter) Capacity() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// SetSlowThreshold updates the slow entry threshold.
func (r *BufferedReporter) SetSlowThreshold(threshold time.Duration) {
	if threshold <= 0 {
		threshold = defaultSlowThreshold
	}
	r.mu.Lock()
	r.threshold = threshold
	r.mu.Unlock()
}

// SlowThreshold returns the slow entry threshold.
func (r *BufferedReporter) SlowThreshold() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.threshold
}

// ReportEvent records a settled entry and notifies subscribers.
// Subscribers run outside the buffer lock.
func (r *BufferedReporter) ReportEvent(e Event) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.total++
	r.entries[r.index] = e
	r.index = (r.index + 1) % len(r.entries)
	if r.count < len(r.entries) {
		r.count++
	} else {
		r.dropped++
	}
	if e.Duration > r.threshold {
		r.slow++
	}
	subs := make([]*Subscription, len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	for _, sub := range subs {
		if !sub.IsCanceled() && sub.handler.OnEntry != nil {
			sub.handler.OnEntry(e)
		}
	}
}

// Snapshot returns a chronological copy of buffered entries and stats.
func (r *BufferedReporter) Snapshot() Timeline {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return Timeline{Slow: r.slow, Dropped: r.dropped, Total: r.total, Threshold: r.threshold}
	}

	result := make([]Event, r.count)
	if r.count < len(r.entries) {
		copy(result, r.entries[:r.count])
	} else {
		copy(result, r.entries[r.index:])
		copy(result[len(r.entries)-r.index:], r.entries[:r.index])
	}

	return Timeline{
		Entries:   result,
		Slow:      r.slow,
		Dropped:   r.dropped,
		Total:     r.total,
		Threshold: r.threshold,
	}
}

// Subscribe registers a handler for entries reported after this call.
// Subscribing to a closed reporter returns an already canceled
// subscription after invoking OnDone.
func (r *BufferedReporter) Subscribe(handler EntryHandler) *Subscription {
	sub := &Subscription{
		reporter: r,
		handler:  &handler,
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		sub.canceled.Store(true)
		if handler.OnDone != nil {
			handler.OnDone()
		}
		return sub
	}
	r.subs = append(r.subs, sub)
	r.mu.Unlock()
	return sub
}

// removeSubscription removes a subscription from the reporter.
func (r *BufferedReporter) removeSubscription(sub *Subscription) {
	r.mu.Lock()
	for i, s := range r.subs {
		if s == sub {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
}

// Close expires the handle, so producers probing it stop reporting, and
// ends all subscriptions. Buffered entries stay readable via Snapshot.
func (r *BufferedReporter) Close() {
	r.handle.Expire()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	for _, sub := range subs {
		sub.canceled.Store(true)
		if sub.handler.OnDone != nil {
			sub.handler.OnDone()
		}
	}
}
