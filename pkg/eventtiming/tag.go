package eventtiming

import "sync/atomic"

// Tag identifies one tracked event instance. Tags strictly increase for
// the life of the process and are never reused.
type Tag uint64

// EmptyTag marks "no tracked event". It is returned for untracked event
// types and when the sink is gone, and never maps to an in-flight entry.
const EmptyTag Tag = 0

// tagCounter is the process-wide tag source. The first allocated tag is 1.
var tagCounter atomic.Uint64

func nextTag() Tag {
	return Tag(tagCounter.Add(1))
}
