// Package oracle builds the merged alloc/free event stream used as ground
// truth for memory-management experiments, and serializes it for human and
// tabular consumers.
//
// The oracle timeline is deliberately simpler than the trace-rewrite clock:
// an allocation's time is its sequential position among allocation and death
// records in the trace, and a free keeps the logical timestamp its death
// report carried. The two timelines are never mixed; this package never
// consults a trace.ClockMap.
package oracle

import (
	"github.com/heapsim/tracemerge/trace"
)

// EventType tags an Event as an allocation or a free.
type EventType int

const (
	Alloc EventType = iota
	Free
)

func (t EventType) String() string {
	if t == Free {
		return "free"
	}
	return "alloc"
}

// Event is one entry of the oracle stream. For Free events, Alloc links the
// matching allocation record and is nil for phantom objects (death reported,
// allocation outside the observed window); consumers must handle the nil
// case.
type Event struct {
	Time     int64
	Type     EventType
	ObjectID string
	Size     int64
	SiteID   int64  // Alloc only
	ThreadID string // Alloc only
	Alloc    *trace.Allocation
}

// Stream is a time-ordered oracle event sequence.
type Stream struct {
	Events []Event
}

// Allocs counts allocation events.
func (s *Stream) Allocs() int {
	n := 0
	for _, ev := range s.Events {
		if ev.Type == Alloc {
			n++
		}
	}
	return n
}

// Frees counts free events.
func (s *Stream) Frees() int {
	return len(s.Events) - s.Allocs()
}
