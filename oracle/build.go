package oracle

import (
	"sort"

	"github.com/heapsim/tracemerge/merlin"
	"github.com/heapsim/tracemerge/trace"
	"github.com/heapsim/tracemerge/utils/log"
)

// Build constructs the oracle stream from a parsed trace and a set of
// normalized deaths.
//
// Every allocation record yields exactly one Alloc event, timed by its
// position among allocation/death records. Every death yields exactly one
// Free event at its reported timestamp; deaths naming an object never seen
// allocated stay in the stream as phantom frees with a warning. The final
// sort is stable, so allocations precede frees sharing their timestamp and
// same-timestamp deaths keep input order.
func Build(records []trace.Record, deaths []merlin.Death) *Stream {
	byObject := make(map[string]*trace.Allocation)

	var events []Event
	var clock int64
	for _, rec := range records {
		switch rec.Kind {
		case trace.KindScalarAlloc, trace.KindArrayAlloc:
			a := rec.Alloc
			byObject[a.ObjectID] = a
			events = append(events, Event{
				Time:     clock,
				Type:     Alloc,
				ObjectID: a.ObjectID,
				Size:     a.Size,
				SiteID:   a.SiteID,
				ThreadID: a.ThreadID,
				Alloc:    a,
			})
			log.Debug("allocation of object %s at t%d, size=%d", a.ObjectID, clock, a.Size)
			clock++
		case trace.KindDeath:
			clock++
		}
	}

	for _, d := range deaths {
		ev := Event{
			Time:     d.Time,
			Type:     Free,
			ObjectID: d.ObjectID,
			Size:     d.Size,
		}
		if a, ok := byObject[d.ObjectID]; ok {
			ev.Alloc = a
		} else {
			log.Warn("death of unknown object %s at t%d has no allocation record (phantom object)",
				d.ObjectID, d.Time)
		}
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time < events[j].Time
	})

	return &Stream{Events: events}
}
