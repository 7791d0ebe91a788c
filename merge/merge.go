// Package merge interleaves death records into a trace at their correct
// temporal positions.
//
// A death stamped "time T" is inserted immediately after the last trace
// record whose position maps to logical time T. Deaths whose timestamp maps
// to no position (beyond the end of the observed clock, or in a gap) degrade
// to an end-of-stream fallback with a warning; the merge never aborts.
package merge

import (
	"fmt"

	"github.com/heapsim/tracemerge/merlin"
	"github.com/heapsim/tracemerge/trace"
	"github.com/heapsim/tracemerge/utils/log"
)

// Plan maps anchor positions in a trace body to the deaths inserted after
// them. Build one with NewPlan, then Interleave the trace through it.
type Plan struct {
	groups  map[int][]merlin.Death
	orphans []merlin.Death
	placed  int
}

// NewPlan groups deaths by their insertion anchor under clock. Deaths are
// taken in timestamp order with input order preserved among equal timestamps,
// so each anchor's group and the orphan list are both stable.
func NewPlan(clock *trace.ClockMap, deaths []merlin.Death) *Plan {
	sorted := make([]merlin.Death, len(deaths))
	copy(sorted, deaths)
	merlin.SortByTime(sorted)

	p := &Plan{groups: make(map[int][]merlin.Death)}
	for _, d := range sorted {
		pos, ok := clock.LastPosition(d.Time)
		if !ok {
			log.Warn("death time %d for object %s has no trace position (max observed time %d); deferring to end of stream",
				d.Time, d.ObjectID, clock.MaxTime())
			p.orphans = append(p.orphans, d)
			continue
		}
		p.groups[pos] = append(p.groups[pos], d)
		p.placed++
	}
	return p
}

// Placed returns the number of deaths anchored to a trace position.
func (p *Plan) Placed() int { return p.placed }

// Orphans returns the deaths that fell off the clock, in timestamp order.
func (p *Plan) Orphans() []merlin.Death { return p.orphans }

// Interleave emits body records in source order with each anchor's deaths
// inserted directly after it, then the orphans. Blank and comment lines pass
// through unchanged; unknown lines are dropped (they were already reported at
// parse time). Body positions must match the ClockMap the plan was built
// from.
func (p *Plan) Interleave(body []trace.Record, format trace.Format) []string {
	out := make([]string, 0, len(body)+p.placed+len(p.orphans))
	for _, rec := range body {
		if rec.Kind != trace.KindUnknown {
			out = append(out, rec.Raw)
		}
		for _, d := range p.groups[rec.Pos] {
			log.Debug("inserting death of object %s at time %d after position %d",
				d.ObjectID, d.Time, rec.Pos)
			out = append(out, RenderDeath(d, format))
		}
	}
	for _, d := range p.orphans {
		log.Warn("appending unplaceable death of object %s (time %d) at end of stream",
			d.ObjectID, d.Time)
		out = append(out, RenderDeath(d, format))
	}
	return out
}

// RenderDeath formats a death as a fixed-field trace line. Deaths that came
// from an existing trace stream are re-emitted verbatim; synthesized lines
// take the format's default thread id when the report carried none.
func RenderDeath(d merlin.Death, format trace.Format) string {
	if d.Raw != "" {
		return d.Raw
	}
	thread := d.ThreadID
	if thread == "" {
		thread = format.DeathThreadID
	}
	if d.HasSize {
		return fmt.Sprintf("D %s %s %d %d", d.ObjectID, thread, d.Time, d.Size)
	}
	return fmt.Sprintf("D %s %s %d", d.ObjectID, thread, d.Time)
}
