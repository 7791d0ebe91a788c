package merge

import (
	"fmt"

	"github.com/heapsim/tracemerge/trace"
	"github.com/heapsim/tracemerge/utils/log"
)

// Report summarizes a validation replay of a merged trace.
type Report struct {
	Deaths           int
	DeathsInOrder    int
	DeathsAfterBirth int
	Objects          int
	Errors           []string
}

// Validate replays a merged trace and checks that every death record appears
// at or after the clock value of its timestamp, and at or after its object's
// allocation time. Violations are collected and logged as advisory
// diagnostics, never returned as an error.
func Validate(lines []string, format trace.Format) Report {
	var rep Report

	var clock int64
	allocTime := make(map[string]int64)

	for i, line := range lines {
		rec, err := trace.ParseLine(line, i)
		if err != nil {
			continue
		}

		if format.Advances(rec.Kind) {
			clock++
		}
		if rec.Alloc != nil {
			allocTime[rec.Alloc.ObjectID] = clock
			rep.Objects++
		}
		if rec.Kind != trace.KindDeath {
			continue
		}

		rep.Deaths++
		d := rec.Death
		if at, seen := allocTime[d.ObjectID]; seen {
			if d.Time >= at {
				rep.DeathsAfterBirth++
			} else {
				rep.Errors = append(rep.Errors, fmt.Sprintf(
					"object %s died at %d but was allocated at %d", d.ObjectID, d.Time, at))
			}
		}
		if d.Time <= clock {
			rep.DeathsInOrder++
		} else {
			rep.Errors = append(rep.Errors, fmt.Sprintf(
				"death at timestamp %d appears at logical time %d", d.Time, clock))
		}
	}

	for _, msg := range rep.Errors {
		log.Error("validate: %s", msg)
	}
	log.Info("validate: %d/%d deaths correctly ordered, %d after allocation, %d objects allocated",
		rep.DeathsInOrder, rep.Deaths, rep.DeathsAfterBirth, rep.Objects)
	return rep
}
