// Package merlin normalizes the out-of-band death reports produced by the
// offline Merlin liveness analysis into typed records.
//
// Two report shapes exist in the wild and may be mixed in one file:
//
//	D <obj-id> at time <t> (size: <s> bytes[, type: <name>])   narrative
//	D <obj-id> <thread-id> <timestamp> [<size>]                fixed-field
//
// A death whose object was never seen allocated is still a legitimate record:
// it names an object allocated outside the observed trace window (phantom
// object) and must survive normalization.
package merlin

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/heapsim/tracemerge/trace"
	"github.com/heapsim/tracemerge/utils/log"
)

// Death is one normalized death report.
type Death struct {
	ObjectID string
	ThreadID string // empty for narrative reports
	Time     int64
	Size     int64
	HasSize  bool
	Type     string // object type name, narrative reports only
	// Ordinal is the record's index in its input, used as the stable
	// tie-break among deaths sharing a timestamp.
	Ordinal int
	// Raw is the original line when the death came from an existing trace
	// stream; rewrites re-emit it verbatim.
	Raw string
}

var narrativeMatcher = regexp.MustCompile(
	`^D (\S+) at time (\d+) \(size: (\d+) bytes(?:, type: (.+?))?\)`)

// ParseNarrative parses the narrative report shape.
func ParseNarrative(line string) (Death, bool) {
	m := narrativeMatcher.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Death{}, false
	}
	t, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Death{}, false
	}
	size, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return Death{}, false
	}
	return Death{
		ObjectID: m[1],
		Time:     t,
		Size:     size,
		HasSize:  true,
		Type:     strings.TrimSuffix(m[4], " [end]"),
	}, true
}

// ParseFixed parses the fixed-field report shape from pre-split fields.
func ParseFixed(fields []string) (Death, bool) {
	if len(fields) < 4 || fields[0] != "D" {
		return Death{}, false
	}
	t, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return Death{}, false
	}
	d := Death{
		ObjectID: fields[1],
		ThreadID: fields[2],
		Time:     t,
	}
	if len(fields) >= 5 {
		size, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return Death{}, false
		}
		d.Size = size
		d.HasSize = true
	}
	return d, true
}

// FromRecord converts an embedded trace death record, keeping its raw line so
// a rewrite can re-emit it unchanged.
func FromRecord(rec trace.Record) (Death, bool) {
	if rec.Kind != trace.KindDeath || rec.Death == nil {
		return Death{}, false
	}
	return Death{
		ObjectID: rec.Death.ObjectID,
		ThreadID: rec.Death.ThreadID,
		Time:     rec.Death.Time,
		Size:     rec.Death.Size,
		HasSize:  rec.Death.HasSize,
		Raw:      rec.Raw,
	}, true
}

// ReadDeaths parses a death-report file, auto-detecting the shape per line.
// Lines matching neither shape are skipped with a debug diagnostic; only a
// read failure is an error. Ordinals follow input order.
func ReadDeaths(r io.Reader) ([]Death, error) {
	var deaths []Death

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		d, ok := ParseNarrative(line)
		if !ok {
			d, ok = ParseFixed(strings.Fields(line))
		}
		if !ok {
			log.Debug("skipping unparseable death report at line %d: %q", lineNo, line)
			continue
		}
		d.Ordinal = len(deaths)
		deaths = append(deaths, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading death reports: %v", err)
	}
	return deaths, nil
}

// SortByTime orders deaths by timestamp ascending, input order preserved
// among equal timestamps.
func SortByTime(deaths []Death) {
	sort.SliceStable(deaths, func(i, j int) bool {
		if deaths[i].Time != deaths[j].Time {
			return deaths[i].Time < deaths[j].Time
		}
		return deaths[i].Ordinal < deaths[j].Ordinal
	})
}
