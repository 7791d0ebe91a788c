// Package trace parses object-lifetime traces and tracks their logical clock.
//
// A trace is a whitespace-delimited text log, one record per line, tagged by
// its leading token:
//
//	N <obj-id> <size> <type-id> <site-id> <length> <thread-id>   scalar allocation
//	A <obj-id> <size> <type-id> <site-id> <length> <thread-id>   array allocation
//	M <method-id> <receiver-obj-id> <thread-id>                  method entry
//	E <method-id> <thread-id>                                    method exit
//	X <method-id> <thread-id>                                    exception exit
//	D <obj-id> <thread-id> <timestamp> [<size>]                  object death
//
// Blank lines and lines starting with '#' are carried through unchanged when a
// trace is rewritten, but never advance the clock.
package trace

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a trace line. The set is closed: every consumer switches
// over all kinds.
type Kind int

const (
	KindUnknown Kind = iota
	KindMethodEntry
	KindMethodExit
	KindExceptionExit
	KindScalarAlloc
	KindArrayAlloc
	KindDeath
	KindComment
	KindBlank
)

func (k Kind) String() string {
	switch k {
	case KindMethodEntry:
		return "method-entry"
	case KindMethodExit:
		return "method-exit"
	case KindExceptionExit:
		return "exception-exit"
	case KindScalarAlloc:
		return "scalar-alloc"
	case KindArrayAlloc:
		return "array-alloc"
	case KindDeath:
		return "death"
	case KindComment:
		return "comment"
	case KindBlank:
		return "blank"
	default:
		return "unknown"
	}
}

// Tag returns the leading token used for this kind in trace text, or "" for
// kinds that have no tag of their own.
func (k Kind) Tag() string {
	switch k {
	case KindMethodEntry:
		return "M"
	case KindMethodExit:
		return "E"
	case KindExceptionExit:
		return "X"
	case KindScalarAlloc:
		return "N"
	case KindArrayAlloc:
		return "A"
	case KindDeath:
		return "D"
	default:
		return ""
	}
}

// KindForTag maps a record tag back to its kind. Unlisted tags map to
// KindUnknown.
func KindForTag(tag string) Kind {
	switch tag {
	case "M":
		return KindMethodEntry
	case "E":
		return KindMethodExit
	case "X":
		return KindExceptionExit
	case "N":
		return KindScalarAlloc
	case "A":
		return KindArrayAlloc
	case "D":
		return KindDeath
	default:
		return KindUnknown
	}
}

// Allocation holds the fields of an N or A record. Immutable after parse.
type Allocation struct {
	ObjectID string
	Size     int64
	TypeID   int64
	SiteID   int64
	Length   int64
	Array    bool
	ThreadID string
	// Position is the record's index in its source trace.
	Position int
}

// DeathInfo holds the fields of a fixed-field D record embedded in a trace.
type DeathInfo struct {
	ObjectID string
	ThreadID string
	Time     int64
	Size     int64
	HasSize  bool
}

// Record is one parsed trace line.
type Record struct {
	Kind   Kind
	Pos    int
	Raw    string
	Fields []string
	Alloc  *Allocation // non-nil for KindScalarAlloc / KindArrayAlloc
	Death  *DeathInfo  // non-nil for KindDeath
}

// ParseLine classifies one trace line. Malformed lines (too few fields or
// non-numeric numerics for their kind) come back as KindUnknown together with
// a non-nil error describing the defect; the caller decides whether to report
// it. Parsing is never fatal.
func ParseLine(line string, pos int) (Record, error) {
	rec := Record{Kind: KindUnknown, Pos: pos, Raw: line}

	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		rec.Kind = KindBlank
		return rec, nil
	}
	if strings.HasPrefix(trimmed, "#") {
		rec.Kind = KindComment
		return rec, nil
	}

	fields := strings.Fields(trimmed)
	rec.Fields = fields
	kind := KindForTag(fields[0])

	switch kind {
	case KindMethodEntry, KindMethodExit, KindExceptionExit:
		// Fields past the tag are opaque to this pipeline.
		rec.Kind = kind
		return rec, nil

	case KindScalarAlloc, KindArrayAlloc:
		alloc, err := parseAllocation(fields, kind, pos)
		if err != nil {
			return rec, err
		}
		rec.Kind = kind
		rec.Alloc = alloc
		return rec, nil

	case KindDeath:
		death, err := parseDeathFields(fields)
		if err != nil {
			return rec, err
		}
		rec.Kind = kind
		rec.Death = death
		return rec, nil

	default:
		return rec, fmt.Errorf("unrecognized record tag %q", fields[0])
	}
}

func parseAllocation(fields []string, kind Kind, pos int) (*Allocation, error) {
	if len(fields) < 7 {
		return nil, fmt.Errorf("%s record has %d fields, want 7", kind, len(fields))
	}
	size, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s record size %q: %v", kind, fields[2], err)
	}
	typeID, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s record type id %q: %v", kind, fields[3], err)
	}
	siteID, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s record site id %q: %v", kind, fields[4], err)
	}
	length, err := strconv.ParseInt(fields[5], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s record length %q: %v", kind, fields[5], err)
	}
	return &Allocation{
		ObjectID: fields[1],
		Size:     size,
		TypeID:   typeID,
		SiteID:   siteID,
		Length:   length,
		Array:    kind == KindArrayAlloc,
		ThreadID: fields[6],
		Position: pos,
	}, nil
}

func parseDeathFields(fields []string) (*DeathInfo, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("death record has %d fields, want at least 4", len(fields))
	}
	ts, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("death record timestamp %q: %v", fields[3], err)
	}
	d := &DeathInfo{
		ObjectID: fields[1],
		ThreadID: fields[2],
		Time:     ts,
	}
	if len(fields) >= 5 {
		size, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("death record size %q: %v", fields[4], err)
		}
		d.Size = size
		d.HasSize = true
	}
	return d, nil
}
