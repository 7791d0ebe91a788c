package trace

import (
	"bufio"
	"fmt"
	"io"

	"github.com/heapsim/tracemerge/utils/log"
)

// ReadRecords parses every line of r into a Record. Malformed lines are kept
// as KindUnknown and reported at debug level; only a read failure is an
// error. Record positions are the line indexes in r.
func ReadRecords(r io.Reader) ([]Record, error) {
	var records []Record

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	pos := 0
	for scanner.Scan() {
		rec, err := ParseLine(scanner.Text(), pos)
		if err != nil {
			log.Debug("skipping malformed line %d: %v", pos, err)
		}
		records = append(records, rec)
		pos++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading trace: %v", err)
	}
	return records, nil
}

// SplitDeaths separates embedded death records from the rest of the trace.
// Body records are renumbered to consecutive positions so a ClockMap built
// over them anchors insertion points correctly; deaths keep source order.
func SplitDeaths(records []Record) (body, deaths []Record) {
	for _, rec := range records {
		if rec.Kind == KindDeath {
			deaths = append(deaths, rec)
			continue
		}
		rec.Pos = len(body)
		if rec.Alloc != nil {
			a := *rec.Alloc
			a.Position = rec.Pos
			rec.Alloc = &a
		}
		body = append(body, rec)
	}
	return body, deaths
}
