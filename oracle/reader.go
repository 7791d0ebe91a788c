package oracle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/heapsim/tracemerge/utils/log"
)

var (
	allocMatcher = regexp.MustCompile(`^t(\d+): alloc\(id=(\S+), size=(\d+), site=(-?\d+), thread=(\S+)\)$`)
	freeMatcher  = regexp.MustCompile(`^t(\d+): free\(id=(\S+), size=(\d+)\)$`)
)

// Read parses a stream previously serialized by Write. Comment and blank
// lines are skipped; lines matching neither event form are reported at debug
// level and dropped. Free events read back carry no allocation link.
func Read(r io.Reader) (*Stream, error) {
	s := &Stream{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if m := allocMatcher.FindStringSubmatch(line); m != nil {
			t, _ := strconv.ParseInt(m[1], 10, 64)
			size, _ := strconv.ParseInt(m[3], 10, 64)
			site, _ := strconv.ParseInt(m[4], 10, 64)
			s.Events = append(s.Events, Event{
				Time:     t,
				Type:     Alloc,
				ObjectID: m[2],
				Size:     size,
				SiteID:   site,
				ThreadID: m[5],
			})
			continue
		}
		if m := freeMatcher.FindStringSubmatch(line); m != nil {
			t, _ := strconv.ParseInt(m[1], 10, 64)
			size, _ := strconv.ParseInt(m[3], 10, 64)
			s.Events = append(s.Events, Event{
				Time:     t,
				Type:     Free,
				ObjectID: m[2],
				Size:     size,
			})
			continue
		}
		log.Debug("skipping unrecognized oracle line %d: %q", lineNo, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading oracle stream: %v", err)
	}
	return s, nil
}
