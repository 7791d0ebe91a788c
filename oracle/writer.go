package oracle

import (
	"bufio"
	"fmt"
	"io"
)

// Write serializes the stream in its line-oriented human-readable form: a
// header comment block with event counts, then one line per event.
func (s *Stream) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	allocs := s.Allocs()
	fmt.Fprintln(bw, "# True Oracle Event Stream")
	fmt.Fprintln(bw, "# Format: t<event_idx>: alloc(id=<obj_id>, size=<bytes>, site=<site_id>, thread=<thread_id>)")
	fmt.Fprintln(bw, "#         t<event_idx>: free(id=<obj_id>, size=<bytes>)")
	fmt.Fprintf(bw, "# Total events: %d\n", len(s.Events))
	fmt.Fprintf(bw, "# Allocations: %d\n", allocs)
	fmt.Fprintf(bw, "# Frees: %d\n", len(s.Events)-allocs)
	fmt.Fprintln(bw)

	for _, ev := range s.Events {
		switch ev.Type {
		case Alloc:
			fmt.Fprintf(bw, "t%d: alloc(id=%s, size=%d, site=%d, thread=%s)\n",
				ev.Time, ev.ObjectID, ev.Size, ev.SiteID, ev.ThreadID)
		case Free:
			fmt.Fprintf(bw, "t%d: free(id=%s, size=%d)\n", ev.Time, ev.ObjectID, ev.Size)
		}
	}
	return bw.Flush()
}
