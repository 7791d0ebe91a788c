package oracle

import (
	"encoding/csv"
	"io"
	"strconv"
)

var csvHeader = []string{"event_idx", "event_type", "obj_id", "size", "site", "thread"}

// WriteCSV exports the stream in fixed-column tabular form for external
// analysis tools, one header row then one row per event. Free events leave
// the site and thread columns empty.
func (s *Stream) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, ev := range s.Events {
		row := []string{
			strconv.FormatInt(ev.Time, 10),
			ev.Type.String(),
			ev.ObjectID,
			strconv.FormatInt(ev.Size, 10),
			"",
			"",
		}
		if ev.Type == Alloc {
			row[4] = strconv.FormatInt(ev.SiteID, 10)
			row[5] = ev.ThreadID
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
