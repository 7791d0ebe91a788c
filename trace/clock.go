package trace

// ClockMap is the position -> logical-time table for one trace, built by a
// single forward pass. It belongs to the trace-rewrite pipeline: the
// oracle-from-scratch builder uses its own record-index timeline and must
// never consult a ClockMap.
//
// Each position records the time at which its record occurs, i.e. the clock
// value before any increment that record causes. Deaths reported "at time T"
// therefore anchor after the last position still mapped to T: an object
// cannot die before the instant that advances the clock to its death time.
type ClockMap struct {
	timeAt  []int64
	lastPos map[int64]int
	max     int64
}

// BuildClockMap replays records in source order under format's clock rules.
// Blank, comment and unknown lines take the current time but never anchor a
// death insertion; embedded death records never advance the clock.
func BuildClockMap(records []Record, format Format) *ClockMap {
	m := &ClockMap{
		timeAt:  make([]int64, len(records)),
		lastPos: make(map[int64]int),
	}

	var now int64
	for i, rec := range records {
		m.timeAt[i] = now

		switch rec.Kind {
		case KindBlank, KindComment, KindUnknown, KindDeath:
			continue
		case KindMethodEntry, KindMethodExit, KindExceptionExit,
			KindScalarAlloc, KindArrayAlloc:
			m.lastPos[now] = i
			if format.Advances(rec.Kind) {
				now++
			}
		}
	}
	m.max = now
	return m
}

// TimeAt returns the logical time at position pos.
func (m *ClockMap) TimeAt(pos int) (int64, bool) {
	if pos < 0 || pos >= len(m.timeAt) {
		return 0, false
	}
	return m.timeAt[pos], true
}

// LastPosition returns the greatest position whose record occurs at time t.
func (m *ClockMap) LastPosition(t int64) (int, bool) {
	pos, ok := m.lastPos[t]
	return pos, ok
}

// MaxTime returns the clock value after the final record.
func (m *ClockMap) MaxTime() int64 {
	return m.max
}

// Len returns the number of positions in the table.
func (m *ClockMap) Len() int {
	return len(m.timeAt)
}
