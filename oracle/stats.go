package oracle

import (
	"sort"

	"code.cloudfoundry.org/bytefmt"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/heapsim/tracemerge/utils/log"
)

// Summary holds the statistics block printed after an oracle build.
type Summary struct {
	Events int
	Allocs int
	Frees  int

	AllocatedBytes int64
	FreedBytes     int64
	LiveBytes      int64

	MeanSize   float64
	StdDevSize float64
	P50Size    float64
	P90Size    float64

	// Lifetime statistics cover frees whose object has an allocation event
	// in the same stream; phantoms have no lifetime.
	Matched      int
	MeanLifetime float64
	P50Lifetime  float64
}

// Summarize computes allocation-size and object-lifetime statistics over the
// stream.
func Summarize(s *Stream) Summary {
	sum := Summary{Events: len(s.Events)}

	var sizes []float64
	allocAt := make(map[string]int64)
	var lifetimes []float64

	for _, ev := range s.Events {
		switch ev.Type {
		case Alloc:
			sum.Allocs++
			sum.AllocatedBytes += ev.Size
			sizes = append(sizes, float64(ev.Size))
			allocAt[ev.ObjectID] = ev.Time
		case Free:
			sum.Frees++
			sum.FreedBytes += ev.Size
			if at, ok := allocAt[ev.ObjectID]; ok {
				lifetimes = append(lifetimes, float64(ev.Time-at))
			}
		}
	}
	sum.LiveBytes = sum.AllocatedBytes - sum.FreedBytes
	sum.Matched = len(lifetimes)

	if len(sizes) > 0 {
		sum.MeanSize = floats.Sum(sizes) / float64(len(sizes))
		sum.StdDevSize = stat.StdDev(sizes, nil)
		sort.Float64s(sizes)
		sum.P50Size = stat.Quantile(0.5, stat.Empirical, sizes, nil)
		sum.P90Size = stat.Quantile(0.9, stat.Empirical, sizes, nil)
	}
	if len(lifetimes) > 0 {
		sum.MeanLifetime = stat.Mean(lifetimes, nil)
		sort.Float64s(lifetimes)
		sum.P50Lifetime = stat.Quantile(0.5, stat.Empirical, lifetimes, nil)
	}
	return sum
}

// Log prints the summary through the standard logger.
func (sum Summary) Log() {
	log.Info("oracle: %d events (%d allocations, %d frees)", sum.Events, sum.Allocs, sum.Frees)
	log.Info("memory: %s allocated, %s freed, %s still live at end",
		signedByteSize(sum.AllocatedBytes), signedByteSize(sum.FreedBytes), signedByteSize(sum.LiveBytes))
	if sum.Allocs > 0 {
		log.Info("allocation size: mean=%.1f stddev=%.1f p50=%.0f p90=%.0f bytes",
			sum.MeanSize, sum.StdDevSize, sum.P50Size, sum.P90Size)
	}
	if sum.Matched > 0 {
		log.Info("object lifetime (%d matched pairs): mean=%.1f p50=%.0f logical ticks",
			sum.Matched, sum.MeanLifetime, sum.P50Lifetime)
	}
}

// signedByteSize humanizes a byte count that can go negative when phantom
// frees outweigh observed allocations.
func signedByteSize(n int64) string {
	if n < 0 {
		return "-" + bytefmt.ByteSize(uint64(-n))
	}
	return bytefmt.ByteSize(uint64(n))
}
