package oracle_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/heapsim/tracemerge/merlin"
	"github.com/heapsim/tracemerge/oracle"
	"github.com/heapsim/tracemerge/trace"
	"github.com/stretchr/testify/assert"
)

const oracleTrace = `N 1 32 0 5 0 100
M 7 1 100
A 2 40 9 6 10 100
E 7 100
`

func buildStream(t *testing.T, traceText string, deaths []merlin.Death) *oracle.Stream {
	t.Helper()
	records, err := trace.ReadRecords(strings.NewReader(traceText))
	if err != nil {
		t.Fatal("failed to read trace: " + err.Error())
	}
	return oracle.Build(records, deaths)
}

func TestBuildEmitsOneAllocPerAllocation(t *testing.T) {
	stream := buildStream(t, oracleTrace, nil)

	assert.Equal(t, 2, stream.Allocs())
	assert.Equal(t, 0, stream.Frees())

	first := stream.Events[0]
	assert.Equal(t, oracle.Alloc, first.Type)
	assert.Equal(t, "1", first.ObjectID)
	assert.Equal(t, int64(32), first.Size)
	assert.Equal(t, int64(5), first.SiteID)
	assert.Equal(t, "100", first.ThreadID)
	if assert.NotNil(t, first.Alloc) {
		assert.Equal(t, int64(0), first.Alloc.TypeID)
	}

	// allocation times follow the position among allocation/death records,
	// not the line number: the A record is the second such record.
	second := stream.Events[1]
	assert.Equal(t, "2", second.ObjectID)
	assert.Equal(t, int64(0), first.Time)
	assert.Equal(t, int64(1), second.Time)
}

func TestBuildMatchedAndPhantomFrees(t *testing.T) {
	deaths := []merlin.Death{
		{ObjectID: "1", Time: 1, Size: 32, HasSize: true, Ordinal: 0},
		{ObjectID: "999", Time: 1, Size: 8, HasSize: true, Ordinal: 1},
	}
	stream := buildStream(t, oracleTrace, deaths)

	assert.Equal(t, 2, stream.Frees())

	var matched, phantom *oracle.Event
	for i := range stream.Events {
		ev := &stream.Events[i]
		if ev.Type != oracle.Free {
			continue
		}
		if ev.ObjectID == "1" {
			matched = ev
		} else {
			phantom = ev
		}
	}
	if assert.NotNil(t, matched) {
		assert.NotNil(t, matched.Alloc)
	}
	if assert.NotNil(t, phantom) {
		assert.Equal(t, "999", phantom.ObjectID)
		assert.Nil(t, phantom.Alloc)
		assert.Equal(t, int64(8), phantom.Size)
	}
}

func TestBuildOrderingIsStable(t *testing.T) {
	deaths := []merlin.Death{
		{ObjectID: "1", Time: 1, Size: 32, HasSize: true, Ordinal: 0},
		{ObjectID: "999", Time: 1, Size: 8, HasSize: true, Ordinal: 1},
	}
	stream := buildStream(t, oracleTrace, deaths)

	// At time 1: the A allocation comes before both frees, and the two
	// same-timestamp frees keep input order.
	var at1 []string
	for _, ev := range stream.Events {
		if ev.Time == 1 {
			at1 = append(at1, ev.Type.String()+":"+ev.ObjectID)
		}
	}
	assert.Equal(t, []string{"alloc:2", "free:1", "free:999"}, at1)

	prev := int64(-1)
	for _, ev := range stream.Events {
		assert.True(t, ev.Time >= prev, "stream not sorted by timestamp")
		prev = ev.Time
	}
}

func TestWriteFormat(t *testing.T) {
	deaths := []merlin.Death{{ObjectID: "1", Time: 3, Size: 32, HasSize: true}}
	stream := buildStream(t, oracleTrace, deaths)

	var buf bytes.Buffer
	assert.Nil(t, stream.Write(&buf))

	out := buf.String()
	assert.Contains(t, out, "# True Oracle Event Stream")
	assert.Contains(t, out, "# Total events: 3")
	assert.Contains(t, out, "# Allocations: 2")
	assert.Contains(t, out, "# Frees: 1")
	assert.Contains(t, out, "t0: alloc(id=1, size=32, site=5, thread=100)")
	assert.Contains(t, out, "t1: alloc(id=2, size=40, site=6, thread=100)")
	assert.Contains(t, out, "t3: free(id=1, size=32)")
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	deaths := []merlin.Death{
		{ObjectID: "1", Time: 3, Size: 32, HasSize: true, Ordinal: 0},
		{ObjectID: "999", Time: 4, Size: 8, HasSize: true, Ordinal: 1},
	}
	stream := buildStream(t, oracleTrace, deaths)

	var buf bytes.Buffer
	assert.Nil(t, stream.Write(&buf))

	back, err := oracle.Read(&buf)
	assert.Nil(t, err)
	assert.Len(t, back.Events, len(stream.Events))
	for i, ev := range back.Events {
		want := stream.Events[i]
		assert.Equal(t, want.Time, ev.Time)
		assert.Equal(t, want.Type, ev.Type)
		assert.Equal(t, want.ObjectID, ev.ObjectID)
		assert.Equal(t, want.Size, ev.Size)
	}
}

func TestWriteIsDeterministic(t *testing.T) {
	deaths := []merlin.Death{
		{ObjectID: "999", Time: 0, Size: 8, HasSize: true, Ordinal: 0},
		{ObjectID: "1", Time: 3, Size: 32, HasSize: true, Ordinal: 1},
	}

	var first, second bytes.Buffer
	assert.Nil(t, buildStream(t, oracleTrace, deaths).Write(&first))
	assert.Nil(t, buildStream(t, oracleTrace, deaths).Write(&second))
	assert.Equal(t, first.String(), second.String())
}

func TestWriteCSV(t *testing.T) {
	deaths := []merlin.Death{{ObjectID: "999", Time: 2, Size: 8, HasSize: true}}
	stream := buildStream(t, oracleTrace, deaths)

	var buf bytes.Buffer
	assert.Nil(t, stream.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "event_idx,event_type,obj_id,size,site,thread", lines[0])
	assert.Equal(t, "0,alloc,1,32,5,100", lines[1])
	assert.Equal(t, "1,alloc,2,40,6,100", lines[2])
	assert.Equal(t, "2,free,999,8,,", lines[3])
}

func TestSummarize(t *testing.T) {
	deaths := []merlin.Death{
		{ObjectID: "1", Time: 3, Size: 32, HasSize: true, Ordinal: 0},
		{ObjectID: "999", Time: 4, Size: 8, HasSize: true, Ordinal: 1},
	}
	stream := buildStream(t, oracleTrace, deaths)

	sum := oracle.Summarize(stream)
	assert.Equal(t, 4, sum.Events)
	assert.Equal(t, 2, sum.Allocs)
	assert.Equal(t, 2, sum.Frees)
	assert.Equal(t, int64(72), sum.AllocatedBytes)
	assert.Equal(t, int64(40), sum.FreedBytes)
	assert.Equal(t, int64(32), sum.LiveBytes)
	assert.Equal(t, 36.0, sum.MeanSize)

	// only the matched pair contributes a lifetime: alloc at t0, free at t3
	assert.Equal(t, 1, sum.Matched)
	assert.Equal(t, 3.0, sum.MeanLifetime)
}
