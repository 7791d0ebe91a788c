package merge

import (
	"strings"
	"testing"

	"github.com/heapsim/tracemerge/merlin"
	"github.com/heapsim/tracemerge/trace"
	. "gopkg.in/check.v1"
)

func Test(t *testing.T) { TestingT(t) }

type MergeTestSuite struct{}

var _ = Suite(&MergeTestSuite{})

func readBody(c *C, text string) []trace.Record {
	records, err := trace.ReadRecords(strings.NewReader(text))
	c.Assert(err, IsNil)
	body, _ := trace.SplitDeaths(records)
	return body
}

func (s *MergeTestSuite) TestDeathInsertedAfterLastRecordAtItsTime(c *C) {
	// Object 1 dies at logical time 1. Under the method-boundary clock the
	// second M is the last record at time 1, so the death lands between it
	// and the second N.
	body := readBody(c, "N 1 32 0 5 0 100\nM\nM\nN 2 16 0 6 0 100\n")
	format := trace.RewriteFormat()
	clock := trace.BuildClockMap(body, format)

	deaths := []merlin.Death{
		{ObjectID: "1", ThreadID: "100", Time: 1, Size: 32, HasSize: true},
	}
	lines := NewPlan(clock, deaths).Interleave(body, format)

	c.Assert(lines, DeepEquals, []string{
		"N 1 32 0 5 0 100",
		"M",
		"M",
		"D 1 100 1 32",
		"N 2 16 0 6 0 100",
	})
}

func (s *MergeTestSuite) TestOrphanTimestampAppendedAtEnd(c *C) {
	// Max observed logical time is 2; a death at 50 cannot be placed and
	// degrades to the end of the stream instead of being dropped.
	body := readBody(c, "N 1 32 0 5 0 100\nM\nM\n")
	format := trace.RewriteFormat()
	clock := trace.BuildClockMap(body, format)

	deaths := []merlin.Death{
		{ObjectID: "1", ThreadID: "100", Time: 50, Size: 32, HasSize: true},
	}
	plan := NewPlan(clock, deaths)
	c.Assert(plan.Placed(), Equals, 0)
	c.Assert(plan.Orphans(), HasLen, 1)

	lines := plan.Interleave(body, format)
	c.Assert(lines[len(lines)-1], Equals, "D 1 100 50 32")
}

func (s *MergeTestSuite) TestSameTimestampDeathsKeepInputOrder(c *C) {
	body := readBody(c, "N 1 32 0 5 0 100\nN 2 16 0 6 0 100\nM\n")
	format := trace.MergeFormat()
	clock := trace.BuildClockMap(body, format)

	deaths := []merlin.Death{
		{ObjectID: "2", ThreadID: "100", Time: 2, Size: 16, HasSize: true, Ordinal: 0},
		{ObjectID: "1", ThreadID: "100", Time: 2, Size: 32, HasSize: true, Ordinal: 1},
	}
	lines := NewPlan(clock, deaths).Interleave(body, format)

	c.Assert(lines, DeepEquals, []string{
		"N 1 32 0 5 0 100",
		"N 2 16 0 6 0 100",
		"M",
		"D 2 100 2 16",
		"D 1 100 2 32",
	})
}

func (s *MergeTestSuite) TestCommentsAndBlanksPassThrough(c *C) {
	body := readBody(c, "# header\nN 1 32 0 5 0 100\n\nM\n")
	format := trace.RewriteFormat()
	clock := trace.BuildClockMap(body, format)

	lines := NewPlan(clock, nil).Interleave(body, format)
	c.Assert(lines, DeepEquals, []string{"# header", "N 1 32 0 5 0 100", "", "M"})
}

func (s *MergeTestSuite) TestEmbeddedDeathReemittedVerbatim(c *C) {
	records, err := trace.ReadRecords(strings.NewReader(
		"N 1 32 0 5 0 100\nM\nM\nD 1 100 1 32\n"))
	c.Assert(err, IsNil)
	body, embedded := trace.SplitDeaths(records)

	var deaths []merlin.Death
	for _, rec := range embedded {
		d, ok := merlin.FromRecord(rec)
		c.Assert(ok, Equals, true)
		d.Ordinal = len(deaths)
		deaths = append(deaths, d)
	}

	format := trace.RewriteFormat()
	lines := NewPlan(trace.BuildClockMap(body, format), deaths).Interleave(body, format)
	c.Assert(lines, DeepEquals, []string{
		"N 1 32 0 5 0 100",
		"M",
		"M",
		"D 1 100 1 32",
	})
}

func (s *MergeTestSuite) TestMergeIsDeterministic(c *C) {
	body := readBody(c, "N 1 32 0 5 0 100\nM\nN 2 16 0 6 0 100\nM\nE\n")
	format := trace.RewriteFormat()
	clock := trace.BuildClockMap(body, format)

	deaths := []merlin.Death{
		{ObjectID: "2", ThreadID: "100", Time: 2, Size: 16, HasSize: true, Ordinal: 0},
		{ObjectID: "1", ThreadID: "100", Time: 1, Size: 32, HasSize: true, Ordinal: 1},
		{ObjectID: "9", ThreadID: "100", Time: 1, Size: 8, HasSize: true, Ordinal: 2},
	}

	first := NewPlan(clock, deaths).Interleave(body, format)
	second := NewPlan(clock, deaths).Interleave(body, format)
	c.Assert(second, DeepEquals, first)
}

func (s *MergeTestSuite) TestRenderDeath(c *C) {
	format := trace.RewriteFormat()

	// raw lines from an existing stream are re-emitted verbatim
	c.Assert(RenderDeath(merlin.Death{Raw: "D 1 100 1 32"}, format), Equals, "D 1 100 1 32")

	// narrative deaths carry no thread id, the format default fills in
	c.Assert(RenderDeath(merlin.Death{ObjectID: "7", Time: 3, Size: 16, HasSize: true}, format),
		Equals, "D 7 0 3 16")

	// size is omitted when the report carried none
	c.Assert(RenderDeath(merlin.Death{ObjectID: "7", ThreadID: "9", Time: 3}, format),
		Equals, "D 7 9 3")
}

func (s *MergeTestSuite) TestValidateCleanStream(c *C) {
	body := readBody(c, "N 1 32 0 5 0 100\nM\nM\nN 2 16 0 6 0 100\n")
	format := trace.RewriteFormat()
	clock := trace.BuildClockMap(body, format)

	deaths := []merlin.Death{
		{ObjectID: "1", ThreadID: "100", Time: 1, Size: 32, HasSize: true},
	}
	lines := NewPlan(clock, deaths).Interleave(body, format)

	rep := Validate(lines, format)
	c.Assert(rep.Deaths, Equals, 1)
	c.Assert(rep.DeathsInOrder, Equals, 1)
	c.Assert(rep.DeathsAfterBirth, Equals, 1)
	c.Assert(rep.Objects, Equals, 2)
	c.Assert(rep.Errors, HasLen, 0)
}

func (s *MergeTestSuite) TestValidateFlagsMisplacedDeath(c *C) {
	// A death stamped with time 5 sitting at the head of the stream is out
	// of order.
	lines := []string{
		"D 1 100 5 32",
		"N 1 32 0 5 0 100",
		"M",
	}
	rep := Validate(lines, trace.RewriteFormat())
	c.Assert(rep.Deaths, Equals, 1)
	c.Assert(rep.DeathsInOrder, Equals, 0)
	c.Assert(len(rep.Errors) > 0, Equals, true)
}
