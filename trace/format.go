package trace

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// Format describes the trace dialect a pipeline expects. The two pipelines of
// this tool historically disagree on which record kinds advance the logical
// clock, so each command carries its own default; a YAML control file can
// override either.
//
// Control file shape:
//
//	clockTags: ["M", "E", "X"]
//	deathThreadID: "1950409828"
type Format struct {
	// ClockTags are the record tags that advance the logical clock.
	ClockTags []string `yaml:"clockTags"`
	// DeathThreadID is used when a merged death record has no thread id of
	// its own (narrative death reports carry none).
	DeathThreadID string `yaml:"deathThreadID"`
}

// RewriteFormat is the trace-rewrite pipeline default: the clock advances on
// method boundaries only.
func RewriteFormat() Format {
	return Format{
		ClockTags:     []string{"M", "E", "X"},
		DeathThreadID: "0",
	}
}

// MergeFormat is the death-merge pipeline default: the clock advances on
// method entries and allocations.
func MergeFormat() Format {
	return Format{
		ClockTags:     []string{"M", "N", "A"},
		DeathThreadID: "0",
	}
}

// LoadFormat reads a YAML control file over base, keeping base's values for
// fields the file leaves unset. An empty path returns base unchanged.
func LoadFormat(path string, base Format) (Format, error) {
	if path == "" {
		return base, nil
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("reading control file: %v", err)
	}
	var override Format
	if err := yaml.Unmarshal(data, &override); err != nil {
		return base, fmt.Errorf("parsing control file %s: %v", path, err)
	}
	out := base
	if len(override.ClockTags) > 0 {
		out.ClockTags = override.ClockTags
	}
	if override.DeathThreadID != "" {
		out.DeathThreadID = override.DeathThreadID
	}
	return out, nil
}

// Advances reports whether records of kind k move the clock forward under
// this format.
func (f Format) Advances(k Kind) bool {
	tag := k.Tag()
	if tag == "" {
		return false
	}
	for _, t := range f.ClockTags {
		if t == tag {
			return true
		}
	}
	return false
}
