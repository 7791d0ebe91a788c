// Package merge implements the merge command: a separate death-report file
// is interleaved into a trace at the positions the logical clock demands.
package merge

import (
	"bufio"
	"fmt"
	"os"

	tmerge "github.com/heapsim/tracemerge/merge"
	"github.com/heapsim/tracemerge/merlin"
	"github.com/heapsim/tracemerge/trace"
	"github.com/heapsim/tracemerge/utils/log"
	"github.com/spf13/cobra"
)

const (
	usage   = "merge <trace> <deaths> <output-trace>"
	short   = "Merges an out-of-band death report file into a trace"
	long    = "This command interleaves death records from a separate report file (narrative or\n" +
		"fixed-field form) into a trace. Each death is inserted after the last record at its\n" +
		"logical timestamp. The logical clock advances on method entry and allocation records."
	example = "tracemerge merge app.trace deaths_with_size.txt app_merged.trace"

	controlDesc = "path to a YAML trace-format control file"
	verboseDesc = "print per-record diagnostics"
)

var (
	// Cmd is the merge command.
	Cmd = &cobra.Command{
		Use:        usage,
		Short:      short,
		Long:       long,
		SuggestFor: []string{"interleave", "combine"},
		Example:    example,
		Args:       cobra.ExactArgs(3),
		RunE:       executeMerge,
	}

	controlPath string
	flagVerbose bool
)

func init() {
	Cmd.Flags().StringVarP(&controlPath, "control", "c", "", controlDesc)
	Cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, verboseDesc)
}

// executeMerge implements the merge command.
func executeMerge(_ *cobra.Command, args []string) error {
	if flagVerbose {
		log.SetLevel(log.DEBUG)
	}

	format, err := trace.LoadFormat(controlPath, trace.MergeFormat())
	if err != nil {
		return err
	}

	traceFile, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening trace: %v", err)
	}
	defer traceFile.Close()

	records, err := trace.ReadRecords(traceFile)
	if err != nil {
		return err
	}
	// Deaths already embedded in the trace are reordered along with the new
	// ones rather than left in place.
	body, embedded := trace.SplitDeaths(records)

	deathsFile, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("opening death reports: %v", err)
	}
	defer deathsFile.Close()

	deaths, err := merlin.ReadDeaths(deathsFile)
	if err != nil {
		return err
	}
	for _, rec := range embedded {
		if d, ok := merlin.FromRecord(rec); ok {
			d.Ordinal = len(deaths)
			deaths = append(deaths, d)
		}
	}
	log.Info("parsed %d death records", len(deaths))

	clock := trace.BuildClockMap(body, format)
	log.Info("mapped %d trace records to time values, range 0 to %d", len(body), clock.MaxTime())

	plan := tmerge.NewPlan(clock, deaths)
	lines := plan.Interleave(body, format)
	log.Info("placed %d deaths inline, %d deferred to end of stream",
		plan.Placed(), len(plan.Orphans()))

	out, err := os.Create(args[2])
	if err != nil {
		return fmt.Errorf("creating output trace: %v", err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	log.Info("wrote %d lines to %s", len(lines), args[2])
	return nil
}
