// Package reorder implements the reorder command: death records appended at
// the end of a trace are moved to their correct temporal positions.
package reorder

import (
	"bufio"
	"fmt"
	"os"

	"github.com/heapsim/tracemerge/merge"
	"github.com/heapsim/tracemerge/merlin"
	"github.com/heapsim/tracemerge/trace"
	"github.com/heapsim/tracemerge/utils/log"
	"github.com/spf13/cobra"
)

const (
	usage   = "reorder <input-trace> <output-trace>"
	short   = "Reorders death records within a trace"
	long    = "This command moves death records embedded in a trace (typically appended at the end\n" +
		"by the offline liveness analysis) to the positions their logical timestamps demand.\n" +
		"The logical clock advances on method entry, method exit and exception exit records."
	example = "tracemerge reorder app.trace app_reordered.trace --validate"

	controlDesc  = "path to a YAML trace-format control file"
	verboseDesc  = "print per-record diagnostics"
	validateDesc = "replay the output and report ordering violations"
)

var (
	// Cmd is the reorder command.
	Cmd = &cobra.Command{
		Use:        usage,
		Short:      short,
		Long:       long,
		SuggestFor: []string{"sort", "fix"},
		Example:    example,
		Args:       cobra.ExactArgs(2),
		RunE:       executeReorder,
	}

	controlPath  string
	flagVerbose  bool
	flagValidate bool
)

func init() {
	Cmd.Flags().StringVarP(&controlPath, "control", "c", "", controlDesc)
	Cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, verboseDesc)
	Cmd.Flags().BoolVar(&flagValidate, "validate", false, validateDesc)
}

// executeReorder implements the reorder command.
func executeReorder(_ *cobra.Command, args []string) error {
	if flagVerbose {
		log.SetLevel(log.DEBUG)
	}

	format, err := trace.LoadFormat(controlPath, trace.RewriteFormat())
	if err != nil {
		return err
	}

	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening input trace: %v", err)
	}
	defer in.Close()

	records, err := trace.ReadRecords(in)
	if err != nil {
		return err
	}
	log.Info("read %d lines from %s", len(records), args[0])

	body, embedded := trace.SplitDeaths(records)
	deaths := make([]merlin.Death, 0, len(embedded))
	for _, rec := range embedded {
		d, ok := merlin.FromRecord(rec)
		if !ok {
			continue
		}
		d.Ordinal = len(deaths)
		deaths = append(deaths, d)
	}

	clock := trace.BuildClockMap(body, format)
	log.Info("found %d trace records, %d death records to reorder, max logical time %d",
		len(body), len(deaths), clock.MaxTime())

	lines := merge.NewPlan(clock, deaths).Interleave(body, format)

	if err := writeLines(args[1], lines); err != nil {
		return err
	}
	log.Info("wrote %d lines to %s", len(lines), args[1])

	if flagValidate {
		merge.Validate(lines, format)
	}
	return nil
}

func writeLines(path string, lines []string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output trace: %v", err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return w.Flush()
}
