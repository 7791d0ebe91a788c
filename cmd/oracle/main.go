// Package oracle implements the oracle command: a trace and a death-report
// file are turned into the chronological alloc/free event stream used as
// ground truth by downstream experiments.
package oracle

import (
	"fmt"
	"os"

	"github.com/heapsim/tracemerge/merlin"
	toracle "github.com/heapsim/tracemerge/oracle"
	"github.com/heapsim/tracemerge/trace"
	"github.com/heapsim/tracemerge/utils/log"
	"github.com/spf13/cobra"
)

const (
	usage   = "oracle <trace> <deaths> <output-oracle>"
	short   = "Builds the alloc/free oracle event stream"
	long    = "This command builds the chronological allocation/free event stream from a trace and\n" +
		"its death reports. Allocation times follow the record-index timeline; free times keep\n" +
		"the logical timestamps of their death reports."
	example = "tracemerge oracle app.trace deaths_with_size.txt oracle.txt --stats --csv oracle.csv"

	verboseDesc = "print per-record diagnostics"
	csvDesc     = "also export the stream as CSV to this path"
	statsDesc   = "print allocation/lifetime statistics after the build"
)

var (
	// Cmd is the oracle command.
	Cmd = &cobra.Command{
		Use:        usage,
		Short:      short,
		Long:       long,
		SuggestFor: []string{"build", "events"},
		Example:    example,
		Args:       cobra.ExactArgs(3),
		RunE:       executeOracle,
	}

	csvPath     string
	flagVerbose bool
	flagStats   bool
)

func init() {
	Cmd.Flags().StringVar(&csvPath, "csv", "", csvDesc)
	Cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, verboseDesc)
	Cmd.Flags().BoolVar(&flagStats, "stats", false, statsDesc)
}

// executeOracle implements the oracle command.
func executeOracle(_ *cobra.Command, args []string) error {
	if flagVerbose {
		log.SetLevel(log.DEBUG)
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

	deathsFile, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("opening death reports: %v", err)
	}
	defer deathsFile.Close()

	deaths, err := merlin.ReadDeaths(deathsFile)
	if err != nil {
		return err
	}

	stream := toracle.Build(records, deaths)
	log.Info("built %d events (%d allocations, %d frees)",
		len(stream.Events), stream.Allocs(), stream.Frees())

	out, err := os.Create(args[2])
	if err != nil {
		return fmt.Errorf("creating oracle output: %v", err)
	}
	defer out.Close()

	if err := stream.Write(out); err != nil {
		return err
	}
	log.Info("oracle event stream written to %s", args[2])

	if csvPath != "" {
		csvOut, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("creating csv output: %v", err)
		}
		defer csvOut.Close()
		if err := stream.WriteCSV(csvOut); err != nil {
			return err
		}
		log.Info("tabular export written to %s", csvPath)
	}

	if flagStats {
		toracle.Summarize(stream).Log()
	}
	return nil
}
