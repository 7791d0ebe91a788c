// Package export implements the export command: an oracle event stream is
// converted to fixed-column CSV for external analysis tools.
package export

import (
	"fmt"
	"os"

	toracle "github.com/heapsim/tracemerge/oracle"
	"github.com/heapsim/tracemerge/utils/log"
	"github.com/spf13/cobra"
)

const (
	usage   = "export <oracle> <output-csv>"
	short   = "Converts an oracle event stream to CSV"
	long    = "This command parses a previously written oracle event stream and exports it as CSV\n" +
		"with one row per event."
	example = "tracemerge export oracle.txt oracle.csv"

	verboseDesc = "print per-record diagnostics"
)

var (
	// Cmd is the export command.
	Cmd = &cobra.Command{
		Use:        usage,
		Short:      short,
		Long:       long,
		SuggestFor: []string{"csv", "convert"},
		Example:    example,
		Args:       cobra.ExactArgs(2),
		RunE:       executeExport,
	}

	flagVerbose bool
)

func init() {
	Cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, verboseDesc)
}

// executeExport implements the export command.
func executeExport(_ *cobra.Command, args []string) error {
	if flagVerbose {
		log.SetLevel(log.DEBUG)
	}

	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening oracle stream: %v", err)
	}
	defer in.Close()

	stream, err := toracle.Read(in)
	if err != nil {
		return err
	}

	out, err := os.Create(args[1])
	if err != nil {
		return fmt.Errorf("creating csv output: %v", err)
	}
	defer out.Close()

	if err := stream.WriteCSV(out); err != nil {
		return err
	}
	log.Info("wrote %d events to %s", len(stream.Events), args[1])
	return nil
}
