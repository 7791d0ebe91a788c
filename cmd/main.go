package cmd

import (
	"github.com/heapsim/tracemerge/cmd/export"
	mergecmd "github.com/heapsim/tracemerge/cmd/merge"
	oraclecmd "github.com/heapsim/tracemerge/cmd/oracle"
	"github.com/heapsim/tracemerge/cmd/reorder"
	"github.com/heapsim/tracemerge/utils"
	"github.com/heapsim/tracemerge/utils/log"
	"github.com/spf13/cobra"
)

// flagPrintVersion set flag to show current tracemerge version.
var flagPrintVersion bool

// Execute builds the command tree and executes commands.
func Execute() error {

	// c is the root command.
	c := &cobra.Command{
		Use: "tracemerge",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Print version if specified.
			if flagPrintVersion {
				log.Info("version: %+v", utils.Tag)
				log.Info("commit hash: %+v", utils.GitHash)
				log.Info("utc build time: %+v", utils.BuildStamp)
				return nil
			}
			// Print information regarding usage.
			return cmd.Usage()
		},
	}

	// Adds subcommands and version flag.
	c.AddCommand(reorder.Cmd)
	c.AddCommand(mergecmd.Cmd)
	c.AddCommand(oraclecmd.Cmd)
	c.AddCommand(export.Cmd)
	c.Flags().BoolVarP(&flagPrintVersion, "version", "V", false, "show the version info and exit")

	return c.Execute()
}
