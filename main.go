package main

import (
	"os"

	"github.com/heapsim/tracemerge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
