// Command handheld runs the OpenEyes perception-decision-guidance core:
// it connects to the cane's packet stream, drives the filter/state/
// navigator/snapshot/rule pipeline, and hands decisions to the guidance
// executor. Structured as a cobra command tree (grounded on roach88-nysm's
// internal/cli), replacing the teacher's raw flag.Parse() entrypoints.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
