// Command canesim stands in for the cane's firmware and BLE link (spec
// §2B, §9): it drives real Arduino/GPS serial hardware where attached and
// synthesizes plausible telemetry otherwise, publishing Packets over a
// websocket bridge that cmd/handheld's transport.WebsocketSource dials
// into. Structured as a cobra command tree (grounded on roach88-nysm's
// internal/cli), replacing the teacher's raw flag.Parse() simulation
// entrypoints.
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
