package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/open-eyes/handheld/internal/config"
	"github.com/open-eyes/handheld/internal/device"
	"github.com/open-eyes/handheld/internal/obslog"
	"github.com/open-eyes/handheld/internal/transport"
)

// RunOptions holds flags for the run command. Empty device paths fall back
// to synthetic telemetry for that sensor group (spec 2B).
type RunOptions struct {
	*RootOptions
	ListenAddr  string
	ArduinoDev  string
	ArduinoBaud int
	GpsDev      string
	GpsBaud     int
}

// NewRunCommand builds the run subcommand: publishes simulated or
// hardware-backed cane telemetry over the websocket bridge until
// interrupted.
func NewRunCommand(root *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the cane simulator and publish telemetry over the packet bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCanesim(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.ListenAddr, "listen", "", "bridge listen address, e.g. :8090 (defaults to the config file's transport.listen_addr)")
	cmd.Flags().StringVar(&opts.ArduinoDev, "arduino-device", "", "serial device for the IMU/obstacle Arduino, e.g. /dev/ttyUSB0 (blank: synthesize)")
	cmd.Flags().IntVar(&opts.ArduinoBaud, "arduino-baud", 9600, "baud rate for the Arduino serial link")
	cmd.Flags().StringVar(&opts.GpsDev, "gps-device", "", "serial device for the NMEA GPS receiver, e.g. /dev/ttyUSB1 (blank: synthesize)")
	cmd.Flags().IntVar(&opts.GpsBaud, "gps-baud", 9600, "baud rate for the GPS serial link")
	return cmd
}

func runCanesim(cmd *cobra.Command, opts *RunOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	log := obslog.New(cfg.Global.LogLevel, cfg.Global.LogJSON)

	addr := opts.ListenAddr
	if addr == "" {
		addr = cfg.Transport.ListenAddr
	}

	sim, err := device.NewCaneSimulator(opts.ArduinoDev, opts.ArduinoBaud, opts.GpsDev, opts.GpsBaud, log)
	if err != nil {
		return fmt.Errorf("start cane simulator: %w", err)
	}
	defer func() {
		if cerr := sim.Close(); cerr != nil {
			log.WithError(cerr).Warn("error closing simulator serial devices")
		}
	}()

	bridge := transport.NewPacketBridge(addr, log)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go bridge.Start()
	go bridge.Run(ctx, sim.Packets(ctx))

	log.WithField("addr", addr).Info("cane simulator publishing telemetry")
	fmt.Fprintln(cmd.OutOrStdout(), "cane simulator started. Press Ctrl-C to stop.")

	<-sigCh
	log.Info("shutting down")
	cancel()
	bridge.Stop()
	log.Info("stopped cleanly")
	return nil
}
