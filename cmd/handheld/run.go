package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/open-eyes/handheld/internal/config"
	"github.com/open-eyes/handheld/internal/filter"
	"github.com/open-eyes/handheld/internal/guidance"
	"github.com/open-eyes/handheld/internal/model"
	"github.com/open-eyes/handheld/internal/navigator"
	"github.com/open-eyes/handheld/internal/obslog"
	"github.com/open-eyes/handheld/internal/pipeline"
	"github.com/open-eyes/handheld/internal/rules"
	"github.com/open-eyes/handheld/internal/snapshot"
	"github.com/open-eyes/handheld/internal/speech"
	"github.com/open-eyes/handheld/internal/telemetry"
	"github.com/open-eyes/handheld/internal/transport"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	DestinationPath string
}

// NewRunCommand builds the run subcommand: connects to the cane's packet
// bridge and drives the pipeline until interrupted.
func NewRunCommand(root *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the handheld core against a paired cane",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHandheld(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.DestinationPath, "destination", "", "path to a destination YAML/JSON file to load at startup")
	return cmd
}

func runHandheld(cmd *cobra.Command, opts *RunOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	log := obslog.New(cfg.Global.LogLevel, cfg.Global.LogJSON)

	nav := navigator.New().WithReachedThreshold(cfg.Global.WaypointReachedM)
	if opts.DestinationPath != "" {
		dest, err := loadDestination(opts.DestinationPath)
		if err != nil {
			return fmt.Errorf("load destination: %w", err)
		}
		if err := nav.LoadDestination(dest); err != nil {
			return fmt.Errorf("load destination: %w", err)
		}
	}

	f := filter.New(cfg.Global.FilterWindow)
	engine := rules.NewEngine(rules.DefaultRuleSet())
	speaker := speech.NewConsoleSpeaker(log)
	executor := guidance.New(speaker, log)

	source := transport.NewWebsocketSource(dialURL(cfg.Transport.ListenAddr))
	pl := pipeline.New(source, f, engine, nav, executorListener{executor}, log).
		WithGpsLossThreshold(cfg.Global.GpsLossPacketCount)

	hub := telemetry.NewHub(cfg.Telemetry.ListenAddr, log)

	ctx, cancel := context.WithCancel(cmd.Context())
	if ctx == nil {
		ctx, cancel = context.WithCancel(context.Background())
	}
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go executor.Run(ctx)
	go hub.Start()
	go hub.Watch(ctx, pl.Observe())

	if err := pl.Start(ctx); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}

	log.Info("handheld core started; waiting for packets")
	fmt.Fprintln(cmd.OutOrStdout(), "handheld core started. Press Ctrl-C to stop.")

	<-sigCh
	log.Info("shutting down")
	pl.Dispose()
	hub.Stop()
	cancel()
	log.Info("stopped cleanly")
	return nil
}

// loadDestination reads a Destination from JSON or YAML, chosen by file
// extension (spec 2B: destination fixtures may be supplied as YAML in
// addition to the wire JSON format).
func loadDestination(path string) (model.Destination, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return model.Destination{}, err
	}
	var dest model.Destination
	if strings.HasSuffix(path, ".yml") || strings.HasSuffix(path, ".yaml") {
		err = yaml.Unmarshal(b, &dest)
	} else {
		err = json.Unmarshal(b, &dest)
	}
	return dest, err
}

// dialURL turns a bare listen address (":8090") or host:port into a full
// websocket URL pointing at the bridge's /ws endpoint.
func dialURL(addr string) string {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return addr
	}
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return fmt.Sprintf("ws://%s/ws", host)
}

// executorListener adapts *guidance.Executor to pipeline.Listener.
type executorListener struct {
	e *guidance.Executor
}

func (l executorListener) Process(instr rules.Instruction, atEmission snapshot.Snapshot) {
	l.e.Process(instr, atEmission)
}
