// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/rigwatch/lib/clock"
	"github.com/bureau-foundation/rigwatch/lib/config"
	"github.com/bureau-foundation/rigwatch/lib/hwinfo"
	"github.com/bureau-foundation/rigwatch/lib/hwinfo/amdgpu"
	"github.com/bureau-foundation/rigwatch/lib/hwinfo/nvidia"
	"github.com/bureau-foundation/rigwatch/lib/journal"
	"github.com/bureau-foundation/rigwatch/lib/monitor"
	"github.com/bureau-foundation/rigwatch/lib/probecache"
	"github.com/bureau-foundation/rigwatch/lib/process"
	"github.com/bureau-foundation/rigwatch/lib/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		process.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "journal" {
		return runJournal(args[1:], stdout)
	}

	var (
		configPath  string
		once        bool
		logLevel    string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("rigwatch", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&configPath, "config", "", "path to the config file (default: $RIGWATCH_CONFIG)")
	flagSet.BoolVar(&once, "once", false, "poll every instance once, print the reports, and exit")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, or error")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return process.Usage(err)
	}
	if showVersion {
		fmt.Fprintf(stdout, "rigwatch %s\n", version.Full())
		return nil
	}
	if flagSet.NArg() > 0 {
		return process.Usage(fmt.Errorf("unexpected argument: %s", flagSet.Arg(0)))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return process.Usage(fmt.Errorf("--log-level: %w", err))
	}
	logger := newLogger(stderr, level)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	var cache *probecache.Cache
	if cfg.StateDir != "" {
		if err := cfg.EnsureStateDir(); err != nil {
			return err
		}
		cache = probecache.New(filepath.Join(cfg.StateDir, "probes"))
	}

	var journalWriter *journal.Writer
	if cfg.Journal.Path != "" {
		compression, err := journal.ParseCompression(cfg.Journal.Compression)
		if err != nil {
			return err
		}
		journalWriter, err = journal.Open(cfg.Journal.Path, compression)
		if err != nil {
			return err
		}
		defer journalWriter.Close()
	}

	gpus := hwinfo.Enumerate("", nvidia.NewProber(), amdgpu.NewProber())
	logger.Info("enumerated host GPUs", "count", len(gpus))
	for _, gpu := range gpus {
		logger.Debug("host GPU",
			"stable_id", gpu.StableID,
			"vendor", gpu.Vendor,
			"pci_slot", gpu.PCISlot,
			"model", gpu.ModelName,
		)
	}

	realClock := clock.Real()
	instances, err := buildInstances(cfg, gpus, monitor.Deps{
		Clock:  realClock,
		Logger: logger,
		Cache:  cache,
	})
	if err != nil {
		return err
	}
	defer func() {
		for _, instance := range instances {
			instance.Close()
		}
	}()
	for _, instance := range instances {
		instance.Start(ctx)
	}

	sink := newReportSink(stdout, journalWriter, logger)
	if once {
		for _, instance := range instances {
			sink.Emit(instance.Poll(ctx))
		}
		return nil
	}

	logger.Info("rigwatch running",
		"instances", len(instances),
		"poll_interval", time.Duration(cfg.PollInterval),
		"journal", cfg.Journal.Path,
	)
	monitor.Run(ctx, realClock, time.Duration(cfg.PollInterval), instances, sink.Emit)
	logger.Info("shutting down")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func buildInstances(cfg *config.Config, gpus []hwinfo.GPU, deps monitor.Deps) ([]*monitor.Instance, error) {
	instances := make([]*monitor.Instance, 0, len(cfg.Instances))
	for _, instanceConfig := range cfg.Instances {
		family, err := instanceConfig.Resolve()
		if err != nil {
			return nil, fmt.Errorf("instance %s: %w", instanceConfig.Name, err)
		}
		instances = append(instances, monitor.NewInstance(monitor.Config{
			Name:              instanceConfig.Name,
			Family:            family,
			APIAddress:        instanceConfig.APIAddress,
			Binary:            instanceConfig.Binary,
			Probe:             instanceConfig.ProbeEnabled(family),
			PollTimeout:       time.Duration(cfg.PollTimeout),
			ProbeTimeout:      time.Duration(cfg.ProbeTimeout),
			UnresponsiveAfter: time.Duration(cfg.UnresponsiveAfter),
		}, gpus, deps))
	}
	return instances, nil
}

// newLogger writes text records when stderr is a terminal and JSON
// records otherwise.
func newLogger(stderr io.Writer, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if file, ok := stderr.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return slog.New(slog.NewTextHandler(stderr, options))
	}
	return slog.New(slog.NewJSONHandler(stderr, options))
}
