// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/rigwatch/lib/journal"
	"github.com/bureau-foundation/rigwatch/lib/process"
)

// runJournal prints every report in a journal file as a JSON line. A
// truncated final frame (a crash mid-write) is reported after the
// complete frames have been printed.
func runJournal(args []string, stdout io.Writer) error {
	flagSet := pflag.NewFlagSet("rigwatch journal", pflag.ContinueOnError)
	var instance string
	flagSet.StringVar(&instance, "instance", "", "print only reports from this instance")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return process.Usage(err)
	}
	if flagSet.NArg() != 1 {
		return process.Usage(fmt.Errorf("usage: rigwatch journal [--instance NAME] <path>"))
	}
	path := flagSet.Arg(0)

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer file.Close()

	reader := journal.NewReader(file)
	encoder := json.NewEncoder(stdout)
	for count := 0; ; count++ {
		report, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: frame %d: %w", path, count, err)
		}
		if instance != "" && report.Instance != instance {
			continue
		}
		if err := encoder.Encode(report); err != nil {
			return err
		}
	}
}
