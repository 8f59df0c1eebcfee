// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Exit codes used by rigwatch binaries.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// UsageError marks an error caused by the command line rather than by
// the configuration or the host.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// Usage wraps err as a UsageError. A nil err stays nil.
func Usage(err error) error {
	if err == nil {
		return nil
	}
	return &UsageError{Err: err}
}

// Fatal prints err to stderr and exits: ExitUsage for a UsageError
// anywhere in the chain, ExitFailure otherwise. Call it from main()
// with the error returned by run().
func Fatal(err error) {
	os.Exit(report(os.Stderr, err))
}

func report(w io.Writer, err error) int {
	fmt.Fprintf(w, "error: %v\n", err)
	var usage *UsageError
	if errors.As(err, &usage) {
		fmt.Fprintln(w, "run with --help for usage")
		return ExitUsage
	}
	return ExitFailure
}
