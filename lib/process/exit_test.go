// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestReportFailure(t *testing.T) {
	var buffer bytes.Buffer
	code := report(&buffer, errors.New("instances[0].api_address: required"))
	if code != ExitFailure {
		t.Errorf("exit code = %d, want %d", code, ExitFailure)
	}
	if got, want := buffer.String(), "error: instances[0].api_address: required\n"; got != want {
		t.Errorf("report wrote %q, want %q", got, want)
	}
}

func TestReportUsage(t *testing.T) {
	var buffer bytes.Buffer
	err := fmt.Errorf("parsing flags: %w", Usage(errors.New("unknown flag: --bogus")))
	if code := report(&buffer, err); code != ExitUsage {
		t.Errorf("exit code = %d, want %d", code, ExitUsage)
	}
	want := "error: parsing flags: unknown flag: --bogus\nrun with --help for usage\n"
	if got := buffer.String(); got != want {
		t.Errorf("report wrote %q, want %q", got, want)
	}
}

func TestUsageNil(t *testing.T) {
	if err := Usage(nil); err != nil {
		t.Errorf("Usage(nil) = %v, want nil", err)
	}
}
