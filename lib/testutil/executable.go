// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteExecutable writes a /bin/sh script named name into a fresh
// temporary directory and returns its path.
//
//	binary := testutil.WriteExecutable(t, "miniZ", `echo "#0 ... 01:00.0"`)
func WriteExecutable(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("writing executable %s: %v", path, err)
	}
	return path
}
