// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the exit path of the rigwatch binary. run()
// returns errors; main() hands them to [Fatal], which prints them and
// picks the exit status. Command-line mistakes are wrapped with
// [Usage] so they exit with [ExitUsage] instead of [ExitFailure].
package process
