// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags -X at build time. Unset values fall back to the VCS
// stamps the Go toolchain embeds in the binary.
var (
	GitCommit = ""
	GitDirty  = ""
	BuildTime = ""

	// Version is set manually for releases.
	Version = "0.1.0-dev"
)

// Info returns the one-line version string printed by --version.
func Info() string {
	commit, dirty, built := stamps()
	if commit == "" {
		commit = "unknown"
	}
	if dirty {
		commit += "-dirty"
	}
	if built == "" {
		built = "unknown"
	}
	return fmt.Sprintf("%s (%s, %s)", Version, commit, built)
}

// Full is Info plus the Go toolchain and platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func stamps() (commit string, dirty bool, built string) {
	commit, dirty, built = GitCommit, GitDirty == "true", BuildTime
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, dirty, built
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if commit == "" {
				commit = setting.Value
				if len(commit) > 12 {
					commit = commit[:12]
				}
			}
		case "vcs.modified":
			if GitDirty == "" {
				dirty = setting.Value == "true"
			}
		case "vcs.time":
			if built == "" {
				built = setting.Value
			}
		}
	}
	return commit, dirty, built
}
