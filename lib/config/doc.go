// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads rigwatch configuration.
//
// Configuration is loaded from a single file specified by either the
// RIGWATCH_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search.
//
// Files ending in .jsonc or .json are read as JSON with comments and
// trailing commas; everything else is YAML. Durations are Go duration
// strings ("5s", "1m").
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No environment
// variable overrides a config value.
//
// Per-instance settings fall back to the built-in defaults of the
// instance's miner family; [InstanceConfig.Resolve] merges the two.
package config
