// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/rigwatch/lib/devicemap"
	"github.com/bureau-foundation/rigwatch/lib/journal"
	"github.com/bureau-foundation/rigwatch/lib/minerfamily"
)

// Duration is a time.Duration read from a duration string.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is the rigwatch configuration.
type Config struct {
	// PollInterval is the time between polls of each instance.
	PollInterval Duration `yaml:"poll_interval" json:"poll_interval"`

	// PollTimeout bounds one poll: both API round trips share it.
	PollTimeout Duration `yaml:"poll_timeout" json:"poll_timeout"`

	// UnresponsiveAfter is how long an instance may go without a
	// usable summary before its reports are flagged unresponsive.
	UnresponsiveAfter Duration `yaml:"unresponsive_after" json:"unresponsive_after"`

	// ProbeTimeout bounds one run of a miner's device-listing mode.
	ProbeTimeout Duration `yaml:"probe_timeout" json:"probe_timeout"`

	// StateDir holds the probe cache.
	StateDir string `yaml:"state_dir" json:"state_dir"`

	Journal JournalConfig `yaml:"journal" json:"journal"`

	Instances []InstanceConfig `yaml:"instances" json:"instances"`
}

// JournalConfig configures the report journal.
type JournalConfig struct {
	// Path is the journal file. Empty disables the journal.
	Path string `yaml:"path" json:"path"`

	// Compression is none, lz4, or zstd.
	Compression string `yaml:"compression" json:"compression"`
}

// InstanceConfig describes one monitored miner process.
type InstanceConfig struct {
	// Name identifies the instance in logs and reports.
	Name string `yaml:"name" json:"name"`

	// Family selects built-in defaults: cryptodredge, trex, or miniz.
	Family string `yaml:"family" json:"family"`

	// APIAddress is the host:port of the miner's text API.
	APIAddress string `yaml:"api_address" json:"api_address"`

	// Binary is the miner executable, used for the device probe.
	Binary string `yaml:"binary" json:"binary"`

	// Vendor overrides the family's GPU vendor.
	Vendor string `yaml:"vendor,omitempty" json:"vendor,omitempty"`

	// FeePercent overrides the family's developer fee.
	FeePercent *float64 `yaml:"fee_percent,omitempty" json:"fee_percent,omitempty"`

	// Probe enables or disables the device probe. Defaults to on for
	// families that have one.
	Probe *bool `yaml:"probe,omitempty" json:"probe,omitempty"`

	// ProbePattern and ProbeKey override the family's probe matcher.
	ProbePattern string `yaml:"probe_pattern,omitempty" json:"probe_pattern,omitempty"`
	ProbeKey     string `yaml:"probe_key,omitempty" json:"probe_key,omitempty"`
}

// Resolve merges the instance's overrides onto its family defaults.
func (i InstanceConfig) Resolve() (minerfamily.Family, error) {
	family, ok := minerfamily.Lookup(i.Family)
	if !ok {
		return minerfamily.Family{}, fmt.Errorf("unknown family %q (known: %s)",
			i.Family, strings.Join(minerfamily.Names(), ", "))
	}
	if i.Vendor != "" {
		family.Vendor = i.Vendor
	}
	if i.FeePercent != nil {
		family.FeePercent = *i.FeePercent
	}
	if i.ProbePattern != "" {
		family.ProbePattern = i.ProbePattern
	}
	if i.ProbeKey != "" {
		family.ProbeKey = devicemap.MatchKey(i.ProbeKey)
	}
	return family, nil
}

// ProbeEnabled reports whether the device probe should run for this
// instance, given its resolved family.
func (i InstanceConfig) ProbeEnabled(family minerfamily.Family) bool {
	if i.Probe != nil {
		return *i.Probe
	}
	return family.CanProbe() && i.Binary != ""
}

// Default returns the configuration that file values are merged onto.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		PollInterval:      Duration(5 * time.Second),
		PollTimeout:       Duration(3 * time.Second),
		UnresponsiveAfter: Duration(time.Minute),
		ProbeTimeout:      Duration(30 * time.Second),
		StateDir:          filepath.Join(homeDir, ".cache", "rigwatch"),
		Journal: JournalConfig{
			Compression: "zstd",
		},
	}
}

// Load loads configuration from the RIGWATCH_CONFIG environment
// variable. There is no fallback when it is unset.
func Load() (*Config, error) {
	configPath := os.Getenv("RIGWATCH_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("RIGWATCH_CONFIG environment variable not set; " +
			"set it to the path of your rigwatch.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path and expands path variables.
// It does not validate; call [Config.Validate].
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch filepath.Ext(path) {
	case ".jsonc", ".json":
		if err := json.Unmarshal(jsonc.ToJSON(data), c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.StateDir = expandVars(c.StateDir, vars)
	vars["RIGWATCH_STATE_DIR"] = c.StateDir

	c.Journal.Path = expandVars(c.Journal.Path, vars)
	for index := range c.Instances {
		c.Instances[index].Binary = expandVars(c.Instances[index].Binary, vars)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive"))
	}
	if c.PollTimeout <= 0 {
		errs = append(errs, fmt.Errorf("poll_timeout must be positive"))
	}
	if c.UnresponsiveAfter <= 0 {
		errs = append(errs, fmt.Errorf("unresponsive_after must be positive"))
	}
	if c.ProbeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("probe_timeout must be positive"))
	}
	if _, err := journal.ParseCompression(c.Journal.Compression); err != nil {
		errs = append(errs, fmt.Errorf("journal.compression: %w", err))
	}

	if len(c.Instances) == 0 {
		errs = append(errs, fmt.Errorf("instances: at least one instance is required"))
	}
	seen := make(map[string]bool)
	for index, instance := range c.Instances {
		label := fmt.Sprintf("instances[%d]", index)
		if instance.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", label))
		} else {
			label = fmt.Sprintf("instances[%d] (%s)", index, instance.Name)
			if seen[instance.Name] {
				errs = append(errs, fmt.Errorf("%s: duplicate name", label))
			}
			seen[instance.Name] = true
		}
		errs = append(errs, validateInstance(label, instance)...)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validateInstance(label string, instance InstanceConfig) []error {
	var errs []error

	if err := validateAddress(instance.APIAddress); err != nil {
		errs = append(errs, fmt.Errorf("%s.api_address: %w", label, err))
	}
	if instance.FeePercent != nil && (*instance.FeePercent < 0 || *instance.FeePercent >= 100) {
		errs = append(errs, fmt.Errorf("%s.fee_percent must be in [0, 100)", label))
	}

	family, err := instance.Resolve()
	if err != nil {
		return append(errs, fmt.Errorf("%s.family: %w", label, err))
	}
	if !instance.ProbeEnabled(family) {
		return errs
	}
	if instance.Binary == "" {
		errs = append(errs, fmt.Errorf("%s: probe enabled but binary is empty", label))
	}
	if len(family.ProbeArgs) == 0 {
		errs = append(errs, fmt.Errorf("%s: family %s has no device probe", label, family.Name))
	}
	if _, err := family.Matcher(); err != nil {
		errs = append(errs, fmt.Errorf("%s: probe matcher: %w", label, err))
	}
	return errs
}

func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("required")
	}
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	if host == "" {
		return fmt.Errorf("%q has no host", address)
	}
	number, err := strconv.Atoi(port)
	if err != nil || number <= 0 || number > 65535 {
		return fmt.Errorf("%q has invalid port", address)
	}
	return nil
}

// EnsureStateDir creates the state directory if it does not exist.
func (c *Config) EnsureStateDir() error {
	if c.StateDir == "" {
		return nil
	}
	if err := os.MkdirAll(c.StateDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", c.StateDir, err)
	}
	return nil
}
