// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package probecache stores the output of miner device probes so a
// restart of rigwatch does not rerun them.
//
// Running a miner in its listing mode initializes every GPU driver
// context and can take tens of seconds. The listing only changes when
// the miner binary or the host's GPU set changes, so entries are keyed
// by the binary's content digest, the probe arguments, and the stable
// ids of the host devices. The raw output is stored, not parsed
// entries, so a changed matcher pattern applies to cached output too.
//
// Files are CBOR, one per key, written atomically (temporary file,
// fsync, rename, directory sync) so a reader never sees a partial
// entry.
package probecache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bureau-foundation/rigwatch/lib/binhash"
	"github.com/bureau-foundation/rigwatch/lib/codec"
)

// ErrMiss is returned by [Cache.Load] when no entry exists for a key.
var ErrMiss = errors.New("probe cache miss")

// Key identifies one probe result.
type Key struct {
	Binary  binhash.Digest
	Args    []string
	Devices []string
}

// NewKey hashes the binary at binaryPath and builds a Key.
func NewKey(binaryPath string, args []string, devices []string) (Key, error) {
	digest, err := binhash.HashFile(binaryPath)
	if err != nil {
		return Key{}, err
	}
	return Key{Binary: digest, Args: args, Devices: devices}, nil
}

// fileName derives the entry file name. Device order is significant:
// it is the ordinal order the probe output is matched against.
func (k Key) fileName() string {
	var material strings.Builder
	material.WriteString(k.Binary.String())
	for _, arg := range k.Args {
		material.WriteString("\x00a:")
		material.WriteString(arg)
	}
	for _, device := range k.Devices {
		material.WriteString("\x00d:")
		material.WriteString(device)
	}
	return binhash.HashBytes([]byte(material.String())).String() + ".cbor"
}

type entry struct {
	Binary   string    `cbor:"binary"`
	Args     []string  `cbor:"args"`
	Devices  []string  `cbor:"devices"`
	Output   string    `cbor:"output"`
	StoredAt time.Time `cbor:"stored_at"`
}

// Cache is a directory of probe entries.
type Cache struct {
	directory string
}

// New returns a Cache rooted at directory. The directory is created on
// first Store.
func New(directory string) *Cache {
	return &Cache{directory: directory}
}

// Load returns the cached probe output for key, or ErrMiss.
func (c *Cache) Load(key Key) (string, error) {
	path := filepath.Join(c.directory, key.fileName())
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("reading probe cache: %w", err)
	}

	var cached entry
	if err := codec.Unmarshal(data, &cached); err != nil {
		return "", fmt.Errorf("parsing probe cache %s: %w", path, err)
	}
	if cached.Binary != key.Binary.String() ||
		!slices.Equal(cached.Args, key.Args) ||
		!slices.Equal(cached.Devices, key.Devices) {
		return "", ErrMiss
	}
	return cached.Output, nil
}

// Store records output for key, replacing any previous entry.
func (c *Cache) Store(key Key, output string, now time.Time) error {
	data, err := codec.Marshal(entry{
		Binary:   key.Binary.String(),
		Args:     key.Args,
		Devices:  key.Devices,
		Output:   output,
		StoredAt: now,
	})
	if err != nil {
		return fmt.Errorf("encoding probe cache entry: %w", err)
	}
	if err := os.MkdirAll(c.directory, 0755); err != nil {
		return fmt.Errorf("creating probe cache directory: %w", err)
	}
	return writeAtomic(filepath.Join(c.directory, key.fileName()), data)
}

// writeAtomic writes data to a temporary file next to path, fsyncs,
// and renames it into place.
func writeAtomic(path string, data []byte) error {
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating temporary cache file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary cache file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary cache file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary cache file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming cache file into place: %w", err)
	}

	// Sync the parent so the rename survives power loss.
	parentDirectory, err := os.Open(filepath.Dir(path))
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}
	return nil
}
