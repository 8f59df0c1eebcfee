// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probecache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bureau-foundation/rigwatch/lib/binhash"
)

var epoch = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func testKey(devices ...string) Key {
	return Key{
		Binary:  binhash.HashBytes([]byte("miniZ v2.0c")),
		Args:    []string{"-ci"},
		Devices: devices,
	}
}

func TestStoreLoad(t *testing.T) {
	cache := New(filepath.Join(t.TempDir(), "probes"))
	key := testKey("pci:0000:01:00.0", "pci:0000:02:00.0")

	if _, err := cache.Load(key); !errors.Is(err, ErrMiss) {
		t.Fatalf("Load before Store = %v, want ErrMiss", err)
	}

	output := "#0 GeForce RTX 3080 busID: 2\n#1 GeForce RTX 3070 busID: 1\n"
	if err := cache.Store(key, output, epoch); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, err := cache.Load(key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != output {
		t.Errorf("Load = %q, want %q", got, output)
	}
}

func TestKeyComponents(t *testing.T) {
	cache := New(t.TempDir())
	key := testKey("pci:0000:01:00.0", "pci:0000:02:00.0")
	if err := cache.Store(key, "listing", epoch); err != nil {
		t.Fatal(err)
	}

	variants := map[string]Key{
		"device order": testKey("pci:0000:02:00.0", "pci:0000:01:00.0"),
		"device set":   testKey("pci:0000:01:00.0"),
		"binary": {
			Binary:  binhash.HashBytes([]byte("miniZ v2.1")),
			Args:    key.Args,
			Devices: key.Devices,
		},
		"args": {
			Binary:  key.Binary,
			Args:    []string{"--list"},
			Devices: key.Devices,
		},
	}
	for name, variant := range variants {
		if _, err := cache.Load(variant); !errors.Is(err, ErrMiss) {
			t.Errorf("changed %s: Load = %v, want ErrMiss", name, err)
		}
	}
}

func TestStoreLeavesNoTemporaryFile(t *testing.T) {
	directory := t.TempDir()
	cache := New(directory)
	if err := cache.Store(testKey("a"), "x", epoch); err != nil {
		t.Fatal(err)
	}
	if err := cache.Store(testKey("a"), "y", epoch); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(directory)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || filepath.Ext(entries[0].Name()) != ".cbor" {
		t.Errorf("directory entries = %v, want one .cbor file", entries)
	}
	if got, _ := cache.Load(testKey("a")); got != "y" {
		t.Errorf("Load after overwrite = %q, want y", got)
	}
}

func TestLoadCorrupt(t *testing.T) {
	directory := t.TempDir()
	cache := New(directory)
	key := testKey("a")
	if err := os.WriteFile(filepath.Join(directory, key.fileName()), []byte{0xff, 0x00}, 0644); err != nil {
		t.Fatal(err)
	}
	_, err := cache.Load(key)
	if err == nil || errors.Is(err, ErrMiss) {
		t.Errorf("Load of corrupt entry = %v, want a parse error", err)
	}
}

func TestNewKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "miniZ")
	if err := os.WriteFile(path, []byte("miniZ v2.0c"), 0755); err != nil {
		t.Fatal(err)
	}
	key, err := NewKey(path, []string{"-ci"}, []string{"a"})
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}
	if key.Binary != testKey().Binary {
		t.Errorf("NewKey digest does not match file content digest")
	}
	if _, err := NewKey(filepath.Join(t.TempDir(), "missing"), nil, nil); err == nil {
		t.Error("NewKey of missing binary succeeded")
	}
}
