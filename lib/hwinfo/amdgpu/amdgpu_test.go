// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package amdgpu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/rigwatch/lib/hwinfo"
)

func writeSyntheticFile(t *testing.T, root, path, content string) {
	t.Helper()
	fullPath := filepath.Join(root, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(fullPath), err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", fullPath, err)
	}
}

func createSyntheticAMDGPU(t *testing.T, root, card, pciSlot, uniqueID string) {
	t.Helper()
	driverDir := filepath.Join(root, "sys/bus/pci/drivers/amdgpu")
	if err := os.MkdirAll(driverDir, 0755); err != nil {
		t.Fatalf("mkdir driver: %v", err)
	}
	devicePath := filepath.Join("sys/class/drm", card, "device")
	writeSyntheticFile(t, root, filepath.Join(devicePath, "uevent"),
		"DRIVER=amdgpu\nPCI_ID=1002:744C\nPCI_SLOT_NAME="+pciSlot+"\n")
	if uniqueID != "" {
		writeSyntheticFile(t, root, filepath.Join(devicePath, "unique_id"), uniqueID+"\n")
	}
	if err := os.Symlink(driverDir, filepath.Join(root, devicePath, "driver")); err != nil {
		t.Fatalf("symlink driver: %v", err)
	}
}

func TestEnumerate(t *testing.T) {
	root := t.TempDir()
	createSyntheticAMDGPU(t, root, "card1", "0000:c3:00.0", "")
	createSyntheticAMDGPU(t, root, "card0", "0000:83:00.0", "8b3a1c0d2e4f5a6b")

	gpus := hwinfo.Enumerate("AMD", newProberFrom(filepath.Join(root, "sys")))
	if len(gpus) != 2 {
		t.Fatalf("Enumerate() returned %d GPUs, want 2", len(gpus))
	}
	if gpus[0].PCISlot != "0000:83:00.0" || gpus[0].StableID != "8b3a1c0d2e4f5a6b" {
		t.Errorf("gpus[0] = %+v, want slot 0000:83:00.0 with serial stable id", gpus[0])
	}
	if gpus[1].StableID != "pci:0000:c3:00.0" {
		t.Errorf("gpus[1].StableID = %q, want pci:0000:c3:00.0", gpus[1].StableID)
	}
	if gpus[1].PCIDeviceID != "0x744c" {
		t.Errorf("PCIDeviceID = %q, want 0x744c", gpus[1].PCIDeviceID)
	}
}
