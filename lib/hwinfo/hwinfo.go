// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hwinfo

import (
	"sort"
	"strings"
)

// GPU is static identity for one physical GPU.
type GPU struct {
	// StableID identifies the device across miner instances and
	// reboots. See [StableIDFor].
	StableID string `json:"stable_id"`

	// Vendor is "NVIDIA", "AMD", "Intel", or "0x<id>" for unknown
	// PCI vendors.
	Vendor string `json:"vendor"`

	// Driver is the kernel driver bound to the device (nvidia,
	// nouveau, amdgpu).
	Driver string `json:"driver"`

	// PCISlot is the PCI address, e.g. "0000:01:00.0".
	PCISlot string `json:"pci_slot"`

	// PCIDeviceID is the PCI device id, e.g. "0x2684".
	PCIDeviceID string `json:"pci_device_id"`

	// ModelName is the marketing name when the driver reports one.
	ModelName string `json:"model_name,omitempty"`

	// UniqueID is the vendor hardware identifier: the GPU UUID on
	// NVIDIA, the sysfs unique_id serial on AMD. Empty when the
	// driver does not expose one.
	UniqueID string `json:"unique_id,omitempty"`
}

// GPUProber enumerates the GPUs bound to one vendor's drivers. A
// prober returns nil, not an error, when it finds nothing.
type GPUProber interface {
	Enumerate() []GPU
}

// Enumerate runs every prober and returns the GPUs of the given vendor
// sorted by PCI slot. An empty vendor matches all vendors. Vendor
// comparison is case-insensitive.
func Enumerate(vendor string, probers ...GPUProber) []GPU {
	var gpus []GPU
	for _, prober := range probers {
		for _, gpu := range prober.Enumerate() {
			if gpu.StableID == "" {
				gpu.StableID = StableIDFor(gpu)
			}
			gpus = append(gpus, gpu)
		}
	}
	gpus = FilterVendor(gpus, vendor)
	sort.SliceStable(gpus, func(i, j int) bool {
		return gpus[i].PCISlot < gpus[j].PCISlot
	})
	return gpus
}

// FilterVendor returns the GPUs of the given vendor in their original
// order. An empty vendor returns a copy of gpus.
func FilterVendor(gpus []GPU, vendor string) []GPU {
	filtered := make([]GPU, 0, len(gpus))
	for _, gpu := range gpus {
		if vendor != "" && !strings.EqualFold(gpu.Vendor, vendor) {
			continue
		}
		filtered = append(filtered, gpu)
	}
	return filtered
}

// StableIDFor derives the stable identifier of a GPU: its vendor
// unique id when known, otherwise its PCI slot.
func StableIDFor(gpu GPU) string {
	if gpu.UniqueID != "" {
		return gpu.UniqueID
	}
	return "pci:" + gpu.PCISlot
}
