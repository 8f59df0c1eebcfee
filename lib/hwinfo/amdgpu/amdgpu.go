// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package amdgpu enumerates AMD GPUs bound to the amdgpu kernel
// driver from sysfs.
package amdgpu

import (
	"path/filepath"

	"github.com/bureau-foundation/rigwatch/lib/hwinfo"
)

// Prober implements hwinfo.GPUProber for amdgpu cards.
type Prober struct {
	sysRoot string
}

// NewProber creates a Prober reading the real /sys.
func NewProber() *Prober {
	return &Prober{sysRoot: "/sys"}
}

func newProberFrom(sysRoot string) *Prober {
	return &Prober{sysRoot: sysRoot}
}

// Enumerate returns every amdgpu card. Returns nil when there are none.
func (p *Prober) Enumerate() []hwinfo.GPU {
	var gpus []hwinfo.GPU
	hwinfo.Cards(p.sysRoot, []string{"amdgpu"}, func(devicePath, driver string) {
		gpu := hwinfo.GPU{Driver: driver}
		gpu.Vendor, gpu.PCIDeviceID, gpu.PCISlot = hwinfo.ParsePCIUevent(devicePath)
		// Serial number; absent on most consumer boards.
		gpu.UniqueID = hwinfo.ReadSysfsString(filepath.Join(devicePath, "unique_id"))
		gpu.ModelName = hwinfo.ReadSysfsString(filepath.Join(devicePath, "product_name"))
		gpus = append(gpus, gpu)
	})
	return gpus
}
