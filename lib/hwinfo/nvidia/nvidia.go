// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package nvidia enumerates NVIDIA GPUs bound to the nvidia
// (proprietary) or nouveau (open-source) kernel driver. PCI identity
// comes from sysfs; with the proprietary driver loaded, the model name
// and GPU UUID are read from /proc/driver/nvidia/gpus/<slot>/information.
package nvidia

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/rigwatch/lib/hwinfo"
)

// Prober implements hwinfo.GPUProber for NVIDIA cards.
type Prober struct {
	sysRoot  string
	procRoot string
}

// NewProber creates a Prober reading the real /sys and /proc.
func NewProber() *Prober {
	return &Prober{sysRoot: "/sys", procRoot: "/proc"}
}

// newProberFrom creates a Prober over synthetic roots for testing.
func newProberFrom(sysRoot, procRoot string) *Prober {
	return &Prober{sysRoot: sysRoot, procRoot: procRoot}
}

// Enumerate returns every nvidia or nouveau card. Returns nil when
// there are none.
func (p *Prober) Enumerate() []hwinfo.GPU {
	var gpus []hwinfo.GPU
	hwinfo.Cards(p.sysRoot, []string{"nvidia", "nouveau"}, func(devicePath, driver string) {
		gpu := hwinfo.GPU{Driver: driver}
		gpu.Vendor, gpu.PCIDeviceID, gpu.PCISlot = hwinfo.ParsePCIUevent(devicePath)
		if driver == "nvidia" && gpu.PCISlot != "" {
			p.enrichFromProc(&gpu)
		}
		gpus = append(gpus, gpu)
	})
	return gpus
}

// enrichFromProc reads the proprietary driver's information file,
// which holds lines like:
//
//	Model:           NVIDIA GeForce RTX 4090
//	GPU UUID:        GPU-5a3c1f4e-0000-1111-2222-333344445555
func (p *Prober) enrichFromProc(gpu *hwinfo.GPU) {
	infoPath := filepath.Join(p.procRoot, "driver/nvidia/gpus", gpu.PCISlot, "information")
	data, err := os.ReadFile(infoPath)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "Model":
			gpu.ModelName = strings.TrimSpace(value)
		case "GPU UUID":
			gpu.UniqueID = strings.TrimSpace(value)
		}
	}
}
