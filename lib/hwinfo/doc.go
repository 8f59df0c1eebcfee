// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hwinfo enumerates the host's GPUs and gives each one a
// stable identifier that does not depend on any miner's numbering.
//
// Enumeration walks /sys/class/drm/card* and reads the PCI identity of
// each card from its uevent file. Vendor subpackages implement
// [GPUProber] for one driver family:
//
//   - hwinfo/nvidia: nvidia (proprietary) and nouveau cards. The
//     proprietary driver's /proc/driver/nvidia/gpus/<slot>/information
//     file supplies the model name and GPU UUID.
//   - hwinfo/amdgpu: amdgpu cards. The hardware serial comes from the
//     sysfs unique_id attribute when the board exposes one.
//
// [Enumerate] merges the probers' results and sorts them by PCI slot.
// That order is the "host order" used to guess miner-local device
// ordinals: miners that number devices by PCI bus order agree with it,
// and the cross-reference probe corrects the ones that do not.
//
// Stable identifiers are the vendor UUID or serial when the driver
// provides one, otherwise "pci:<slot>". Both survive reboots; the PCI
// form changes only if the card is moved.
package hwinfo
