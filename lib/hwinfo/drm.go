// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hwinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsCardDevice returns true for DRM card device names (card0, card1, ...)
// but not connectors (card0-DP-1) or render nodes (renderD128).
func IsCardDevice(name string) bool {
	suffix, found := strings.CutPrefix(name, "card")
	if !found || suffix == "" {
		return false
	}
	for _, character := range suffix {
		if character < '0' || character > '9' {
			return false
		}
	}
	return true
}

// Cards calls visit with the device directory of every DRM card under
// sysRoot whose bound driver is one of drivers.
func Cards(sysRoot string, drivers []string, visit func(devicePath, driver string)) {
	drmBase := filepath.Join(sysRoot, "class/drm")
	entries, err := os.ReadDir(drmBase)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !IsCardDevice(entry.Name()) {
			continue
		}
		devicePath := filepath.Join(drmBase, entry.Name(), "device")
		driver := ReadDriverName(devicePath)
		for _, want := range drivers {
			if driver == want {
				visit(devicePath, driver)
				break
			}
		}
	}
}

// ReadDriverName returns the basename of the device's "driver"
// symlink, or "" when it cannot be read.
func ReadDriverName(devicePath string) string {
	link, err := os.Readlink(filepath.Join(devicePath, "driver"))
	if err != nil {
		return ""
	}
	return filepath.Base(link)
}

// ParsePCIUevent extracts vendor name, device ID, and PCI slot from
// the device's uevent file, which holds lines like:
//
//	PCI_ID=10DE:2684
//	PCI_SLOT_NAME=0000:01:00.0
func ParsePCIUevent(devicePath string) (vendor, deviceID, pciSlot string) {
	data, err := os.ReadFile(filepath.Join(devicePath, "uevent"))
	if err != nil {
		return "", "", ""
	}

	var rawVendorID, rawDeviceID string
	for _, line := range strings.Split(string(data), "\n") {
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		switch key {
		case "PCI_ID":
			if vendorPart, devicePart, ok := strings.Cut(value, ":"); ok {
				rawVendorID = strings.ToLower(vendorPart)
				rawDeviceID = strings.ToLower(devicePart)
			}
		case "PCI_SLOT_NAME":
			pciSlot = strings.ToLower(value)
		}
	}

	vendor = PCIVendorName(rawVendorID)
	if rawDeviceID != "" {
		deviceID = "0x" + rawDeviceID
	}
	return vendor, deviceID, pciSlot
}

// PCIVendorName maps a lowercase hex PCI vendor ID to a name.
func PCIVendorName(vendorID string) string {
	switch vendorID {
	case "1002":
		return "AMD"
	case "10de":
		return "NVIDIA"
	case "8086":
		return "Intel"
	case "":
		return ""
	default:
		return fmt.Sprintf("0x%s", vendorID)
	}
}

// ReadSysfsString reads a single-line sysfs file and returns its
// trimmed content. Returns "" on any error.
func ReadSysfsString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
