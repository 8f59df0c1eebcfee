// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hwinfo

import (
	"fmt"
	"strconv"
	"strings"
)

// PCIAddress is a parsed PCI location: domain:bus:device.function.
type PCIAddress struct {
	Domain   int
	Bus      int
	Device   int
	Function int
}

// String formats the address the way sysfs does ("0000:01:00.0").
func (a PCIAddress) String() string {
	return fmt.Sprintf("%04x:%02x:%02x.%x", a.Domain, a.Bus, a.Device, a.Function)
}

// ParsePCIAddress parses "dddd:bb:dd.f" or the short "bb:dd.f" form
// (domain 0). Components are hexadecimal.
func ParsePCIAddress(text string) (PCIAddress, error) {
	text = strings.TrimSpace(text)
	parts := strings.Split(text, ":")
	var address PCIAddress
	var domain, bus, rest string
	switch len(parts) {
	case 2:
		domain, bus, rest = "0", parts[0], parts[1]
	case 3:
		domain, bus, rest = parts[0], parts[1], parts[2]
	default:
		return PCIAddress{}, fmt.Errorf("pci address %q: want [domain:]bus:device.function", text)
	}
	device, function, found := strings.Cut(rest, ".")
	if !found {
		return PCIAddress{}, fmt.Errorf("pci address %q: missing function", text)
	}

	fields := []struct {
		text  string
		value *int
	}{
		{domain, &address.Domain},
		{bus, &address.Bus},
		{device, &address.Device},
		{function, &address.Function},
	}
	for _, field := range fields {
		value, err := strconv.ParseUint(field.text, 16, 16)
		if err != nil {
			return PCIAddress{}, fmt.Errorf("pci address %q: %w", text, err)
		}
		*field.value = int(value)
	}
	return address, nil
}
