// Copyright (c) 2025 Oleksandr Kolodkin. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package ports enumerates serial ports and lets the operator pick the
// one the USS bus hangs off, remembering the choice across runs.
package ports

import (
	"fmt"

	"go.bug.st/serial/enumerator"
)

// Info describes one serial port.
type Info struct {
	Device      string
	Description string
	HWID        string
}

// List returns the serial ports currently present on the system.
func List() ([]Info, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("ports: enumeration failed: %w", err)
	}

	infos := make([]Info, 0, len(details))
	for _, d := range details {
		infos = append(infos, Info{
			Device:      d.Name,
			Description: description(d),
			HWID:        hardwareID(d),
		})
	}
	return infos, nil
}

// hardwareID derives a stable identifier for a port. USB adapters get
// VID:PID:SERIAL, which survives device node renumbering; anything else
// falls back to the node itself.
func hardwareID(d *enumerator.PortDetails) string {
	if !d.IsUSB {
		return d.Name
	}
	return fmt.Sprintf("%s:%s:%s", d.VID, d.PID, d.SerialNumber)
}

func description(d *enumerator.PortDetails) string {
	if d.Product != "" {
		return d.Product
	}
	return "Unknown"
}
