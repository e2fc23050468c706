// Copyright (c) 2014 Quoc-Viet Nguyen. All rights reserved.
// Copyright (c) 2025 Oleksandr Kolodkin. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package scan

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/grid-x/serial"
)

// defaultPollInterval bounds a single Read when the bus is silent.
const defaultPollInterval = 5 * time.Millisecond

// Channel is the byte-oriented view of one serial bus opened at one
// baudrate. Read returns within the poll interval; a silent bus yields
// (0, nil) rather than an error, so callers can spin against their own
// deadline.
type Channel interface {
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
	ResetBuffers()
	Close() error
}

// serialChannel adapts a serial port to the Channel contract.
type serialChannel struct {
	port io.ReadWriteCloser
}

// OpenPort opens device at the given baudrate with the fixed USS
// framing: 8 data bits, even parity, 1 stop bit. poll is the read
// granularity; zero selects a default.
func OpenPort(device string, baudrate int, poll time.Duration) (Channel, error) {
	if poll <= 0 {
		poll = defaultPollInterval
	}

	port, err := serial.Open(&serial.Config{
		Address:  device,
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   "E",
		StopBits: 1,
		Timeout:  poll,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open %s at %d baud: %w", device, baudrate, err)
	}
	return &serialChannel{port: port}, nil
}

func (c *serialChannel) Write(p []byte) (int, error) {
	return c.port.Write(p)
}

// Read reads whatever is pending, waiting at most one poll interval.
// A read timeout is reported as (0, nil).
func (c *serialChannel) Read(p []byte) (int, error) {
	n, err := c.port.Read(p)
	if err != nil && errors.Is(err, serial.ErrTimeout) {
		return n, nil
	}
	return n, err
}

// ResetBuffers drains any bytes left over from a previous exchange so a
// stale response cannot satisfy the next probe.
func (c *serialChannel) ResetBuffers() {
	buf := make([]byte, 256)
	for {
		n, err := c.Read(buf)
		if n == 0 || err != nil {
			return
		}
	}
}

func (c *serialChannel) Close() error {
	return c.port.Close()
}
