// Copyright (c) 2025 Oleksandr Kolodkin. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package scan

import (
	"github.com/kolod/uss-detect/uss"
)

// fakeChannel simulates one bus opened at one baudrate. Devices are the
// addresses that answer a ping; a written ping to one of them queues a
// reply frame, optionally preceded by noise bytes.
type fakeChannel struct {
	devices map[int]bool

	noise    []byte // prepended to every reply
	fragment bool   // deliver replies one byte per Read
	answerAs int    // when > -1, reply with this address to any ping

	pending  []byte
	writeErr error
	readErr  error

	writes int
	resets int
	closed bool
}

func newFakeChannel(devices ...int) *fakeChannel {
	set := make(map[int]bool, len(devices))
	for _, d := range devices {
		set[d] = true
	}
	return &fakeChannel{devices: set, answerAs: -1}
}

func (c *fakeChannel) Write(p []byte) (int, error) {
	c.writes++
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	tg, err := uss.Decode(p)
	if err != nil {
		return len(p), nil
	}
	from := -1
	switch {
	case c.devices[int(tg.Address)]:
		from = int(tg.Address)
	case c.answerAs > -1:
		from = c.answerAs
	}
	if from > -1 {
		reply, _ := uss.EncodePing(from)
		c.pending = append(c.pending, c.noise...)
		c.pending = append(c.pending, reply...)
	}
	return len(p), nil
}

func (c *fakeChannel) Read(p []byte) (int, error) {
	if c.readErr != nil {
		return 0, c.readErr
	}
	if len(c.pending) == 0 {
		return 0, nil
	}
	n := len(c.pending)
	if c.fragment {
		n = 1
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, c.pending[:n])
	c.pending = c.pending[n:]
	return n, nil
}

func (c *fakeChannel) ResetBuffers() {
	c.resets++
	c.pending = nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

// fakeBus maps baudrates to the device addresses present there and
// records which baudrates were opened.
type fakeBus struct {
	devices map[int][]int
	opened  []int
	openErr map[int]error
}

func (b *fakeBus) open(baudrate int) (Channel, error) {
	b.opened = append(b.opened, baudrate)
	if err := b.openErr[baudrate]; err != nil {
		return nil, err
	}
	return newFakeChannel(b.devices[baudrate]...), nil
}
