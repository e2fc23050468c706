// Copyright (c) 2025 Oleksandr Kolodkin. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package ports

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMemory struct {
	lastPort string
	hwids    map[string]string
}

func (m *fakeMemory) LastPort() string        { return m.lastPort }
func (m *fakeMemory) HWID(port string) string { return m.hwids[port] }

// fakeLister replays successive port listings, repeating the last one.
type fakeLister struct {
	listings [][]Info
	calls    int
}

func (l *fakeLister) list() ([]Info, error) {
	i := l.calls
	if i >= len(l.listings) {
		i = len(l.listings) - 1
	}
	l.calls++
	return l.listings[i], nil
}

func newSelector(lister *fakeLister, mem Memory, input string) (*Selector, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &Selector{
		List:         lister.list,
		Memory:       mem,
		In:           strings.NewReader(input),
		Out:          out,
		PollInterval: time.Millisecond,
	}, out
}

var (
	usb0 = Info{Device: "/dev/ttyUSB0", Description: "FT232R", HWID: "0403:6001:A1"}
	usb1 = Info{Device: "/dev/ttyUSB1", Description: "CP2102", HWID: "10C4:EA60:B2"}
)

func TestSelectSingleKnownPort(t *testing.T) {
	lister := &fakeLister{listings: [][]Info{{usb0}}}
	mem := &fakeMemory{lastPort: usb0.Device, hwids: map[string]string{usb0.Device: usb0.HWID}}

	s, out := newSelector(lister, mem, "")
	got, err := s.Select()

	require.NoError(t, err)
	assert.Equal(t, usb0, got)
	assert.Contains(t, out.String(), "Using port")
}

func TestSelectSingleUnknownPortConfirmed(t *testing.T) {
	lister := &fakeLister{listings: [][]Info{{usb0}}}

	s, _ := newSelector(lister, nil, "y\n")
	got, err := s.Select()

	require.NoError(t, err)
	assert.Equal(t, usb0, got)
}

func TestSelectKnownAdapterOnRenamedNode(t *testing.T) {
	// The adapter moved from ttyUSB0 to ttyUSB1; the hardware id match
	// must still pick it without prompting.
	moved := Info{Device: "/dev/ttyUSB1", Description: usb0.Description, HWID: usb0.HWID}
	lister := &fakeLister{listings: [][]Info{{usb1, moved}}}
	mem := &fakeMemory{lastPort: usb0.Device, hwids: map[string]string{usb0.Device: usb0.HWID}}

	s, _ := newSelector(lister, mem, "\n")
	got, err := s.Select()

	require.NoError(t, err)
	assert.Equal(t, moved, got)
}

func TestSelectMenuChoice(t *testing.T) {
	lister := &fakeLister{listings: [][]Info{{usb0, usb1}}}

	s, out := newSelector(lister, nil, "2\n")
	got, err := s.Select()

	require.NoError(t, err)
	assert.Equal(t, usb1, got)
	assert.Contains(t, out.String(), "1. /dev/ttyUSB0")
	assert.Contains(t, out.String(), "2. /dev/ttyUSB1")
}

func TestSelectMenuDefaultsToLastUsed(t *testing.T) {
	lister := &fakeLister{listings: [][]Info{{usb0, usb1}}}
	mem := &fakeMemory{lastPort: usb1.Device, hwids: map[string]string{usb1.Device: usb1.HWID}}

	s, out := newSelector(lister, mem, "\n")
	got, err := s.Select()

	require.NoError(t, err)
	assert.Equal(t, usb1, got)
	assert.Contains(t, out.String(), "(last used)")
}

func TestSelectMenuRejectsBadInput(t *testing.T) {
	lister := &fakeLister{listings: [][]Info{{usb0, usb1}}}

	s, out := newSelector(lister, nil, "7\nx\n1\n")
	got, err := s.Select()

	require.NoError(t, err)
	assert.Equal(t, usb0, got)
	assert.Contains(t, out.String(), "Enter a number between 1 and 2")
}

func TestWaitForPlugIn(t *testing.T) {
	lister := &fakeLister{listings: [][]Info{
		{},     // nothing connected yet
		{},     // baseline scan
		{usb1}, // adapter plugged in
	}}

	s, out := newSelector(lister, nil, "")
	got, err := s.Select()

	require.NoError(t, err)
	assert.Equal(t, usb1, got)
	assert.Contains(t, out.String(), "Auto-connecting")
}

func TestWaitFindsRememberedAdapter(t *testing.T) {
	lister := &fakeLister{listings: [][]Info{
		{},
		{usb0},
	}}
	mem := &fakeMemory{lastPort: usb0.Device, hwids: map[string]string{usb0.Device: usb0.HWID}}

	s, out := newSelector(lister, mem, "")
	got, err := s.Select()

	require.NoError(t, err)
	assert.Equal(t, usb0, got)
	assert.Contains(t, out.String(), "Found previous device")
}

func TestWaitCancellation(t *testing.T) {
	lister := &fakeLister{listings: [][]Info{{}}}

	s, _ := newSelector(lister, nil, "")
	calls := 0
	s.Cancel = func() bool {
		calls++
		return calls > 3
	}

	_, err := s.Select()
	assert.ErrorIs(t, err, ErrCancelled)
}
