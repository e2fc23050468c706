// Copyright (c) 2025 Oleksandr Kolodkin. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package ports

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ErrCancelled is returned when the operator aborts port selection.
var ErrCancelled = errors.New("ports: selection cancelled")

const defaultPollInterval = 500 * time.Millisecond

// Memory is the slice of the preference store the selector needs: the
// last used device node and its hardware id.
type Memory interface {
	LastPort() string
	HWID(port string) string
}

// Selector picks a serial port, preferring the previously used adapter
// and falling back to an interactive choice. When no port is present it
// waits for one to be plugged in.
type Selector struct {
	List   func() ([]Info, error)
	Memory Memory
	In     io.Reader
	Out    io.Writer
	Cancel func() bool

	// PollInterval is the plug-in detection period. Zero selects a
	// default.
	PollInterval time.Duration

	reader *bufio.Reader
}

// Select returns the chosen port.
func (s *Selector) Select() (Info, error) {
	available, err := s.List()
	if err != nil {
		return Info{}, err
	}
	if len(available) == 0 {
		return s.waitForPort()
	}

	last := s.lastUsed(available)

	if len(available) == 1 {
		port := available[0]
		if last != nil && last.Device == port.Device {
			fmt.Fprintf(s.Out, "Using port: %s\n", port.Device)
			return port, nil
		}
		ok, err := s.confirm(fmt.Sprintf("Use port %s?", port.Device))
		if err != nil {
			return Info{}, err
		}
		if ok {
			return port, nil
		}
		return s.waitForPort()
	}

	return s.choose(available, last)
}

// lastUsed finds the remembered port among the available ones, matching
// by hardware id first so adapters follow their USB identity across
// device node changes, then by plain name.
func (s *Selector) lastUsed(available []Info) *Info {
	if s.Memory == nil {
		return nil
	}
	lastPort := s.Memory.LastPort()
	if lastPort == "" {
		return nil
	}

	if hwid := s.Memory.HWID(lastPort); hwid != "" {
		for i := range available {
			if available[i].HWID == hwid {
				return &available[i]
			}
		}
	}
	for i := range available {
		if available[i].Device == lastPort {
			return &available[i]
		}
	}
	return nil
}

// waitForPort polls until a usable port appears: the remembered adapter
// at any node, or any newly plugged-in port.
func (s *Selector) waitForPort() (Info, error) {
	poll := s.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	fmt.Fprintln(s.Out, "Waiting for serial port connection...")

	var lastHWID string
	if s.Memory != nil && s.Memory.LastPort() != "" {
		lastHWID = s.Memory.HWID(s.Memory.LastPort())
	}

	// The first scan only establishes a baseline: ports already present
	// were either declined by the operator or absent a moment ago.
	first := true
	previous := make(map[string]bool)
	for s.Cancel == nil || !s.Cancel() {
		available, err := s.List()
		if err != nil {
			return Info{}, err
		}

		if lastHWID != "" {
			for _, port := range available {
				if port.HWID == lastHWID {
					fmt.Fprintf(s.Out, "Found previous device: %s\n", port.Device)
					return port, nil
				}
			}
		}

		var fresh []Info
		for _, port := range available {
			if !previous[port.Device] {
				fresh = append(fresh, port)
			}
		}

		if !first {
			switch len(fresh) {
			case 0:
				// nothing new yet
			case 1:
				fmt.Fprintf(s.Out, "Auto-connecting to: %s\n", fresh[0].Device)
				return fresh[0], nil
			default:
				return s.choose(fresh, nil)
			}
		}

		first = false
		previous = make(map[string]bool, len(available))
		for _, port := range available {
			previous[port.Device] = true
		}
		time.Sleep(poll)
	}
	return Info{}, ErrCancelled
}

// choose presents a numbered menu, defaulting to the remembered port.
func (s *Selector) choose(available []Info, last *Info) (Info, error) {
	fmt.Fprintln(s.Out, "Available serial ports:")

	def := 1
	for i, port := range available {
		marker := ""
		if last != nil && port.Device == last.Device {
			marker = " (last used)"
			def = i + 1
		}
		fmt.Fprintf(s.Out, "  %d. %s - %s%s\n", i+1, port.Device, port.Description, marker)
	}

	for {
		line, err := s.prompt(fmt.Sprintf("Select port [%d]", def))
		if err != nil {
			return Info{}, err
		}
		if line == "" {
			return available[def-1], nil
		}
		choice, err := strconv.Atoi(line)
		if err != nil || choice < 1 || choice > len(available) {
			fmt.Fprintf(s.Out, "Enter a number between 1 and %d\n", len(available))
			continue
		}
		return available[choice-1], nil
	}
}

// confirm asks a yes/no question, defaulting to yes.
func (s *Selector) confirm(question string) (bool, error) {
	line, err := s.prompt(question + " [Y/n]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (s *Selector) prompt(label string) (string, error) {
	if s.reader == nil {
		s.reader = bufio.NewReader(s.In)
	}
	fmt.Fprintf(s.Out, "%s: ", label)
	line, err := s.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("ports: prompt read failed: %w", err)
	}
	return strings.TrimSpace(line), nil
}
