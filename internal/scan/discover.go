// Copyright (c) 2025 Oleksandr Kolodkin. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package scan implements the USS bus discovery search: the address
// worklist parser and the nested baudrate/address probing strategy.
package scan

import (
	"log/slog"
	"time"
)

const defaultProbeTimeout = 100 * time.Millisecond

// Opener opens a channel on the bus at the given baudrate.
type Opener func(baudrate int) (Channel, error)

// Result is the outcome of one discovery run: the detected bus baudrate
// and the responding addresses in ascending order. The zero Result
// means no device was found, which is a normal outcome.
type Result struct {
	Baudrate  int
	Addresses []int
}

// Found reports whether the run detected at least one device.
func (r Result) Found() bool {
	return len(r.Addresses) > 0
}

// Options tunes a discovery run.
type Options struct {
	// ForceAll probes every address at every baudrate instead of
	// stopping at the first response. Useful when devices sit on a
	// misconfigured baudrate and answer with garbled frames elsewhere.
	ForceAll bool

	// Timeout bounds a single probe. Zero selects a default.
	Timeout time.Duration

	// Cancel is polled between probes and between baudrates. When it
	// returns true the search stops and reports what it has so far.
	Cancel func() bool

	// Progress, when set, is invoked after every probe.
	Progress func(baudrate, address int, found bool)
}

// Discover sweeps the baudrates in the given order, probing every
// address of the worklist in ascending order at each. Without ForceAll
// the first responding address wins and no further baudrate is tried.
// With ForceAll every combination is probed and the baudrate with the
// most responding addresses wins, ties going to the earliest baudrate
// in iteration order.
func Discover(open Opener, baudrates, addresses []int, opts Options) Result {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultProbeTimeout
	}

	hits := make(map[int][]int)

	for _, baudrate := range baudrates {
		if opts.Cancel != nil && opts.Cancel() {
			break
		}

		found := sweepBaudrate(open, baudrate, addresses, opts)
		if len(found) > 0 {
			hits[baudrate] = found
			if !opts.ForceAll {
				return Result{Baudrate: baudrate, Addresses: found}
			}
		}
	}

	return bestResult(baudrates, hits)
}

// sweepBaudrate probes the worklist at one baudrate. A channel that
// cannot be opened aborts this baudrate only.
func sweepBaudrate(open Opener, baudrate int, addresses []int, opts Options) []int {
	ch, err := open(baudrate)
	if err != nil {
		slog.Warn("skipping baudrate", "baudrate", baudrate, "err", err)
		return nil
	}
	defer ch.Close()

	slog.Debug("sweeping baudrate", "baudrate", baudrate, "addresses", len(addresses))

	var found []int
	for _, address := range addresses {
		if opts.Cancel != nil && opts.Cancel() {
			break
		}

		ok := Probe(ch, address, opts.Timeout, opts.Cancel)
		if opts.Progress != nil {
			opts.Progress(baudrate, address, ok)
		}
		if ok {
			slog.Info("device responded", "baudrate", baudrate, "address", address)
			found = append(found, address)
			if !opts.ForceAll {
				break
			}
		}
	}
	return found
}

// bestResult reduces the per-baudrate hit lists to the winner: the
// largest hit count, ties broken by the earliest baudrate in iteration
// order.
func bestResult(baudrates []int, hits map[int][]int) Result {
	var best Result
	for _, baudrate := range baudrates {
		found := hits[baudrate]
		if len(found) > len(best.Addresses) {
			best = Result{Baudrate: baudrate, Addresses: found}
		}
	}
	return best
}
