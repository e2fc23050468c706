// Copyright (c) 2025 Oleksandr Kolodkin. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package scan

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kolod/uss-detect/uss"
)

// Address-spec failure classes. All of them abort before any scanning
// starts; the wrapped message carries the offending token or value.
var (
	ErrInvalidAddress     = errors.New("scan: invalid address")
	ErrInvalidRangeFormat = errors.New("scan: invalid range format")
	ErrReversedRange      = errors.New("scan: range start greater than end")
	ErrOutOfRange         = errors.New("scan: address out of range")
)

// ParseAddressSpec parses an address specification into a sorted,
// deduplicated address list. The grammar is comma-separated tokens,
// each either a single address or an inclusive "start-end" range, with
// optional whitespace around tokens and range operands. All addresses
// must lie in [0,31].
func ParseAddressSpec(spec string) ([]int, error) {
	seen := make(map[int]bool)

	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)

		if strings.Contains(token, "-") {
			parts := strings.SplitN(token, "-", 2)
			start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidRangeFormat, token)
			}
			end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidRangeFormat, token)
			}
			if start > end {
				return nil, fmt.Errorf("%w: %q", ErrReversedRange, token)
			}
			for addr := start; addr <= end; addr++ {
				if addr < uss.MinAddress || addr > uss.MaxAddress {
					return nil, fmt.Errorf("%w: %d not in [%d-%d]", ErrOutOfRange, addr, uss.MinAddress, uss.MaxAddress)
				}
				seen[addr] = true
			}
			continue
		}

		addr, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, token)
		}
		if addr < uss.MinAddress || addr > uss.MaxAddress {
			return nil, fmt.Errorf("%w: %d not in [%d-%d]", ErrOutOfRange, addr, uss.MinAddress, uss.MaxAddress)
		}
		seen[addr] = true
	}

	addresses := make([]int, 0, len(seen))
	for addr := range seen {
		addresses = append(addresses, addr)
	}
	sort.Ints(addresses)
	return addresses, nil
}

// AllAddresses returns the full USS address space 0..31 in ascending
// order, the default worklist when no spec is given.
func AllAddresses() []int {
	addresses := make([]int, 0, uss.MaxAddress-uss.MinAddress+1)
	for addr := uss.MinAddress; addr <= uss.MaxAddress; addr++ {
		addresses = append(addresses, addr)
	}
	return addresses
}
