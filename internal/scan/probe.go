// Copyright (c) 2025 Oleksandr Kolodkin. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package scan

import (
	"bytes"
	"errors"
	"log/slog"
	"time"

	"github.com/kolod/uss-detect/uss"
)

// Probe sends one ping telegram to address and waits up to timeout for
// a valid response from that same address. It reports false on timeout,
// cancellation, or any channel I/O failure; a failed probe is never an
// error, just an absent device.
func Probe(ch Channel, address int, timeout time.Duration, cancel func() bool) bool {
	ch.ResetBuffers()

	ping, err := uss.EncodePing(address)
	if err != nil {
		return false
	}
	if _, err := ch.Write(ping); err != nil {
		slog.Debug("ping write failed", "address", address, "err", err)
		return false
	}

	deadline := time.Now().Add(timeout)
	acc := make([]byte, 0, 64)
	buf := make([]byte, 64)

	for time.Now().Before(deadline) {
		if cancel != nil && cancel() {
			return false
		}

		n, err := ch.Read(buf)
		if err != nil {
			slog.Debug("read failed", "address", address, "err", err)
			return false
		}
		if n == 0 {
			continue
		}
		acc = append(acc, buf[:n]...)

		for {
			tg, err := uss.Decode(acc)
			if err != nil {
				if errors.Is(err, uss.ErrTruncated) || errors.Is(err, uss.ErrTooShort) {
					break // need more bytes
				}
				// Resync on the next STX, skipping the garbage prefix.
				if i := bytes.IndexByte(acc[1:], uss.STX); i >= 0 {
					acc = acc[i+1:]
					continue
				}
				acc = acc[:0]
				break
			}
			if int(tg.Address) == address {
				return true
			}
			// Valid frame from someone else; drop it and keep waiting.
			acc = acc[2+int(acc[1]):]
		}
	}
	return false
}
