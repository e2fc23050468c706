// Copyright (c) 2025 Oleksandr Kolodkin. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package bcc implements the USS Block Check Character, an XOR checksum
// folded over a telegram byte range.
package bcc

// BCC holds the running checksum state.
type BCC byte

// Reset zeroes the checksum state.
func (b *BCC) Reset() *BCC {
	*b = 0
	return b
}

// PushByte folds a single byte into the checksum.
func (b *BCC) PushByte(v byte) *BCC {
	*b ^= BCC(v)
	return b
}

// PushBytes folds a byte sequence into the checksum, left to right.
func (b *BCC) PushBytes(p []byte) *BCC {
	for _, v := range p {
		*b ^= BCC(v)
	}
	return b
}

// Value returns the current checksum byte.
func (b *BCC) Value() byte {
	return byte(*b)
}

// Sum is a convenience one-shot checksum over p. The sum of an empty
// sequence is 0.
func Sum(p []byte) byte {
	var b BCC
	return b.Reset().PushBytes(p).Value()
}
