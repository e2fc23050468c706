// Copyright (c) 2025 Oleksandr Kolodkin. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package uss implements the Siemens USS (Universal Serial Interface)
// telegram codec.
//
// Wire frame:
//
//	STX             : 1 byte, fixed 0x02
//	LGE             : 1 byte, counts ADR + net data + BCC (= 2 + net bytes)
//	ADR             : 1 byte, device address 0..31
//	Net data        : 2*n bytes, PKW words followed by PZD words, high byte first
//	BCC             : 1 byte, XOR over LGE..last net data byte
//
// Total frame size is always 2 + LGE.
package uss

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/kolod/uss-detect/uss/bcc"
)

// STX is the start-of-frame sentinel byte.
const STX = 0x02

const (
	// MinAddress and MaxAddress bound the USS device address space.
	MinAddress = 0
	MaxAddress = 31

	// MinFrameSize is the size of a ping telegram: STX LGE ADR BCC.
	MinFrameSize = 4

	// MaxNetWords is the largest net data word count for which LGE still
	// fits into its single length byte.
	MaxNetWords = 126
)

// Baudrates lists the standard USS baudrates, fastest first.
var Baudrates = []int{115200, 57600, 38400, 19200, 9600, 4800, 2400, 1200}

// Decode failure classes. All of them mean "this buffer is not a valid
// telegram"; ErrTruncated additionally means the caller should keep
// accumulating bytes and retry.
var (
	ErrTooShort    = errors.New("uss: buffer below minimum telegram size")
	ErrBadSentinel = errors.New("uss: missing STX sentinel")
	ErrTruncated   = errors.New("uss: incomplete telegram")
	ErrBadLength   = errors.New("uss: invalid net data length")
	ErrBadChecksum = errors.New("uss: checksum mismatch")
)

// InvalidAddressError reports an encode request for an address outside
// the USS address space.
type InvalidAddressError struct {
	Address int
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("uss: address must be %d-%d, got %d", MinAddress, MaxAddress, e.Address)
}

// Telegram is a decoded USS frame. It is only ever produced for buffers
// that pass every structural and checksum check.
type Telegram struct {
	Address byte
	Length  byte
	Words   []uint16
}

// Encode builds the wire frame for a telegram addressed to address,
// carrying the PKW words followed by the PZD words. Either group may be
// empty. The returned slice is freshly allocated on every call.
func Encode(address int, pkw, pzd []uint16) ([]byte, error) {
	if address < MinAddress || address > MaxAddress {
		return nil, &InvalidAddressError{Address: address}
	}

	words := len(pkw) + len(pzd)
	if words > MaxNetWords {
		return nil, fmt.Errorf("%w: %d words exceed maximum %d", ErrBadLength, words, MaxNetWords)
	}

	lge := 2 + 2*words
	frame := make([]byte, 0, 2+lge)
	frame = append(frame, STX, byte(lge), byte(address))
	for _, w := range pkw {
		frame = binary.BigEndian.AppendUint16(frame, w)
	}
	for _, w := range pzd {
		frame = binary.BigEndian.AppendUint16(frame, w)
	}

	// BCC covers everything after STX.
	return append(frame, bcc.Sum(frame[1:])), nil
}

// EncodePing builds the minimal 4-byte presence-check telegram, with
// empty PKW and PZD groups.
func EncodePing(address int) ([]byte, error) {
	return Encode(address, nil, nil)
}

// EncodeParameterRead builds a parameter read request telegram.
// The PKW group carries task code 1 (read request) with the parameter
// index split across the two words: AK|IND in the first, the low index
// byte in the high half of the second.
func EncodeParameterRead(address int, parameter uint16) ([]byte, error) {
	pkw := []uint16{0x0100 | parameter>>8, (parameter & 0xFF) << 8}
	return Encode(address, pkw, nil)
}

// Decode parses and validates one telegram from the start of buf.
// Bytes beyond the declared frame size are left alone; callers holding a
// multi-frame buffer must re-slice and call again.
//
// ErrTruncated signals that buf holds a valid-looking prefix with more
// bytes declared than present, so the caller should keep buffering. Any
// other error is a rejection of the current prefix.
func Decode(buf []byte) (*Telegram, error) {
	if len(buf) < MinFrameSize {
		return nil, fmt.Errorf("%w: have %d bytes, need at least %d", ErrTooShort, len(buf), MinFrameSize)
	}
	if buf[0] != STX {
		return nil, fmt.Errorf("%w: leading byte %#02x", ErrBadSentinel, buf[0])
	}

	lge := int(buf[1])
	adr := buf[2]

	expected := 2 + lge
	if len(buf) < expected {
		return nil, fmt.Errorf("%w: have %d bytes, frame declares %d", ErrTruncated, len(buf), expected)
	}

	netBytes := lge - 2
	if netBytes < 0 || netBytes%2 != 0 {
		return nil, fmt.Errorf("%w: LGE %d implies %d net data bytes", ErrBadLength, lge, netBytes)
	}

	if sum := bcc.Sum(buf[1 : expected-1]); sum != buf[expected-1] {
		return nil, fmt.Errorf("%w: received %#02x, calculated %#02x", ErrBadChecksum, buf[expected-1], sum)
	}

	words := make([]uint16, 0, netBytes/2)
	for i := 3; i < 3+netBytes; i += 2 {
		words = append(words, binary.BigEndian.Uint16(buf[i:]))
	}

	return &Telegram{Address: adr, Length: byte(lge), Words: words}, nil
}
