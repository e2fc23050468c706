// Copyright (c) 2025 Oleksandr Kolodkin. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package bcc

import "testing"

func TestSum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{"Empty", nil, 0x00},
		{"SingleByte", []byte{0x05}, 0x05},
		{"TwoIdenticalBytes", []byte{0x05, 0x05}, 0x00},
		{"TwoDifferentBytes", []byte{0x02, 0x05}, 0x07},
		{"ThreeBytes", []byte{0x02, 0x00, 0x01}, 0x03},
		{"PingAddressZero", []byte{0x02, 0x00}, 0x02},
		{"PingAddressFive", []byte{0x02, 0x05}, 0x07},
		{"WithNetData", []byte{0x04, 0x01, 0x12, 0x34}, 0x23},
		{"AllBitsSet", []byte{0xFF, 0xFF}, 0x00},
		{"AlternatingPattern", []byte{0xAA, 0x55}, 0xFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sum(tt.data); got != tt.want {
				t.Errorf("Sum(% X) = %#02x, want %#02x", tt.data, got, tt.want)
			}
		})
	}
}

func TestIncremental(t *testing.T) {
	var b BCC
	b.Reset().PushBytes([]byte{0x02, 0x05})
	if b.Value() != 0x07 {
		t.Fatalf("checksum expected %#02x, actual %#02x", 0x07, b.Value())
	}

	// Pushing the checksum itself must cancel out to zero.
	b.PushByte(0x07)
	if b.Value() != 0x00 {
		t.Fatalf("checksum over frame incl. BCC expected 0, actual %#02x", b.Value())
	}
}
