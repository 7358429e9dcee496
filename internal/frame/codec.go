// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package frame

import (
	"bytes"
	"fmt"
)

// Header is a decoded response header.
type Header struct {
	Length         int
	LengthChecksum byte
}

// BodyLength is the number of bytes that follow the header: the payload and
// its checksum.
func (h Header) BodyLength() int {
	return h.Length + 1
}

// Encode wraps a command body (without TFI) in a host to PN532 frame.
func Encode(body []byte) ([]byte, error) {
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}
	if len(body) > MaxBodyLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrBodyTooLarge, len(body))
	}

	length := byte(len(body) + 1)
	out := make([]byte, 0, len(body)+overhead)
	out = append(out, Preamble, StartCode1, StartCode2, length, ^length+1, HostToPn532)
	out = append(out, body...)
	out = append(out, ^(CalculateChecksum(body)+HostToPn532)+1, Postamble)
	return out, nil
}

// DecodeHeader validates the 5 byte response header and returns the
// declared payload length.
func DecodeHeader(hdr []byte) (Header, error) {
	if len(hdr) != HeaderLength {
		return Header{}, fmt.Errorf("%w: got %d header bytes", ErrBadPreamble, len(hdr))
	}
	if hdr[0] != Preamble || hdr[1] != StartCode1 || hdr[2] != StartCode2 {
		return Header{}, fmt.Errorf("%w: % X", ErrBadPreamble, hdr[:3])
	}
	if hdr[3]+hdr[4] != 0 {
		return Header{}, fmt.Errorf("%w: LEN=0x%02X LCS=0x%02X", ErrBadLengthChecksum, hdr[3], hdr[4])
	}
	return Header{Length: int(hdr[3]), LengthChecksum: hdr[4]}, nil
}

// DecodeBody verifies the data checksum of a response body and returns the
// payload. body must hold exactly declaredLength payload bytes followed by
// the checksum byte.
func DecodeBody(body []byte, declaredLength int) ([]byte, error) {
	if declaredLength < 0 || len(body) != declaredLength+1 {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrBodyLength, len(body), declaredLength+1)
	}

	payload := body[:declaredLength]
	dcs := body[declaredLength]
	if Checksum(payload) != dcs && !IsOverrideChecksum(dcs) {
		return nil, fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrChecksumMismatch, dcs, Checksum(payload))
	}
	return payload, nil
}

// IsOverrideChecksum reports whether b is one of the trailing byte values
// accepted in place of a correct data checksum.
func IsOverrideChecksum(b byte) bool {
	return b == OverrideChecksumE8 || b == OverrideChecksum56
}

// ExpectAck checks that b is exactly the ACK frame.
func ExpectAck(b []byte) error {
	if bytes.Equal(b, AckFrame) {
		return nil
	}
	if IsNack(b) {
		return fmt.Errorf("%w: %w", ErrMissingAck, ErrNackReceived)
	}
	return fmt.Errorf("%w: got % X", ErrMissingAck, b)
}

// IsNack reports whether b is the NACK frame.
func IsNack(b []byte) bool {
	return bytes.Equal(b, NackFrame)
}
