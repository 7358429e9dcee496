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

// Package frame builds and parses PN532 normal information frames.
//
// A host command is wrapped as
//
//	00 00 FF LEN LCS D4 body... DCS 00
//
// and a reply arrives as a 5 byte header (00 00 FF LEN LCS) followed by LEN
// payload bytes and a data checksum.
package frame

// Frame direction constants - these indicate the direction of data flow
const (
	HostToPn532 = 0xD4 // Commands from host to PN532
	Pn532ToHost = 0xD5 // Responses from PN532 to host
)

// Frame markers and control bytes
const (
	Preamble   = 0x00
	StartCode1 = 0x00
	StartCode2 = 0xFF
	Postamble  = 0x00
)

// Frame size limits
const (
	MaxBodyLength = 254 // LEN is one byte and includes the TFI
	HeaderLength  = 5   // preamble + start codes + LEN + LCS
	AckLength     = 6
	overhead      = 8 // preamble, start codes, LEN, LCS, TFI, DCS, postamble
)

// Checksum override bytes. Some PN532 clones emit a DCS that does not add
// up; a body ending in one of these values is accepted anyway.
const (
	OverrideChecksumE8 = 0xE8
	OverrideChecksum56 = 0x56
)

// ACK and NACK frames - these are used for flow control
var (
	AckFrame  = []byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}
	NackFrame = []byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00}
)

// WakeUpSequence is written before every command to bring the PN532 out of
// low power mode on HSU.
var WakeUpSequence = []byte{0x55, 0x55, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
