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

package testing

// Command bytes for reference
const (
	CmdGetFirmwareVersion  = 0x02
	CmdGetGeneralStatus    = 0x04
	CmdSAMConfiguration    = 0x14
	CmdInDataExchange      = 0x40
	CmdInListPassiveTarget = 0x4A
)

// NTAG sub-commands carried by InDataExchange
const (
	NTAGRead  = 0x30
	NTAGWrite = 0xA2
)

// CompactTextTLV builds the NDEF TLV layout written by the tag writer:
// 03 L 02 00 text, zero padded to a page boundary.
func CompactTextTLV(text string) []byte {
	out := make([]byte, 0, len(text)+8)
	out = append(out, 0x03, byte(len(text)+3), 0x02, 0x00)
	out = append(out, text...)
	for len(out)%4 != 0 {
		out = append(out, 0x00)
	}
	return out
}

// TextRecordTLV builds an NDEF TLV holding one short well-known record of
// type 0x54 whose payload is a one byte prefix followed by text. The TLV
// length covers one padding byte after the record.
func TextRecordTLV(prefix byte, text string) []byte {
	payloadLen := len(text) + 1
	out := make([]byte, 0, payloadLen+9)
	out = append(out, 0x03, byte(payloadLen+5), 0xD1, 0x01, byte(payloadLen), 0x54, prefix)
	out = append(out, text...)
	return append(out, 0x00, 0xFE)
}

// NTAGReadFrame is the InDataExchange body reading four pages from page.
func NTAGReadFrame(page byte) []byte {
	return []byte{CmdInDataExchange, 0x01, NTAGRead, page}
}
