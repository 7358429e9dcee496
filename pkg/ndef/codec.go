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

// Package ndef encodes and decodes the single-record NDEF TLV blocks stored
// in the first user pages of NTAG21x tags.
package ndef

import (
	"errors"
	"fmt"
)

// TLV and record header bytes
const (
	TLVNDEFMessage  = 0x03
	TLVTerminator   = 0xFE
	ShortRecordHdr  = 0xD1 // MB | ME | SR, TNF well-known
	RecordType54    = 0x54
	CompactTypeByte = 0x02
	Placeholder     = '.'

	// MaxTLVLength is the largest length a one byte TLV length field holds.
	MaxTLVLength = 254

	compactHeaderLen = 4 // 03 L 02 00
	recordTextOffset = 7 // 03 L D1 01 PL 54 prefix
	pageSize         = 4
)

// Errors. Every decode/encode failure wraps ErrNDEF.
var (
	ErrNDEF                 = errors.New("ndef")
	ErrNotNDEF              = fmt.Errorf("%w: not an NDEF message TLV", ErrNDEF)
	ErrInvalidLength        = fmt.Errorf("%w: invalid TLV length", ErrNDEF)
	ErrNotURIRecord         = fmt.Errorf("%w: not a URI record", ErrNDEF)
	ErrInvalidPayloadLength = fmt.Errorf("%w: invalid payload length", ErrNDEF)
	ErrTextTooLong          = fmt.Errorf("%w: text too long", ErrNDEF)
)

// Decode extracts the text of the record at the start of an NDEF TLV
// block. Bytes outside printable ASCII are replaced with '.'.
//
// Two layouts are recognised: a short well-known record of type 0x54
// (03 L D1 01 PL 54 prefix text...) and the compact layout produced by
// Encode (03 L 02 00 text...).
func Decode(buf []byte) (string, error) {
	if len(buf) < 2 || buf[0] != TLVNDEFMessage {
		return "", ErrNotNDEF
	}
	length := int(buf[1])
	if length == 0 {
		return "", fmt.Errorf("%w: 0", ErrInvalidLength)
	}

	if isCompact(buf) {
		textLen := length - 3
		if textLen < 0 || compactHeaderLen+textLen > len(buf) {
			return "", fmt.Errorf("%w: %d for %d byte buffer", ErrInvalidLength, length, len(buf))
		}
		return printable(buf[compactHeaderLen : compactHeaderLen+textLen]), nil
	}

	if length > len(buf)-2 {
		return "", fmt.Errorf("%w: %d for %d byte buffer", ErrInvalidLength, length, len(buf))
	}
	if len(buf) < recordTextOffset || buf[2] != ShortRecordHdr || buf[5] != RecordType54 {
		return "", ErrNotURIRecord
	}
	payloadLen := int(buf[4])
	if payloadLen < 2 || payloadLen > length-5 {
		return "", fmt.Errorf("%w: %d", ErrInvalidPayloadLength, payloadLen)
	}
	end := min(recordTextOffset+payloadLen-1, len(buf))
	return printable(buf[recordTextOffset:end]), nil
}

func isCompact(buf []byte) bool {
	return len(buf) >= compactHeaderLen && buf[2] == CompactTypeByte && buf[3] == 0x00
}

func printable(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 0x20 && c <= 0x7E {
			out[i] = c
		} else {
			out[i] = Placeholder
		}
	}
	return string(out)
}

// Encode builds the compact TLV block for text, zero padded to a whole
// number of pages.
func Encode(text []byte) ([]byte, error) {
	if len(text)+3 > MaxTLVLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrTextTooLong, len(text))
	}
	out := make([]byte, 0, EncodedLen(len(text)))
	out = append(out, TLVNDEFMessage, byte(len(text)+3), CompactTypeByte, 0x00)
	out = append(out, text...)
	for len(out)%pageSize != 0 {
		out = append(out, 0x00)
	}
	return out, nil
}

// EncodedLen returns the length of Encode's output for n text bytes.
func EncodedLen(n int) int {
	l := compactHeaderLen + n
	if r := l % pageSize; r != 0 {
		l += pageSize - r
	}
	return l
}
