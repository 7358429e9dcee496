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

package ndef

import (
	"fmt"

	gondef "github.com/hsanjuan/go-ndef"
)

// RecordInfo describes one record of a parsed NDEF message.
type RecordInfo struct {
	Type    string
	Payload []byte
	TNF     byte
}

// ErrNoMessage is returned by Inspect when no NDEF message TLV is found.
var ErrNoMessage = fmt.Errorf("%w: no NDEF message TLV", ErrNDEF)

// FindMessage walks the TLV blocks in buf and returns the value of the
// first NDEF message TLV. NULL TLVs are skipped and a terminator ends the
// search.
func FindMessage(buf []byte) ([]byte, error) {
	for i := 0; i < len(buf); {
		switch buf[i] {
		case 0x00:
			i++
			continue
		case TLVTerminator:
			return nil, ErrNoMessage
		}
		if i+1 >= len(buf) {
			break
		}
		tag := buf[i]
		length := int(buf[i+1])
		start := i + 2
		if length == 0xFF {
			if i+3 >= len(buf) {
				break
			}
			length = int(buf[i+2])<<8 | int(buf[i+3])
			start = i + 4
		}
		if start+length > len(buf) {
			return nil, fmt.Errorf("%w: TLV 0x%02X needs %d bytes, %d available",
				ErrInvalidLength, tag, length, len(buf)-start)
		}
		if tag == TLVNDEFMessage {
			return buf[start : start+length], nil
		}
		i = start + length
	}
	return nil, ErrNoMessage
}

// Inspect parses the NDEF message in buf as a standard NFC Forum message
// and lists its records. Blocks written by Encode are not standard records
// and fail to parse.
func Inspect(buf []byte) ([]RecordInfo, error) {
	payload, err := FindMessage(buf)
	if err != nil {
		return nil, err
	}

	msg := &gondef.Message{}
	if _, err := msg.Unmarshal(payload); err != nil {
		return nil, fmt.Errorf("%w: parse message: %w", ErrNDEF, err)
	}
	if len(msg.Records) == 0 {
		return nil, ErrNoMessage
	}

	out := make([]RecordInfo, 0, len(msg.Records))
	for _, rec := range msg.Records {
		p, err := rec.Payload()
		if err != nil {
			return nil, fmt.Errorf("%w: record payload: %w", ErrNDEF, err)
		}
		out = append(out, RecordInfo{
			TNF:     rec.TNF(),
			Type:    rec.Type(),
			Payload: p.Marshal(),
		})
	}
	return out, nil
}
