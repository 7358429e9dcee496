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
	"testing"

	gondef "github.com/hsanjuan/go-ndef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wrapTLV(msg []byte) []byte {
	out := append([]byte{0x00, TLVNDEFMessage, byte(len(msg))}, msg...)
	return append(out, TLVTerminator)
}

func TestInspect_TextMessage(t *testing.T) {
	t.Parallel()

	payload, err := gondef.NewTextMessage("hello", "en").Marshal()
	require.NoError(t, err)

	records, err := Inspect(wrapTLV(payload))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, byte(gondef.NFCForumWellKnownType), records[0].TNF)
	assert.Equal(t, "T", records[0].Type)
	assert.Contains(t, string(records[0].Payload), "hello")
}

func TestInspect_SkipsLockControlTLV(t *testing.T) {
	t.Parallel()

	payload, err := gondef.NewTextMessage("x", "en").Marshal()
	require.NoError(t, err)

	buf := append([]byte{0x01, 0x03, 0xA0, 0x0C, 0x34}, wrapTLV(payload)...)
	records, err := Inspect(buf)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestInspect_Errors(t *testing.T) {
	t.Parallel()

	_, err := Inspect([]byte{0x00, 0x00, TLVTerminator})
	require.ErrorIs(t, err, ErrNoMessage)

	_, err = Inspect([]byte{TLVNDEFMessage, 0x10, 0xD1})
	require.ErrorIs(t, err, ErrInvalidLength)

	_, err = Inspect(nil)
	require.ErrorIs(t, err, ErrNoMessage)
}

func TestFindMessage(t *testing.T) {
	t.Parallel()

	msg, err := FindMessage([]byte{0x03, 0x02, 0xAA, 0xBB, 0xFE})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, msg)

	msg, err = FindMessage([]byte{0x03, 0xFF, 0x00, 0x01, 0xCC})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCC}, msg)

	_, err = FindMessage([]byte{0x03})
	require.ErrorIs(t, err, ErrNoMessage)
}
