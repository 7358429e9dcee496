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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		want    string
		wantErr error
		buf     []byte
	}{
		{
			name: "short record",
			buf:  []byte{0x03, 0x0A, 0xD1, 0x01, 0x05, 0x54, 0x02, 'a', 'b', 'c', 'd', 0x00, 0xFE},
			want: "abcd",
		},
		{
			name: "compact layout",
			buf:  []byte{0x03, 0x06, 0x02, 0x00, 'a', 'b', 'c', 0x00},
			want: "abc",
		},
		{
			name: "compact layout without padding",
			buf:  []byte{0x03, 0x07, 0x02, 0x00, 'a', 'b', 'c', 'd'},
			want: "abcd",
		},
		{
			name: "compact empty text",
			buf:  []byte{0x03, 0x03, 0x02, 0x00},
			want: "",
		},
		{
			name: "null byte rendered as placeholder",
			buf:  []byte{0x03, 0x06, 0x02, 0x00, 'a', 0x00, 'b', 0x00},
			want: "a.b",
		},
		{
			name: "control and high bytes rendered as placeholder",
			buf:  []byte{0x03, 0x0A, 0xD1, 0x01, 0x05, 0x54, 0x02, 0x07, 'x', 0x80, 0x7F, 0x00, 0xFE},
			want: ".x..",
		},
		{
			name:    "wrong TLV tag",
			buf:     []byte{0x01, 0x03, 0xA0, 0x0C, 0x34, 0x03},
			wantErr: ErrNotNDEF,
		},
		{
			name:    "empty",
			buf:     nil,
			wantErr: ErrNotNDEF,
		},
		{
			name:    "zero length",
			buf:     []byte{0x03, 0x00, 0xFE, 0x00},
			wantErr: ErrInvalidLength,
		},
		{
			name:    "length past buffer",
			buf:     []byte{0x03, 0x20, 0xD1, 0x01, 0x05, 0x54, 0x02, 'a'},
			wantErr: ErrInvalidLength,
		},
		{
			name:    "compact length past buffer",
			buf:     []byte{0x03, 0x09, 0x02, 0x00, 'a', 'b'},
			wantErr: ErrInvalidLength,
		},
		{
			name:    "compact length below header",
			buf:     []byte{0x03, 0x02, 0x02, 0x00},
			wantErr: ErrInvalidLength,
		},
		{
			name:    "media record",
			buf:     []byte{0x03, 0x0A, 0xD2, 0x01, 0x05, 0x54, 0x02, 'a', 'b', 'c', 'd', 0x00},
			wantErr: ErrNotURIRecord,
		},
		{
			name:    "wrong record type",
			buf:     []byte{0x03, 0x0A, 0xD1, 0x01, 0x05, 0x55, 0x02, 'a', 'b', 'c', 'd', 0x00},
			wantErr: ErrNotURIRecord,
		},
		{
			name:    "too short for record header",
			buf:     []byte{0x03, 0x03, 0xD1, 0x01, 0x05},
			wantErr: ErrNotURIRecord,
		},
		{
			name:    "payload length below minimum",
			buf:     []byte{0x03, 0x0A, 0xD1, 0x01, 0x01, 0x54, 0x02, 'a', 'b', 'c', 'd', 0x00},
			wantErr: ErrInvalidPayloadLength,
		},
		{
			name:    "payload length above TLV",
			buf:     []byte{0x03, 0x0A, 0xD1, 0x01, 0x06, 0x54, 0x02, 'a', 'b', 'c', 'd', 0x00},
			wantErr: ErrInvalidPayloadLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Decode(tt.buf)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, ErrNDEF)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	got, err := Encode([]byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x05, 0x02, 0x00, 'h', 'i', 0x00, 0x00}, got)

	got, err = Encode([]byte("abcd"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x07, 0x02, 0x00, 'a', 'b', 'c', 'd'}, got)

	got, err = Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x03, 0x02, 0x00}, got)

	_, err = Encode(make([]byte, MaxTLVLength-2))
	require.ErrorIs(t, err, ErrTextTooLong)

	got, err = Encode(make([]byte, MaxTLVLength-3))
	require.NoError(t, err)
	assert.Equal(t, byte(MaxTLVLength), got[1])
}

func TestEncode_PadsToPage(t *testing.T) {
	t.Parallel()

	for n := 0; n <= 64; n++ {
		got, err := Encode([]byte(strings.Repeat("x", n)))
		require.NoError(t, err)
		assert.Zero(t, len(got)%4, "text length %d", n)
		assert.Equal(t, EncodedLen(n), len(got))
		assert.GreaterOrEqual(t, len(got), n+4)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	var printableASCII strings.Builder
	for c := byte(0x20); c <= 0x7E; c++ {
		printableASCII.WriteByte(c)
	}
	all := printableASCII.String()

	for n := 0; n <= 57; n++ {
		text := all[:n]
		if n > 0 {
			text = all[len(all)-n:]
		}
		enc, err := Encode([]byte(text))
		require.NoError(t, err)
		dec, err := Decode(enc)
		require.NoError(t, err, "length %d", n)
		assert.Equal(t, text, dec)
	}
}
