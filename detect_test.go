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

package pn532

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/ZaparooProject/go-pn532-ntag/internal/testing"
)

func TestDevice_DetectTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sensRes [2]byte
		want    bool
	}{
		{name: "NTAG byte order", sensRes: [2]byte{0x00, 0x44}, want: true},
		{name: "swapped byte order", sensRes: [2]byte{0x04, 0x00}, want: true},
		{name: "MIFARE Classic 1K", sensRes: [2]byte{0x00, 0x04}, want: false},
		{name: "unknown", sensRes: [2]byte{0x44, 0x00}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tag := testutil.NewVirtualNTAG(testutil.NTAG213, nil)
			tag.SetSensRes(tt.sensRes[0], tt.sensRes[1])
			device, sim, _ := newSimDevice(t, tag)

			assert.Equal(t, tt.want, device.DetectTag(context.Background()))
			assert.True(t, sim.GetState().TargetSelected)
		})
	}
}

func TestDevice_DetectTag_NoTag(t *testing.T) {
	t.Parallel()

	device, _, _ := newSimDevice(t, nil)
	assert.False(t, device.DetectTag(context.Background()))

	_, err := device.DetectTarget(context.Background())
	require.ErrorIs(t, err, ErrTagNotFound)
}

func TestDevice_DetectTag_ExchangeFailure(t *testing.T) {
	t.Parallel()

	device, sim, _ := newSimDevice(t, testutil.NewVirtualNTAG(testutil.NTAG215, nil))
	sim.InjectFault(testutil.FaultBadChecksum)

	assert.False(t, device.DetectTag(context.Background()))
	assert.True(t, device.DetectTag(context.Background()))
}

func TestDevice_DetectTarget(t *testing.T) {
	t.Parallel()

	device, sim, _ := newSimDevice(t, testutil.NewVirtualNTAG(testutil.NTAG216, nil))

	target, err := device.DetectTarget(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(1), target.Number)
	assert.Equal(t, testutil.TestNTAGUID, target.UID)
	assert.Equal(t, "04abcdef123456", target.UIDString())
	assert.True(t, target.IsNTAG())

	cmds := sim.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, byte(cmdInListPassiveTarget), cmds[0].Cmd)
	assert.Equal(t, []byte{0x01, 0x00}, cmds[0].Params)
}

func TestParseTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		res     []byte
		wantUID []byte
	}{
		{
			name:    "full target",
			res:     []byte{0xD5, 0x4B, 0x01, 0x01, 0x00, 0x44, 0x00, 0x04, 0x01, 0x02, 0x03, 0x04},
			wantUID: []byte{0x01, 0x02, 0x03, 0x04},
		},
		{
			name:    "UID length past end is clipped",
			res:     []byte{0xD5, 0x4B, 0x01, 0x01, 0x00, 0x44, 0x00, 0x07, 0x01, 0x02},
			wantUID: []byte{0x01, 0x02},
		},
		{
			name: "SENS_RES only",
			res:  []byte{0xD5, 0x4B, 0x01, 0x01, 0x04, 0x00},
		},
		{
			name:    "no target",
			res:     []byte{0xD5, 0x4B, 0x00},
			wantErr: ErrTagNotFound,
		},
		{
			name:    "truncated",
			res:     []byte{0xD5, 0x4B, 0x01, 0x01, 0x00},
			wantErr: ErrUnexpectedResponse,
		},
		{
			name:    "wrong response code",
			res:     []byte{0xD5, 0x03, 0x01, 0x01, 0x00, 0x44},
			wantErr: ErrUnexpectedResponse,
		},
		{
			name:    "error frame",
			res:     []byte{0x7F},
			wantErr: ErrUnexpectedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			target, err := parseTarget(tt.res)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, target)
				return
			}
			require.NoError(t, err)
			assert.True(t, target.IsNTAG())
			assert.Equal(t, tt.wantUID, target.UID)
		})
	}
}
