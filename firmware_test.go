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

func TestDevice_GetFirmwareVersion(t *testing.T) {
	t.Parallel()

	device, sim, _ := newSimDevice(t, nil)

	fw, err := device.GetFirmwareVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(0x32), fw.IC)
	assert.Equal(t, 1, fw.Major())
	assert.Equal(t, 6, fw.Minor())
	assert.Equal(t, "1.6", fw.String())
	assert.True(t, fw.SupportsISO14443A())
	assert.True(t, fw.SupportsISO14443B())
	assert.True(t, fw.SupportsISO18092())

	sim.SetFirmwareVersion(0x32, 0x01, 0x04, 0x01)
	fw, err = device.GetFirmwareVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.4", fw.String())
	assert.False(t, fw.SupportsISO14443B())
}

func TestDevice_SAMConfiguration(t *testing.T) {
	t.Parallel()

	device, sim, _ := newSimDevice(t, nil)

	require.NoError(t, device.SAMConfiguration(context.Background(), SAMModeNormal, 0x14, 0x00))
	assert.True(t, sim.GetState().SAMConfigured)

	cmds := sim.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, []byte{0x01, 0x14, 0x00}, cmds[0].Params)
}

func TestDevice_GetGeneralStatus(t *testing.T) {
	t.Parallel()

	device, _, _ := newSimDevice(t, testutil.NewVirtualNTAG(testutil.NTAG213, nil))

	status, err := device.GetGeneralStatus(context.Background())
	require.NoError(t, err)
	assert.False(t, status.FieldPresent)
	assert.Equal(t, byte(0), status.Targets)

	require.True(t, device.DetectTag(context.Background()))
	status, err = device.GetGeneralStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.FieldPresent)
	assert.Equal(t, byte(1), status.Targets)
	assert.Equal(t, byte(0), status.LastError)
}

func TestDevice_Connect(t *testing.T) {
	t.Parallel()

	device, sim, _ := newSimDevice(t, nil)
	assert.Nil(t, device.Firmware())

	fw, err := device.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.6", fw.String())
	assert.Same(t, fw, device.Firmware())

	cmds := sim.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, byte(cmdSAMConfiguration), cmds[0].Cmd)
	assert.Equal(t, []byte{0x01, 0x17, 0x01}, cmds[0].Params)
	assert.Equal(t, byte(cmdGetFirmwareVersion), cmds[1].Cmd)
}

func TestDevice_Connect_SAMTimeoutOption(t *testing.T) {
	t.Parallel()

	device, sim, _ := newSimDevice(t, nil, WithSAMTimeout(0x00))

	_, err := device.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0x01}, sim.Commands()[0].Params)
}

func TestDevice_Connect_Failure(t *testing.T) {
	t.Parallel()

	device, sim, _ := newSimDevice(t, nil)
	sim.InjectFault(testutil.FaultNoResponse)

	_, err := device.Connect(context.Background())
	require.ErrorIs(t, err, ErrBadHeader)
	assert.Contains(t, err.Error(), "SAMConfiguration")
	assert.Len(t, sim.Commands(), 1)
}
