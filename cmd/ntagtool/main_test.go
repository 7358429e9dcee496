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

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	gondef "github.com/hsanjuan/go-ndef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pn532 "github.com/ZaparooProject/go-pn532-ntag"
	virt "github.com/ZaparooProject/go-pn532-ntag/internal/testing"
	"github.com/ZaparooProject/go-pn532-ntag/pkg/ndef"
)

var fastTiming = pn532.WithTiming(pn532.Timing{
	AckTimeout:      20 * time.Millisecond,
	ResponseTimeout: 20 * time.Millisecond,
})

func simFactory(tag *virt.VirtualTag) pn532.TransportFactory {
	return func(string) (pn532.Transport, error) {
		_, transport := virt.NewSimulatorTransport(tag)
		return transport, nil
	}
}

func TestParseConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		check  func(t *testing.T, cfg *config)
		name   string
		errMsg string
		args   []string
	}{
		{
			name: "read defaults",
			args: []string{"-device", "/dev/ttyUSB0"},
			check: func(t *testing.T, cfg *config) {
				assert.Equal(t, "/dev/ttyUSB0", cfg.devicePath)
				assert.Equal(t, 3, cfg.retries)
				assert.False(t, cfg.write)
				assert.False(t, cfg.inspect)
			},
		},
		{
			name: "write empty text",
			args: []string{"-device", "COM3", "-write", ""},
			check: func(t *testing.T, cfg *config) {
				assert.True(t, cfg.write)
				assert.Empty(t, cfg.writeText)
			},
		},
		{
			name: "all flags",
			args: []string{"-device", "/dev/i2c-1", "-inspect", "-debug", "-log", "-retries", "5"},
			check: func(t *testing.T, cfg *config) {
				assert.True(t, cfg.inspect)
				assert.True(t, cfg.debug)
				assert.True(t, cfg.sessionLog)
				assert.Equal(t, 5, cfg.retries)
			},
		},
		{name: "missing device", args: nil, errMsg: "-device is required"},
		{name: "bad retries", args: []string{"-device", "x", "-retries", "0"}, errMsg: "at least 1"},
		{
			name:   "write and inspect",
			args:   []string{"-device", "x", "-write", "a", "-inspect"},
			errMsg: "mutually exclusive",
		},
		{name: "unknown flag", args: []string{"-bogus"}, errMsg: "parse flags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := parseConfig(tt.args, io.Discard)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestRun_Read(t *testing.T) {
	t.Parallel()

	tag := virt.NewVirtualNTAG(virt.NTAG213, nil)
	tag.SetMemory(4, virt.CompactTextTLV("**launch:nes"))

	var out bytes.Buffer
	cfg := &config{devicePath: "sim", retries: 1}
	require.NoError(t, run(context.Background(), cfg, simFactory(tag), &out, fastTiming))

	assert.Contains(t, out.String(), "PN532 firmware 1.6 on simulator")
	assert.Contains(t, out.String(), "Tag detected: UID=04abcdef123456")
	assert.Contains(t, out.String(), "Text: **launch:nes")
}

func TestRun_Write(t *testing.T) {
	t.Parallel()

	tag := virt.NewVirtualNTAG(virt.NTAG216, nil)
	var out bytes.Buffer
	cfg := &config{devicePath: "sim", retries: 1, write: true, writeText: "written"}
	require.NoError(t, run(context.Background(), cfg, simFactory(tag), &out, fastTiming))

	assert.Contains(t, out.String(), `Wrote "written"`)
	want, err := ndef.Encode([]byte("written"))
	require.NoError(t, err)
	assert.Equal(t, want, tag.Memory(4, len(want)/4))
}

func TestRun_Inspect(t *testing.T) {
	t.Parallel()

	msg, err := gondef.NewTextMessage("hi", "en").Marshal()
	require.NoError(t, err)
	tlv := append([]byte{ndef.TLVNDEFMessage, byte(len(msg))}, msg...)
	tlv = append(tlv, ndef.TLVTerminator)

	tag := virt.NewVirtualNTAG(virt.NTAG215, nil)
	tag.SetMemory(4, tlv)

	var out bytes.Buffer
	cfg := &config{devicePath: "sim", retries: 1, inspect: true}
	require.NoError(t, run(context.Background(), cfg, simFactory(tag), &out, fastTiming))

	assert.Contains(t, out.String(), "Raw: 03")
	assert.Contains(t, out.String(), `Record 0: TNF=1 type="T"`)
}

func TestRun_NoTag(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg := &config{devicePath: "sim", retries: 2}
	err := run(context.Background(), cfg, simFactory(nil), &out, fastTiming)
	require.ErrorIs(t, err, pn532.ErrTagNotFound)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestRun_ConnectFailure(t *testing.T) {
	t.Parallel()

	cfg := &config{devicePath: "/dev/missing", retries: 1}
	err := run(context.Background(), cfg, func(string) (pn532.Transport, error) {
		return nil, errors.New("no such device")
	}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to PN532 device")
}

func TestRun_BlankTagReportsOperationFailed(t *testing.T) {
	t.Parallel()

	tag := virt.NewVirtualNTAG(virt.NTAG213, nil)
	cfg := &config{devicePath: "sim", retries: 1}
	err := run(context.Background(), cfg, simFactory(tag), io.Discard, fastTiming)
	require.ErrorIs(t, err, pn532.ErrExhausted)

	var stderr bytes.Buffer
	reportError(&stderr, err, false)
	assert.Equal(t, "Error: operation failed\n", stderr.String())
}

func TestReportError_Trace(t *testing.T) {
	t.Parallel()

	tb := pn532.NewTraceBuffer("COM3", [16]byte{}, 4)
	tb.Trace(pn532.TraceEntry{Step: pn532.StepAck, Direction: pn532.TraceRX})
	err := fmt.Errorf("detect: %w", tb.WrapError(pn532.ErrNoACK))

	var plain, debug bytes.Buffer
	reportError(&plain, err, false)
	reportError(&debug, err, true)
	assert.Equal(t, "Error: detect: no ACK received\n", plain.String())
	assert.Contains(t, debug.String(), "Wire trace (1 entries)")
}

func TestNewTransport_UARTOpenFailure(t *testing.T) {
	t.Parallel()

	_, err := newTransport("/dev/does-not-exist-ntagtool")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create UART transport")
}
