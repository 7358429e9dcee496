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

// Package i2c provides a PN532 transport over an I2C bus using periph.io.
//
// The PN532 answers each I2C read transaction with a status byte followed by
// its output buffer from the start, so every frame is fetched in a single
// transaction once the status byte reports ready. Frames are queued and
// handed out as a byte stream through ReadExact.
package i2c

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	pn532 "github.com/ZaparooProject/go-pn532-ntag"
	"github.com/ZaparooProject/go-pn532-ntag/internal/frame"
	"github.com/ZaparooProject/go-pn532-ntag/internal/syncutil"
)

const (
	// PN532 7-bit I2C address (datasheet says 0x48, which is the 8-bit write
	// address including the R/W bit; periph.io and the Linux kernel expect the
	// 7-bit form: 0x48 >> 1 = 0x24).
	pn532Addr = 0x24

	pn532Ready = 0x01

	// Max clock frequency (400 kHz).
	maxClockFreq = 400 * physic.KiloHertz

	// preamble, start code, LEN, LCS, 255 data bytes, DCS, postamble
	maxFrameLen = 262

	minPollInterval = time.Millisecond
	maxPollInterval = 8 * time.Millisecond
)

// Transport implements pn532.Transport over I2C.
type Transport struct {
	dev     *i2c.Dev
	closer  io.Closer
	busName string
	pending []byte
	mu      syncutil.Mutex
	closed  bool
}

// parseI2CPath extracts the bus path from a composite path.
// Accepts "/dev/i2c-1:0x24" or "/dev/i2c-1" (bare bus).
func parseI2CPath(path string) string {
	bus, _, _ := strings.Cut(path, ":")
	return bus
}

// New opens busName and addresses the PN532 at 0x24.
func New(busName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(parseI2CPath(busName))
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}
	_ = bus.SetSpeed(maxClockFreq) // Ignore error, continue with default speed

	t := NewWithBus(bus, busName)
	t.closer = bus
	return t, nil
}

// NewWithBus uses an already opened bus. Close does not close bus.
func NewWithBus(bus i2c.Bus, busName string) *Transport {
	return &Transport{
		dev:     &i2c.Dev{Addr: pn532Addr, Bus: bus},
		busName: busName,
	}
}

// Write sends p in one write transaction. The HSU wake-up sequence is not
// needed on I2C and is dropped.
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, pn532.NewTransportClosedError("write", t.busName)
	}
	if bytes.Equal(p, frame.WakeUpSequence) {
		return len(p), nil
	}
	if err := t.dev.Tx(p, nil); err != nil {
		return 0, pn532.NewTransportError("write", t.busName,
			fmt.Errorf("%w: %w", pn532.ErrTransportWrite, err), pn532.ErrorTypeTransient)
	}
	return len(p), nil
}

// ReadExact returns the next n bytes of the frame stream, polling the ready
// status until timeout elapses.
func (t *Transport) ReadExact(n int, timeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, pn532.NewTransportClosedError("read", t.busName)
	}

	deadline := time.Now().Add(timeout)
	interval := minPollInterval
	for len(t.pending) < n {
		got, err := t.fetchFrame()
		if err != nil {
			return t.take(len(t.pending)), err
		}
		if got {
			interval = minPollInterval
			continue
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			data := t.take(len(t.pending))
			return data, pn532.NewShortReadError("read", t.busName, len(data), n)
		}
		time.Sleep(min(interval, remaining))
		interval = min(interval*2, maxPollInterval)
	}
	return t.take(n), nil
}

func (t *Transport) take(n int) []byte {
	out := append([]byte(nil), t.pending[:n]...)
	t.pending = t.pending[n:]
	return out
}

// fetchFrame checks the ready status and, when set, reads one frame into
// the pending stream.
func (t *Transport) fetchFrame() (bool, error) {
	status := make([]byte, 1)
	if err := t.dev.Tx(nil, status); err != nil {
		return false, pn532.NewTransportError("ready check", t.busName,
			fmt.Errorf("%w: %w", pn532.ErrTransportRead, err), pn532.ErrorTypeTransient)
	}
	if status[0] != pn532Ready {
		return false, nil
	}

	buf := make([]byte, 1+maxFrameLen)
	if err := t.dev.Tx(nil, buf); err != nil {
		return false, pn532.NewTransportError("read", t.busName,
			fmt.Errorf("%w: %w", pn532.ErrTransportRead, err), pn532.ErrorTypeTransient)
	}
	if buf[0] != pn532Ready {
		return false, nil
	}

	data, ok := extractFrame(buf[1:])
	if !ok {
		pn532.Debugf("I2C %s: no frame start in ready read", t.busName)
		return false, nil
	}
	t.pending = append(t.pending, data...)
	return true, nil
}

// extractFrame trims the frame at the start of an output buffer read and
// normalises it to begin with the 00 00 FF preamble and start code. A frame
// whose LEN and LCS disagree is returned up to its header so the framing
// layer can report it.
func extractFrame(buf []byte) ([]byte, bool) {
	idx := bytes.Index(buf, []byte{frame.StartCode1, frame.StartCode2})
	if idx < 0 || idx+4 > len(buf) {
		return nil, false
	}
	rest := buf[idx:]
	length, lcs := rest[2], rest[3]

	size := 4 // start code, LEN, LCS
	switch {
	case length == 0x00 && lcs == 0xFF, length == 0xFF && lcs == 0x00:
		size = 5 // ACK or NACK: postamble follows LCS
	case length+lcs == 0:
		size = 4 + int(length) + 2
	}
	size = min(size, len(rest))

	out := make([]byte, 0, size+1)
	out = append(out, frame.Preamble)
	return append(out, rest[:size]...), true
}

// DiscardInput drops frames read but not yet consumed.
func (t *Transport) DiscardInput() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = nil
	return nil
}

// Close releases the bus if New opened it.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.pending = nil
	if t.closer != nil {
		if err := t.closer.Close(); err != nil {
			return fmt.Errorf("I2C close failed: %w", err)
		}
	}
	return nil
}

// String returns the bus name.
func (t *Transport) String() string {
	return t.busName
}

// Type returns the transport type.
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportI2C
}

var (
	_ pn532.Transport      = (*Transport)(nil)
	_ pn532.InputDiscarder = (*Transport)(nil)
)
