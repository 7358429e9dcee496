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

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/go-pn532-ntag/internal/syncutil"
)

// ErrReadTimeout is returned by StreamTransport when fewer bytes than
// requested arrive before the timeout.
var ErrReadTimeout = errors.New("read timeout")

const pollInterval = 200 * time.Microsecond

// StreamTransport adapts an io.ReadWriter (usually a VirtualPN532) to the
// exact-read transport contract. It records every requested read size so
// tests can assert which frame sections were consumed.
//
// It lives here rather than in the root package so that tests of the root
// package can use it without an import cycle.
type StreamTransport struct {
	rw        io.ReadWriter
	reads     []int
	writes    [][]byte
	mu        syncutil.Mutex
	discards  int
	closed    bool
	writeFail error
}

// NewStreamTransport wraps rw.
func NewStreamTransport(rw io.ReadWriter) *StreamTransport {
	return &StreamTransport{rw: rw}
}

// NewSimulatorTransport returns a simulator with the given tag in the field
// and a transport connected to it.
func NewSimulatorTransport(tag *VirtualTag) (*VirtualPN532, *StreamTransport) {
	sim := NewVirtualPN532()
	if tag != nil {
		sim.SetTag(tag)
	}
	return sim, NewStreamTransport(sim)
}

// Write forwards p to the underlying stream.
func (t *StreamTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.ErrClosedPipe
	}
	if t.writeFail != nil {
		return 0, t.writeFail
	}
	t.writes = append(t.writes, append([]byte(nil), p...))
	n, err := t.rw.Write(p)
	if err != nil {
		return n, fmt.Errorf("stream write: %w", err)
	}
	return n, nil
}

// ReadExact polls the stream until n bytes arrive or timeout elapses. On
// timeout the bytes received so far are returned with ErrReadTimeout.
func (t *StreamTransport) ReadExact(n int, timeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, io.ErrClosedPipe
	}
	t.reads = append(t.reads, n)

	buf := make([]byte, n)
	got := 0
	deadline := time.Now().Add(timeout)
	for got < n {
		m, err := t.rw.Read(buf[got:])
		got += m
		if err != nil && !errors.Is(err, io.EOF) {
			return buf[:got], fmt.Errorf("stream read: %w", err)
		}
		if got == n {
			break
		}
		if !time.Now().Before(deadline) {
			return buf[:got], fmt.Errorf("%w: got %d of %d bytes", ErrReadTimeout, got, n)
		}
		if m == 0 {
			time.Sleep(pollInterval)
		}
	}
	return buf, nil
}

// DiscardInput drains whatever is pending on the stream.
func (t *StreamTransport) DiscardInput() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.discards++
	buf := make([]byte, 64)
	for {
		m, err := t.rw.Read(buf)
		if m == 0 || err != nil {
			return nil
		}
	}
}

// Close marks the transport closed.
func (t *StreamTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// String returns a port name for error messages.
func (*StreamTransport) String() string {
	return "simulator"
}

// FailWrites makes every following Write return err. nil restores normal
// operation.
func (t *StreamTransport) FailWrites(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeFail = err
}

// Reads returns the byte counts requested by ReadExact calls, in order.
func (t *StreamTransport) Reads() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]int(nil), t.reads...)
}

// Writes returns copies of every buffer written, in order.
func (t *StreamTransport) Writes() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.writes))
	copy(out, t.writes)
	return out
}

// Discards returns how many times DiscardInput was called.
func (t *StreamTransport) Discards() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.discards
}

// ResetLog clears the recorded reads and writes.
func (t *StreamTransport) ResetLog() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reads = nil
	t.writes = nil
	t.discards = 0
}
