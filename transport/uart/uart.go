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

// Package uart provides a PN532 transport over a serial port in HSU mode.
package uart

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
	"time"

	"go.bug.st/serial"

	pn532 "github.com/ZaparooProject/go-pn532-ntag"
	"github.com/ZaparooProject/go-pn532-ntag/internal/syncutil"
)

// DefaultBaudRate is the PN532 HSU default.
const DefaultBaudRate = 115200

// Transport implements pn532.Transport over a serial port.
type Transport struct {
	port     serial.Port
	portName string
	mu       syncutil.Mutex
	closed   bool
}

// New opens portName at 115200 baud, 8N1.
func New(portName string) (*Transport, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open UART port %s: %w", portName, err)
	}
	return NewWithPort(port, portName), nil
}

// NewWithPort wraps an already opened serial port.
func NewWithPort(port serial.Port, portName string) *Transport {
	return &Transport{port: port, portName: portName}
}

// Write sends p and waits for it to leave the output buffer.
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, pn532.NewTransportClosedError("write", t.portName)
	}

	n, err := t.port.Write(p)
	if err != nil {
		return n, pn532.NewTransportError("write", t.portName,
			fmt.Errorf("%w: %w", pn532.ErrTransportWrite, err), classify(err))
	}
	if n != len(p) {
		return n, pn532.NewTransportError("write", t.portName,
			fmt.Errorf("%w: wrote %d of %d bytes", pn532.ErrShortWrite, n, len(p)), pn532.ErrorTypeTransient)
	}
	return n, t.drainWithRetry("write")
}

// ReadExact reads n bytes, giving up once timeout has elapsed. On timeout
// the bytes that did arrive are returned with the error.
func (t *Transport) ReadExact(n int, timeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, pn532.NewTransportClosedError("read", t.portName)
	}

	buf := make([]byte, n)
	got := 0
	deadline := time.Now().Add(timeout)
	for got < n {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			pn532.Debugf("UART %s: read timed out with %d of %d bytes: % X", t.portName, got, n, buf[:got])
			return buf[:got], pn532.NewShortReadError("read", t.portName, got, n)
		}
		if err := t.port.SetReadTimeout(remaining); err != nil {
			return buf[:got], fmt.Errorf("UART set timeout failed: %w", err)
		}

		m, err := t.port.Read(buf[got:])
		got += m
		if err != nil {
			if isInterruptedSystemCall(err) {
				continue
			}
			return buf[:got], pn532.NewTransportError("read", t.portName,
				fmt.Errorf("%w: %w", pn532.ErrTransportRead, err), classify(err))
		}
	}
	return buf, nil
}

// DiscardInput drops bytes received but not yet read.
func (t *Transport) DiscardInput() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return pn532.NewTransportClosedError("discard", t.portName)
	}
	if err := t.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("UART reset input buffer failed: %w", err)
	}
	return nil
}

// Close closes the transport connection
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("UART close failed: %w", err)
	}
	return nil
}

// String returns the port name.
func (t *Transport) String() string {
	return t.portName
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportUART
}

// classify marks errors from an unplugged adapter as permanent.
func classify(err error) pn532.ErrorType {
	var portErr *serial.PortError
	if errors.As(err, &portErr) && portErr.Code() == serial.PortClosed {
		return pn532.ErrorTypePermanent
	}
	if errors.Is(err, syscall.EIO) || errors.Is(err, syscall.ENXIO) || errors.Is(err, syscall.ENODEV) {
		return pn532.ErrorTypePermanent
	}
	return pn532.ErrorTypeTransient
}

// isInterruptedSystemCall checks if an error is caused by an interrupted system call
func isInterruptedSystemCall(err error) bool {
	if errors.Is(err, syscall.EINTR) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "interrupted system call") ||
		strings.Contains(errStr, "eintr")
}

// drainWithRetry performs port drain with retry logic for interrupted system calls
func (t *Transport) drainWithRetry(operation string) error {
	const maxRetries = 3
	baseDelay := 2 * time.Millisecond

	for attempt := range maxRetries {
		err := t.port.Drain()
		if err == nil {
			return nil
		}
		if !isInterruptedSystemCall(err) || attempt == maxRetries-1 {
			return fmt.Errorf("UART %s drain failed: %w", operation, err)
		}
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return nil
}

var (
	_ pn532.Transport      = (*Transport)(nil)
	_ pn532.InputDiscarder = (*Transport)(nil)
)
