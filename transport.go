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
	"fmt"
	"time"
)

// Transport is a byte stream to a PN532. Implementations are not required
// to be safe for concurrent use; a Session serialises access.
type Transport interface {
	// Write sends p and returns the number of bytes written.
	Write(p []byte) (int, error)

	// ReadExact reads exactly n bytes or fails once timeout elapses. A
	// timed out read may return the bytes that did arrive together with a
	// non-nil error.
	ReadExact(n int, timeout time.Duration) ([]byte, error)

	// Close closes the transport connection
	Close() error
}

// InputDiscarder is implemented by transports that can drop bytes already
// received but not yet read.
type InputDiscarder interface {
	DiscardInput() error
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportI2C represents I2C bus transport.
	TransportI2C TransportType = "i2c"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// TypedTransport is implemented by transports that report their kind.
type TypedTransport interface {
	Type() TransportType
}

// portName returns a label for t used in errors and traces.
func portName(t Transport) string {
	name := "transport"
	if s, ok := t.(fmt.Stringer); ok {
		name = s.String()
	}
	if tt, ok := t.(TypedTransport); ok {
		name = fmt.Sprintf("%s:%s", tt.Type(), name)
	}
	return name
}
