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
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/ZaparooProject/go-pn532-ntag/internal/frame"
)

// Transport errors
var (
	ErrTransportTimeout = errors.New("transport timeout")
	ErrTransportWrite   = errors.New("transport write failed")
	ErrTransportRead    = errors.New("transport read failed")
	ErrTransportClosed  = errors.New("transport is closed")
	ErrShortRead        = errors.New("short read")
	ErrShortWrite       = errors.New("short write")
)

// Exchange stage errors. An *ExchangeError matches the sentinel of the stage
// it failed in.
var (
	ErrNoACK       = errors.New("no ACK received")
	ErrBadHeader   = errors.New("bad response header")
	ErrBadChecksum = errors.New("bad response checksum")
)

// Framing errors, shared with the frame codec.
var (
	ErrBadPreamble       = frame.ErrBadPreamble
	ErrBadLengthChecksum = frame.ErrBadLengthChecksum
	ErrMissingAck        = frame.ErrMissingAck
	ErrNACKReceived      = frame.ErrNackReceived
	ErrChecksumMismatch  = frame.ErrChecksumMismatch
	ErrBodyTooLarge      = frame.ErrBodyTooLarge
	ErrBodyLength        = frame.ErrBodyLength
)

// Device and tag errors
var (
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrTagNotFound        = errors.New("tag not found")
	ErrTagReadFailed      = errors.New("tag read failed")
	ErrTagWriteFailed     = errors.New("tag write failed")
	ErrTagTooSmall        = errors.New("data does not fit tag user memory")
	ErrSizeMismatch       = errors.New("tag size does not match candidate")
	ErrExhausted          = errors.New("all tag size candidates failed")
)

// ErrorType represents the category of error for retry logic
type ErrorType int

const (
	// ErrorTypeTransient indicates a potentially retryable error
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent indicates the transport is unusable
	ErrorTypePermanent
	// ErrorTypeTimeout indicates a read or write deadline passed
	ErrorTypeTimeout
)

// TransportError wraps transport-level errors with additional context
type TransportError struct {
	Err       error     // Underlying error
	Op        string    // Operation that failed
	Port      string    // Port or device identifier
	Type      ErrorType // Error category
	Retryable bool      // Whether the error is retryable
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ExchangeStage names the step of a command exchange that failed.
type ExchangeStage int

// Exchange stages that can fail after the command frame is written.
const (
	StageAck ExchangeStage = iota
	StageHeader
	StageBody
)

func (s ExchangeStage) String() string {
	switch s {
	case StageAck:
		return "ack"
	case StageHeader:
		return "header"
	case StageBody:
		return "body"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

func (s ExchangeStage) sentinel() error {
	switch s {
	case StageHeader:
		return ErrBadHeader
	case StageBody:
		return ErrBadChecksum
	default:
		return ErrNoACK
	}
}

// ExchangeError reports a failed response stage. errors.Is matches both the
// stage sentinel (ErrNoACK, ErrBadHeader, ErrBadChecksum) and the cause.
type ExchangeError struct {
	Err     error
	Command byte
	Stage   ExchangeStage
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("command 0x%02X: %v: %v", e.Command, e.Stage.sentinel(), e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for the failed stage.
func (e *ExchangeError) Is(target error) bool {
	return target == e.Stage.sentinel()
}

// PN532Error is a non-zero status byte returned by the PN532 for a command
// it accepted.
type PN532Error struct {
	Command   string
	ErrorCode byte
	Page      int
}

func (e *PN532Error) Error() string {
	base := fmt.Sprintf("%s error 0x%02X (%s)", e.Command, e.ErrorCode, pn532ErrorCodeMeaning(e.ErrorCode))
	if e.Page >= 0 {
		base += fmt.Sprintf(" at page %d", e.Page)
	}
	return base
}

// IsTimeoutError reports whether the tag failed to answer in time.
func (e *PN532Error) IsTimeoutError() bool {
	return e.ErrorCode == 0x01
}

// Status byte meanings from the PN532 user manual, section 7.1. Only codes
// an NTAG exchange can produce are listed.
func pn532ErrorCodeMeaning(code byte) string {
	switch code {
	case 0x01:
		return "timeout"
	case 0x02:
		return "CRC error"
	case 0x03:
		return "parity error"
	case 0x0A:
		return "RF field not activated in time"
	case 0x0B:
		return "RF protocol error"
	case 0x10:
		return "invalid parameter"
	case 0x13:
		return "data format does not match"
	case 0x14:
		return "authentication error"
	case 0x26:
		return "operation not allowed"
	case 0x27:
		return "wrong context for command"
	case 0x29:
		return "target released by initiator"
	case 0x2B:
		return "card disappeared"
	default:
		return "unknown error"
	}
}

// NewPN532Error creates a status error for command. page is -1 when the
// command does not address a page.
func NewPN532Error(errorCode byte, command string, page int) *PN532Error {
	return &PN532Error{ErrorCode: errorCode, Command: command, Page: page}
}

// IsRetryable returns true if the error is potentially retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	var pe *PN532Error
	if errors.As(err, &pe) {
		return pe.IsTimeoutError()
	}

	switch {
	case errors.Is(err, ErrNoACK),
		errors.Is(err, ErrBadHeader),
		errors.Is(err, ErrBadChecksum),
		errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrExhausted):
		return true
	default:
		return false
	}
}

// IsFatal returns true if the error indicates the device or connection is
// gone and further exchanges cannot succeed.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) && te.Type == ErrorTypePermanent {
		return true
	}
	if isDeviceGoneError(err) {
		return true
	}
	return errors.Is(err, ErrTransportClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe)
}

// isDeviceGoneError matches errno values returned when a USB serial adapter
// is unplugged mid-transfer.
func isDeviceGoneError(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	//nolint:exhaustive // only device-gone errors
	switch errno {
	case syscall.EIO, syscall.ENXIO, syscall.ENODEV:
		return true
	default:
		return false
	}
}

// NewTransportError creates a standard transport error with consistent formatting
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// NewTimeoutError creates a timeout error for transport operations
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewTransportWriteError creates a write error (transient)
func NewTransportWriteError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportWrite, ErrorTypeTransient)
}

// NewTransportReadError creates a read error (transient)
func NewTransportReadError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportRead, ErrorTypeTransient)
}

// NewShortReadError reports that only got of want bytes arrived.
func NewShortReadError(op, port string, got, want int) *TransportError {
	return NewTransportError(op, port,
		fmt.Errorf("%w: got %d of %d bytes", ErrShortRead, got, want), ErrorTypeTimeout)
}

// NewTransportClosedError creates an error for use after Close (permanent)
func NewTransportClosedError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportClosed, ErrorTypePermanent)
}

// ProbeAttempt is one tag size candidate tried by SizeProbe.
type ProbeAttempt struct {
	Err       error
	Candidate TagCandidate
}

// ExhaustedError is returned when every tag size candidate failed.
type ExhaustedError struct {
	Op       string
	Attempts []ProbeAttempt
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: %v after %d attempts", e.Op, ErrExhausted, len(e.Attempts))
}

func (e *ExhaustedError) Unwrap() error {
	return ErrExhausted
}

// Causes returns the per-candidate errors in attempt order.
func (e *ExhaustedError) Causes() []error {
	out := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		out[i] = a.Err
	}
	return out
}
