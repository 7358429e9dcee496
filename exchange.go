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
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ZaparooProject/go-pn532-ntag/internal/frame"
	"github.com/ZaparooProject/go-pn532-ntag/internal/syncutil"
)

// Timing holds the delays and read timeouts of one exchange.
type Timing struct {
	// WakeDelay is slept after the wake-up sequence.
	WakeDelay time.Duration
	// AckDelay is slept after the command frame is written.
	AckDelay time.Duration
	// AckTimeout bounds the ACK read.
	AckTimeout time.Duration
	// ResponseTimeout bounds each of the header and body reads.
	ResponseTimeout time.Duration
}

// DefaultTiming returns the delays used with a PN532 on HSU at 115200 baud.
func DefaultTiming() Timing {
	return Timing{
		WakeDelay:       2 * time.Millisecond,
		AckDelay:        10 * time.Millisecond,
		AckTimeout:      100 * time.Millisecond,
		ResponseTimeout: 500 * time.Millisecond,
	}
}

const defaultTraceDepth = 16

// Session owns a transport and runs one command exchange at a time.
type Session struct {
	transport  Transport
	tracer     Tracer
	port       string
	timing     Timing
	traceDepth int
	mu         syncutil.Mutex
}

// NewSession creates a session over transport. A nil tracer discards trace
// entries.
func NewSession(transport Transport, timing Timing, tracer Tracer) *Session {
	if tracer == nil {
		tracer = NoopTracer
	}
	return &Session{
		transport:  transport,
		tracer:     tracer,
		port:       portName(transport),
		timing:     timing,
		traceDepth: defaultTraceDepth,
	}
}

// Port returns the transport label used in errors.
func (s *Session) Port() string {
	return s.port
}

// Close closes the underlying transport.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transport.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.port, err)
	}
	return nil
}

// Execute sends body (command code and parameters, without TFI) and returns
// the response payload starting with the 0xD5 TFI, without the data
// checksum.
//
// ctx is only checked before the wake-up sequence is sent. Once an exchange
// has started it runs to completion or until a transport read times out.
// Failed exchanges return a *TraceableError carrying the wire trace.
func (s *Session) Execute(ctx context.Context, body []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("exchange not started: %w", err)
	}

	ex := &exchange{
		session: s,
		id:      uuid.New(),
	}
	ex.trace = NewTraceBuffer(s.port, ex.id, s.traceDepth)

	payload, err := ex.run(body)
	if err != nil {
		return nil, ex.trace.WrapError(err)
	}
	return payload, nil
}

// exchange is the state of one Execute call.
type exchange struct {
	session *Session
	trace   *TraceBuffer
	id      uuid.UUID
	cmd     byte
}

func (ex *exchange) emit(step TraceStep, dir TraceDirection, data []byte, note string, err error) {
	entry := TraceEntry{
		ExchangeID: ex.id,
		Timestamp:  time.Now(),
		Step:       step,
		Direction:  dir,
		Data:       data,
		Note:       note,
		Err:        err,
	}
	ex.trace.Trace(entry)
	ex.session.tracer.Trace(entry)
}

func (ex *exchange) run(body []byte) ([]byte, error) {
	s := ex.session
	cmdFrame, err := frame.Encode(body)
	if err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}
	ex.cmd = body[0]

	if err := ex.write(StepWake, frame.WakeUpSequence); err != nil {
		return nil, err
	}
	time.Sleep(s.timing.WakeDelay)

	if d, ok := s.transport.(InputDiscarder); ok {
		if err := d.DiscardInput(); err != nil {
			ex.emit(StepDiscard, TraceRX, nil, "", err)
			return nil, NewTransportError("discard input", s.port, err, ErrorTypeTransient)
		}
		ex.emit(StepDiscard, TraceRX, nil, "stale input dropped", nil)
	}

	if err := ex.write(StepCommand, cmdFrame); err != nil {
		return nil, err
	}
	time.Sleep(s.timing.AckDelay)

	ack, err := ex.read(StepAck, frame.AckLength, s.timing.AckTimeout)
	if err == nil {
		err = frame.ExpectAck(ack)
	}
	if err != nil {
		return nil, ex.fail(StageAck, err)
	}

	hdrBytes, err := ex.read(StepHeader, frame.HeaderLength, s.timing.ResponseTimeout)
	if err != nil {
		return nil, ex.fail(StageHeader, err)
	}
	hdr, err := frame.DecodeHeader(hdrBytes)
	if err != nil {
		return nil, ex.fail(StageHeader, err)
	}

	bodyBytes, err := ex.read(StepBody, hdr.BodyLength(), s.timing.ResponseTimeout)
	if err != nil {
		return nil, ex.fail(StageBody, err)
	}
	payload, err := frame.DecodeBody(bodyBytes, hdr.Length)
	if err != nil {
		return nil, ex.fail(StageBody, err)
	}
	if cs := bodyBytes[hdr.Length]; frame.Checksum(payload) != cs {
		ex.emit(StepBody, TraceRX, nil, fmt.Sprintf("checksum 0x%02X accepted as override", cs), nil)
	}
	return payload, nil
}

func (ex *exchange) fail(stage ExchangeStage, err error) error {
	Debugf("exchange %s command 0x%02X failed at %s: %v", shortID(ex.id), ex.cmd, stage, err)
	return &ExchangeError{Command: ex.cmd, Stage: stage, Err: err}
}

func (ex *exchange) write(step TraceStep, data []byte) error {
	s := ex.session
	n, err := s.transport.Write(data)
	ex.emit(step, TraceTX, data, "", err)
	op := "write " + string(step)
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			return err
		}
		return NewTransportError(op, s.port, fmt.Errorf("%w: %w", ErrTransportWrite, err), ErrorTypeTransient)
	}
	if n != len(data) {
		return NewTransportError(op, s.port,
			fmt.Errorf("%w: wrote %d of %d bytes", ErrShortWrite, n, len(data)), ErrorTypeTransient)
	}
	return nil
}

func (ex *exchange) read(step TraceStep, n int, timeout time.Duration) ([]byte, error) {
	s := ex.session
	data, err := s.transport.ReadExact(n, timeout)
	op := "read " + string(step)
	if err != nil {
		ex.emit(step, TraceRX, data, fmt.Sprintf("wanted %d bytes", n), err)
		var te *TransportError
		if errors.As(err, &te) {
			return nil, err
		}
		return nil, NewTransportError(op, s.port, fmt.Errorf("%w: %w", ErrTransportRead, err), ErrorTypeTransient)
	}
	ex.emit(step, TraceRX, data, "", nil)
	if len(data) != n {
		return nil, NewShortReadError(op, s.port, len(data), n)
	}
	return data, nil
}
