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
	"strings"
	"time"

	"github.com/google/uuid"
)

// TraceDirection indicates the direction of wire data
type TraceDirection string

const (
	// TraceTX indicates data sent to the PN532
	TraceTX TraceDirection = "TX"
	// TraceRX indicates data received from the PN532
	TraceRX TraceDirection = "RX"
)

// TraceStep names the exchange step a trace entry belongs to.
type TraceStep string

// Exchange steps, in wire order.
const (
	StepWake    TraceStep = "wake"
	StepDiscard TraceStep = "discard"
	StepCommand TraceStep = "command"
	StepAck     TraceStep = "ack"
	StepHeader  TraceStep = "header"
	StepBody    TraceStep = "body"
)

// TraceEntry is one structured wire event of an exchange.
type TraceEntry struct {
	Timestamp  time.Time
	Err        error
	Direction  TraceDirection
	Step       TraceStep
	Note       string
	Data       []byte
	ExchangeID uuid.UUID
}

// String formats a trace entry for display
func (e TraceEntry) String() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "[%s] %s %s %s: %s",
		e.Timestamp.Format("15:04:05.000"), shortID(e.ExchangeID), e.Direction, e.Step, formatHexBytes(e.Data))
	if e.Note != "" {
		_, _ = fmt.Fprintf(&sb, " (%s)", e.Note)
	}
	if e.Err != nil {
		_, _ = fmt.Fprintf(&sb, " error: %v", e.Err)
	}
	return sb.String()
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

// Tracer receives every trace entry emitted by a Session.
type Tracer interface {
	Trace(entry TraceEntry)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(entry TraceEntry)

// Trace calls f.
func (f TracerFunc) Trace(entry TraceEntry) {
	f(entry)
}

type noopTracer struct{}

func (noopTracer) Trace(TraceEntry) {}

// NoopTracer discards all entries.
var NoopTracer Tracer = noopTracer{}

// MultiTracer fans entries out to several tracers.
type MultiTracer []Tracer

// Trace forwards entry to every tracer in order.
func (m MultiTracer) Trace(entry TraceEntry) {
	for _, t := range m {
		t.Trace(entry)
	}
}

// DebugTracer writes entries through Debugf, reproducing the hex frame dump
// on the console when debug output is enabled.
var DebugTracer Tracer = TracerFunc(func(entry TraceEntry) {
	Debugf("%s", entry)
})

// TraceableError wraps an error with wire-level trace data for debugging.
// Consumer applications can use errors.As() to extract trace information:
//
//	var te *pn532.TraceableError
//	if errors.As(err, &te) {
//	    log.Printf("Wire trace:\n%s", te.FormatTrace())
//	}
type TraceableError struct {
	Err        error
	Port       string
	Trace      []TraceEntry
	ExchangeID uuid.UUID
}

// Error implements the error interface
func (e *TraceableError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As compatibility
func (e *TraceableError) Unwrap() error {
	return e.Err
}

// FormatTrace returns a human-readable formatted trace log
func (e *TraceableError) FormatTrace() string {
	if len(e.Trace) == 0 {
		return fmt.Sprintf("[%s %s] (no trace data)", e.Port, shortID(e.ExchangeID))
	}

	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "[%s %s] Wire trace (%d entries):\n", e.Port, shortID(e.ExchangeID), len(e.Trace))
	for _, entry := range e.Trace {
		direction := ">"
		if entry.Direction == TraceRX {
			direction = "<"
		}
		_, _ = fmt.Fprintf(&sb, "  %s %-7s %s", direction, entry.Step, formatHexBytes(entry.Data))
		if entry.Note != "" {
			_, _ = fmt.Fprintf(&sb, " (%s)", entry.Note)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// formatHexBytes formats a byte slice as space-separated hex values
func formatHexBytes(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}
	const maxShown = 32
	shown := data
	if len(shown) > maxShown {
		shown = shown[:maxShown]
	}
	parts := make([]string, len(shown))
	for i, b := range shown {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	out := strings.Join(parts, " ")
	if len(data) > maxShown {
		out += fmt.Sprintf(" ... (%d bytes total)", len(data))
	}
	return out
}

// TraceBuffer collects the entries of one exchange. It keeps at most
// maxSize entries, evicting the oldest.
type TraceBuffer struct {
	port    string
	entries []TraceEntry
	maxSize int
	id      uuid.UUID
}

// NewTraceBuffer creates a new trace buffer with the specified capacity
func NewTraceBuffer(port string, id uuid.UUID, maxSize int) *TraceBuffer {
	if maxSize <= 0 {
		maxSize = 16
	}
	return &TraceBuffer{
		entries: make([]TraceEntry, 0, maxSize),
		maxSize: maxSize,
		port:    port,
		id:      id,
	}
}

// Trace records entry, copying its data.
func (tb *TraceBuffer) Trace(entry TraceEntry) {
	entry.Data = append([]byte(nil), entry.Data...)
	if len(tb.entries) >= tb.maxSize {
		copy(tb.entries, tb.entries[1:])
		tb.entries[len(tb.entries)-1] = entry
		return
	}
	tb.entries = append(tb.entries, entry)
}

// Entries returns a copy of the recorded entries.
func (tb *TraceBuffer) Entries() []TraceEntry {
	out := make([]TraceEntry, len(tb.entries))
	copy(out, tb.entries)
	return out
}

// WrapError wraps an error with the collected trace data.
// Returns nil if err is nil.
func (tb *TraceBuffer) WrapError(err error) error {
	if err == nil {
		return nil
	}
	return &TraceableError{
		Err:        err,
		Trace:      tb.Entries(),
		Port:       tb.port,
		ExchangeID: tb.id,
	}
}

// GetTrace extracts trace data from an error, returning nil if not present
func GetTrace(err error) *TraceableError {
	var te *TraceableError
	if errors.As(err, &te) {
		return te
	}
	return nil
}
