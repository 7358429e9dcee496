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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	testutil "github.com/ZaparooProject/go-pn532-ntag/internal/testing"
)

// fastTiming skips the wake and ACK delays; the simulator answers
// synchronously so short read timeouts are enough.
func fastTiming() Timing {
	return Timing{
		AckTimeout:      20 * time.Millisecond,
		ResponseTimeout: 20 * time.Millisecond,
	}
}

func newSimSession(t *testing.T, tag *testutil.VirtualTag, tracer Tracer) (
	*Session, *testutil.VirtualPN532, *testutil.StreamTransport,
) {
	t.Helper()
	sim, transport := testutil.NewSimulatorTransport(tag)
	session := NewSession(transport, fastTiming(), tracer)
	t.Cleanup(func() { _ = session.Close() })
	return session, sim, transport
}

func newSimDevice(t *testing.T, tag *testutil.VirtualTag, opts ...Option) (
	*Device, *testutil.VirtualPN532, *testutil.StreamTransport,
) {
	t.Helper()
	sim, transport := testutil.NewSimulatorTransport(tag)
	opts = append([]Option{WithTiming(fastTiming())}, opts...)
	device, err := New(transport, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = device.Close() })
	return device, sim, transport
}

// recordingTracer collects trace entries for assertions.
type recordingTracer struct {
	entries []TraceEntry
}

func (r *recordingTracer) Trace(entry TraceEntry) {
	r.entries = append(r.entries, entry)
}

func (r *recordingTracer) steps() []TraceStep {
	out := make([]TraceStep, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Step
	}
	return out
}
