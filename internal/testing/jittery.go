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
	"io"
	"math/rand/v2"
	"time"
)

// JitterConfig configures the behavior of JitteryConnection.
type JitterConfig struct {
	MaxLatency    time.Duration
	MaxChunkBytes int
	Seed          uint64
}

// DefaultJitterConfig returns read fragmentation similar to a USB-UART
// bridge delivering a frame in small pieces.
func DefaultJitterConfig() JitterConfig {
	return JitterConfig{
		MaxLatency:    time.Millisecond,
		MaxChunkBytes: 3,
		Seed:          1,
	}
}

// JitteryConnection wraps an io.ReadWriter and returns reads in random
// sized fragments after a random delay. Writes pass through.
type JitteryConnection struct {
	backend io.ReadWriter
	rng     *rand.Rand
	config  JitterConfig
}

// NewJitteryConnection wraps a backend io.ReadWriter with jitter simulation.
func NewJitteryConnection(backend io.ReadWriter, config JitterConfig) *JitteryConnection {
	if config.MaxChunkBytes < 1 {
		config.MaxChunkBytes = 1
	}
	return &JitteryConnection{
		backend: backend,
		config:  config,
		rng:     rand.New(rand.NewPCG(config.Seed, config.Seed^0xDEADBEEF)), //nolint:gosec // test code
	}
}

// Write passes writes through to the backend without modification.
func (j *JitteryConnection) Write(data []byte) (int, error) {
	return j.backend.Write(data) //nolint:wrapcheck // pass-through wrapper
}

// Read reads at most a random fragment of len(buf) from the backend.
func (j *JitteryConnection) Read(buf []byte) (int, error) {
	if j.config.MaxLatency > 0 {
		time.Sleep(time.Duration(j.rng.Int64N(int64(j.config.MaxLatency) + 1)))
	}
	if len(buf) == 0 {
		return 0, nil
	}
	chunk := 1 + j.rng.IntN(j.config.MaxChunkBytes)
	if chunk < len(buf) {
		buf = buf[:chunk]
	}
	return j.backend.Read(buf) //nolint:wrapcheck // pass-through wrapper
}
