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

package frame

import "errors"

// Framing errors. The root package re-exports these so callers never import
// this package directly.
var (
	ErrEmptyBody         = errors.New("frame body is empty")
	ErrBodyTooLarge      = errors.New("frame body exceeds 254 bytes")
	ErrBadPreamble       = errors.New("bad frame preamble or start code")
	ErrBadLengthChecksum = errors.New("frame length checksum mismatch")
	ErrChecksumMismatch  = errors.New("frame data checksum mismatch")
	ErrBodyLength        = errors.New("frame body length does not match header")
	ErrMissingAck        = errors.New("ACK frame not received")
	ErrNackReceived      = errors.New("NACK frame received")
)
