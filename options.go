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
	"time"
)

// Option configures a Device.
type Option func(*Device) error

// WithTiming replaces all exchange delays and timeouts.
func WithTiming(timing Timing) Option {
	return func(d *Device) error {
		d.config.Timing = timing
		return nil
	}
}

// WithAckTimeout sets the ACK read timeout.
func WithAckTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: ack timeout %v", ErrInvalidParameter, timeout)
		}
		d.config.Timing.AckTimeout = timeout
		return nil
	}
}

// WithResponseTimeout sets the header and body read timeout.
func WithResponseTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: response timeout %v", ErrInvalidParameter, timeout)
		}
		d.config.Timing.ResponseTimeout = timeout
		return nil
	}
}

// WithWakeDelay sets the delay after the wake-up sequence.
func WithWakeDelay(delay time.Duration) Option {
	return func(d *Device) error {
		if delay < 0 {
			return fmt.Errorf("%w: wake delay %v", ErrInvalidParameter, delay)
		}
		d.config.Timing.WakeDelay = delay
		return nil
	}
}

// WithAckDelay sets the delay between writing a command and reading its
// ACK.
func WithAckDelay(delay time.Duration) Option {
	return func(d *Device) error {
		if delay < 0 {
			return fmt.Errorf("%w: ack delay %v", ErrInvalidParameter, delay)
		}
		d.config.Timing.AckDelay = delay
		return nil
	}
}

// WithTracer adds a tracer receiving every exchange step. It may be given
// more than once.
func WithTracer(tracer Tracer) Option {
	return func(d *Device) error {
		if tracer == nil {
			return errors.New("nil tracer")
		}
		d.config.Tracers = append(d.config.Tracers, tracer)
		return nil
	}
}

// WithCandidates overrides the tag size candidates and their order.
func WithCandidates(candidates ...TagCandidate) Option {
	return func(d *Device) error {
		if len(candidates) == 0 {
			return fmt.Errorf("%w: no tag candidates", ErrInvalidParameter)
		}
		d.config.Candidates = append([]TagCandidate(nil), candidates...)
		return nil
	}
}

// WithSAMTimeout sets the SAMConfiguration timeout byte sent by Connect.
func WithSAMTimeout(timeout byte) Option {
	return func(d *Device) error {
		d.config.SAMTimeout = timeout
		return nil
	}
}
