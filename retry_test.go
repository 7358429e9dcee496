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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quickRetry(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        2 * time.Millisecond,
		BackoffMultiplier: 2,
	}
}

func TestRetryWithConfig(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after retryable failures", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := RetryWithConfig(context.Background(), quickRetry(3), func() error {
			calls++
			if calls < 3 {
				return NewTimeoutError("read", "p")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := RetryWithConfig(context.Background(), quickRetry(5), func() error {
			calls++
			return ErrInvalidParameter
		})
		require.ErrorIs(t, err, ErrInvalidParameter)
		assert.Equal(t, 1, calls)
	})

	t.Run("returns last error when attempts run out", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := RetryWithConfig(context.Background(), quickRetry(2), func() error {
			calls++
			return ErrNoACK
		})
		require.ErrorIs(t, err, ErrNoACK)
		assert.Equal(t, 2, calls)
	})

	t.Run("zero attempts runs once", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := RetryWithConfig(context.Background(), quickRetry(0), func() error {
			calls++
			return ErrNoACK
		})
		require.ErrorIs(t, err, ErrNoACK)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		err := RetryWithConfig(ctx, quickRetry(3), func() error {
			calls++
			return nil
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, calls)
	})
}

func TestRetryValue(t *testing.T) {
	t.Parallel()

	calls := 0
	v, err := RetryValue(context.Background(), quickRetry(3), func() (int, error) {
		calls++
		if calls == 1 {
			return 0, ErrBadChecksum
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = RetryValue(context.Background(), quickRetry(3), func() (string, error) {
		return "ignored", errors.New("permanent")
	})
	require.EqualError(t, err, "permanent")
}

func TestNextBackoff(t *testing.T) {
	t.Parallel()

	config := &RetryConfig{BackoffMultiplier: 2, MaxBackoff: 30 * time.Millisecond}
	assert.Equal(t, 20*time.Millisecond, nextBackoff(10*time.Millisecond, config))
	assert.Equal(t, 30*time.Millisecond, nextBackoff(20*time.Millisecond, config))
}

func TestJitteredSleep(t *testing.T) {
	t.Parallel()

	base := 10 * time.Millisecond
	assert.Equal(t, base, jitteredSleep(base, 0))
	for range 20 {
		d := jitteredSleep(base, 0.5)
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, base+base/2)
	}
}
