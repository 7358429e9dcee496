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

// Package pn532 drives a PN532 NFC controller to read and write a short
// text record on NTAG213/215/216 tags.
//
// A Session runs one framed command exchange at a time over a Transport:
// wake-up, command frame, ACK, then the response header and body. Device
// builds tag detection, page access and the tag size probe on top of it.
package pn532

import (
	"context"
	"errors"
	"fmt"
)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	Tracers    []Tracer
	Candidates []TagCandidate
	Timing     Timing
	SAMTimeout byte
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Timing:     DefaultTiming(),
		Candidates: DefaultCandidates,
		SAMTimeout: defaultSAMTimeout,
	}
}

// Device is a PN532 reader driving NTAG21x tags. Operations are serialised
// by the underlying Session; callers must still order them sensibly, e.g.
// detect a tag before reading it.
type Device struct {
	transport Transport
	session   *Session
	memory    *MemoryAccessor
	probe     *SizeProbe
	config    *DeviceConfig
	firmware  *FirmwareVersion
}

// New creates a Device over transport. No bytes are exchanged until
// Connect or another operation is called.
func New(transport Transport, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, errors.New("nil transport")
	}
	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
	}
	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	var tracer Tracer
	switch len(device.config.Tracers) {
	case 0:
	case 1:
		tracer = device.config.Tracers[0]
	default:
		tracer = MultiTracer(device.config.Tracers)
	}
	device.session = NewSession(transport, device.config.Timing, tracer)
	device.memory = NewMemoryAccessor(device.session)
	device.probe = NewSizeProbe(device.memory, device.config.Candidates...)
	return device, nil
}

// Connect configures the SAM for normal mode and reads the firmware
// version.
func (d *Device) Connect(ctx context.Context) (*FirmwareVersion, error) {
	if err := d.SAMConfiguration(ctx, SAMModeNormal, d.config.SAMTimeout, defaultSAMIRQ); err != nil {
		return nil, err
	}
	fw, err := d.GetFirmwareVersion(ctx)
	if err != nil {
		return nil, err
	}
	d.firmware = fw
	Debugf("connected to %s: PN5%02X firmware %s", d.session.Port(), fw.IC, fw)
	return fw, nil
}

// Firmware returns the version read by the last successful Connect.
func (d *Device) Firmware() *FirmwareVersion {
	return d.firmware
}

// ReadText reads the text stored in the first user pages, trying each tag
// size in turn.
func (d *Device) ReadText(ctx context.Context) (string, error) {
	res, err := d.probe.Read(ctx)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// WriteText writes text from page 4, trying each tag size in turn.
func (d *Device) WriteText(ctx context.Context, text string) error {
	_, err := d.probe.Write(ctx, []byte(text))
	return err
}

// ReadRaw returns the 32 byte text window without decoding it.
func (d *Device) ReadRaw(ctx context.Context) ([]byte, error) {
	return ReadWindow(ctx, d.memory)
}

// Probe returns the size probe used by ReadText and WriteText.
func (d *Device) Probe() *SizeProbe {
	return d.probe
}

// Memory returns the page accessor for the listed target.
func (d *Device) Memory() *MemoryAccessor {
	return d.memory
}

// Session returns the exchange session.
func (d *Device) Session() *Session {
	return d.session
}

// Transport returns the underlying transport.
func (d *Device) Transport() Transport {
	return d.transport
}

// Close closes the transport.
func (d *Device) Close() error {
	return d.session.Close()
}

// TransportFactory opens a transport for a device path.
type TransportFactory func(path string) (Transport, error)

// ConnectOption configures ConnectDevice.
type ConnectOption func(*connectConfig) error

type connectConfig struct {
	retry         *RetryConfig
	deviceOptions []Option
}

// WithDeviceOptions adds device-level options
func WithDeviceOptions(opts ...Option) ConnectOption {
	return func(c *connectConfig) error {
		c.deviceOptions = append(c.deviceOptions, opts...)
		return nil
	}
}

// WithConnectionRetries sets the number of connection attempts.
func WithConnectionRetries(maxAttempts int) ConnectOption {
	return func(c *connectConfig) error {
		if maxAttempts < 1 {
			return fmt.Errorf("%w: %d connection attempts", ErrInvalidParameter, maxAttempts)
		}
		c.retry.MaxAttempts = maxAttempts
		return nil
	}
}

// ConnectDevice opens path with factory and runs Connect, retrying
// retryable failures. The transport is closed when connecting fails.
func ConnectDevice(
	ctx context.Context, path string, factory TransportFactory, opts ...ConnectOption,
) (*Device, *FirmwareVersion, error) {
	config := &connectConfig{retry: ConnectionRetryConfig()}
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, nil, fmt.Errorf("failed to apply connect options: %w", err)
		}
	}

	transport, err := factory(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create transport: %w", err)
	}
	device, err := New(transport, config.deviceOptions...)
	if err != nil {
		_ = transport.Close()
		return nil, nil, err
	}

	fw, err := RetryValue(ctx, config.retry, func() (*FirmwareVersion, error) {
		return device.Connect(ctx)
	})
	if err != nil {
		_ = transport.Close()
		return nil, nil, fmt.Errorf("connect %s: %w", path, err)
	}
	return device, fw, nil
}
