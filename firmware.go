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
	"fmt"
)

// SAMMode is the SAMConfiguration mode byte.
type SAMMode byte

const (
	// SAMModeNormal - normal mode, no SAM in use
	SAMModeNormal SAMMode = 0x01
	// SAMModeVirtualCard - Virtual Card mode
	SAMModeVirtualCard SAMMode = 0x02
	// SAMModeWiredCard - Wired Card mode
	SAMModeWiredCard SAMMode = 0x03
	// SAMModeDualCard - Dual Card mode
	SAMModeDualCard SAMMode = 0x04
)

// SAM configuration sent on connect: normal mode, 0x17 x 50 ms virtual card
// timeout, IRQ pin driven.
const (
	defaultSAMTimeout = 0x17
	defaultSAMIRQ     = 0x01
)

// FirmwareVersion is the GetFirmwareVersion reply.
type FirmwareVersion struct {
	IC      byte
	Ver     byte
	Rev     byte
	Support byte
}

// Major returns the firmware version number (Ver). It is not the IC byte:
// tools that print IC.Ver show a stock PN532 as "50.1", String shows "1.6".
func (f *FirmwareVersion) Major() int { return int(f.Ver) }

// Minor returns the firmware revision number (Rev).
func (f *FirmwareVersion) Minor() int { return int(f.Rev) }

func (f *FirmwareVersion) String() string {
	return fmt.Sprintf("%d.%d", f.Major(), f.Minor())
}

// SupportsISO14443A reports the type A support flag.
func (f *FirmwareVersion) SupportsISO14443A() bool { return f.Support&0x01 != 0 }

// SupportsISO14443B reports the type B support flag.
func (f *FirmwareVersion) SupportsISO14443B() bool { return f.Support&0x02 != 0 }

// SupportsISO18092 reports the ISO 18092 support flag.
func (f *FirmwareVersion) SupportsISO18092() bool { return f.Support&0x04 != 0 }

// GeneralStatus contains PN532 general status information
type GeneralStatus struct {
	LastError    byte
	FieldPresent bool
	Targets      byte
}

// GetFirmwareVersion queries the PN532 firmware version.
func (d *Device) GetFirmwareVersion(ctx context.Context) (*FirmwareVersion, error) {
	res, err := d.session.Execute(ctx, []byte{cmdGetFirmwareVersion})
	if err != nil {
		return nil, fmt.Errorf("GetFirmwareVersion: %w", err)
	}
	if len(res) < 6 || res[0] != tfiResponse || res[1] != responseCode(cmdGetFirmwareVersion) {
		return nil, fmt.Errorf("%w: GetFirmwareVersion reply % X", ErrUnexpectedResponse, res)
	}
	return &FirmwareVersion{IC: res[2], Ver: res[3], Rev: res[4], Support: res[5]}, nil
}

// SAMConfiguration sets the SAM mode. timeout is in units of 50 ms.
func (d *Device) SAMConfiguration(ctx context.Context, mode SAMMode, timeout, irq byte) error {
	res, err := d.session.Execute(ctx, []byte{cmdSAMConfiguration, byte(mode), timeout, irq})
	if err != nil {
		return fmt.Errorf("SAMConfiguration: %w", err)
	}
	if len(res) < 2 || res[0] != tfiResponse || res[1] != responseCode(cmdSAMConfiguration) {
		return fmt.Errorf("%w: SAMConfiguration reply % X", ErrUnexpectedResponse, res)
	}
	return nil
}

// GetGeneralStatus returns the last error, RF field state and number of
// targets handled.
func (d *Device) GetGeneralStatus(ctx context.Context) (*GeneralStatus, error) {
	res, err := d.session.Execute(ctx, []byte{cmdGetGeneralStatus})
	if err != nil {
		return nil, fmt.Errorf("GetGeneralStatus: %w", err)
	}
	if len(res) < 5 || res[0] != tfiResponse || res[1] != responseCode(cmdGetGeneralStatus) {
		return nil, fmt.Errorf("%w: GetGeneralStatus reply % X", ErrUnexpectedResponse, res)
	}
	return &GeneralStatus{
		LastError:    res[2],
		FieldPresent: res[3] != 0,
		Targets:      res[4],
	}, nil
}
