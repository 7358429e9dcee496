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
	"encoding/hex"
	"fmt"
)

// SENS_RES values reported for NTAG21x targets. Firmware variants report
// the two bytes in either order.
var ntagSignatures = [][2]byte{
	{0x04, 0x00},
	{0x00, 0x44},
}

// Target is an ISO14443A target returned by InListPassiveTarget.
type Target struct {
	UID     []byte
	SensRes [2]byte
	Number  byte
	SelRes  byte
}

// UIDString returns the UID as lower case hex.
func (t *Target) UIDString() string {
	return hex.EncodeToString(t.UID)
}

// IsNTAG reports whether the SENS_RES matches an NTAG signature.
func (t *Target) IsNTAG() bool {
	for _, sig := range ntagSignatures {
		if t.SensRes == sig {
			return true
		}
	}
	return false
}

// DetectTag lists one 106 kbps type A target and reports whether it looks
// like an NTAG. Every failure, including exchange errors, reports false.
func (d *Device) DetectTag(ctx context.Context) bool {
	target, err := d.DetectTarget(ctx)
	if err != nil {
		Debugf("detect: %v", err)
		return false
	}
	return target.IsNTAG()
}

// DetectTarget lists one 106 kbps type A target and returns it.
func (d *Device) DetectTarget(ctx context.Context) (*Target, error) {
	res, err := d.session.Execute(ctx, []byte{cmdInListPassiveTarget, maxTargets, brTy106TypeA})
	if err != nil {
		return nil, fmt.Errorf("InListPassiveTarget: %w", err)
	}
	return parseTarget(res)
}

// parseTarget decodes D5 4B NbTg Tg SENS_RES(2) SEL_RES NFCIDLength NFCID.
func parseTarget(res []byte) (*Target, error) {
	if len(res) < 3 || res[0] != tfiResponse || res[1] != responseCode(cmdInListPassiveTarget) {
		return nil, fmt.Errorf("%w: InListPassiveTarget reply % X", ErrUnexpectedResponse, res)
	}
	if res[2] != 0x01 {
		return nil, ErrTagNotFound
	}
	if len(res) < 6 {
		return nil, fmt.Errorf("%w: target data truncated: % X", ErrUnexpectedResponse, res)
	}
	target := &Target{Number: res[3], SensRes: [2]byte{res[4], res[5]}}
	if len(res) > 6 {
		target.SelRes = res[6]
	}
	if len(res) > 7 {
		end := min(8+int(res[7]), len(res))
		target.UID = append([]byte(nil), res[8:end]...)
	}
	return target, nil
}
