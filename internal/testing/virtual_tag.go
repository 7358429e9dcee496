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
	"encoding/hex"
	"errors"
	"fmt"
)

// TagType is an NTAG variant modelled by VirtualTag.
type TagType int

// Supported tag types
const (
	NTAG213 TagType = iota
	NTAG215
	NTAG216
)

// Pages returns the total page count including configuration pages.
func (t TagType) Pages() int {
	switch t {
	case NTAG215:
		return 135
	case NTAG216:
		return 231
	default:
		return 45
	}
}

func (t TagType) String() string {
	switch t {
	case NTAG215:
		return "NTAG215"
	case NTAG216:
		return "NTAG216"
	default:
		return "NTAG213"
	}
}

const pageSize = 4

var (
	errTagNotPresent = errors.New("tag not present")
	errPageRange     = errors.New("page out of range")
	errReadOnlyPage  = errors.New("page is read-only")
	errTagHalted     = errors.New("tag halted after NAK")
)

// TestNTAGUID is the 7 byte UID given to virtual tags by default.
var TestNTAGUID = []byte{0x04, 0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56}

// VirtualTag is an NTAG21x memory image.
type VirtualTag struct {
	uid      []byte
	memory   []byte
	sensRes  [2]byte
	selRes   byte
	tagType  TagType
	Present  bool
	readOnly bool
	halted   bool
}

// NewVirtualNTAG creates a blank tag of the given type with capability
// container and an empty NDEF TLV.
func NewVirtualNTAG(tagType TagType, uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestNTAGUID
	}
	tag := &VirtualTag{
		uid:     append([]byte(nil), uid...),
		memory:  make([]byte, tagType.Pages()*pageSize),
		sensRes: [2]byte{0x00, 0x44},
		tagType: tagType,
		Present: true,
	}
	copy(tag.memory, uid[:3])
	copy(tag.memory[4:], uid[3:])

	ccSize := map[TagType]byte{NTAG213: 0x12, NTAG215: 0x3E, NTAG216: 0x6D}[tagType]
	copy(tag.memory[3*pageSize:], []byte{0xE1, 0x10, ccSize, 0x00})
	copy(tag.memory[4*pageSize:], []byte{0x03, 0x00, 0xFE, 0x00})
	return tag
}

// Type returns the tag's NTAG variant.
func (v *VirtualTag) Type() TagType {
	return v.tagType
}

// UID returns a copy of the tag UID.
func (v *VirtualTag) UID() []byte {
	return append([]byte(nil), v.uid...)
}

// GetUIDString returns the UID as a hex string
func (v *VirtualTag) GetUIDString() string {
	return hex.EncodeToString(v.uid)
}

// SensRes returns the SENS_RES bytes reported during target listing.
func (v *VirtualTag) SensRes() [2]byte {
	return v.sensRes
}

// SetSensRes overrides the SENS_RES bytes, e.g. to model firmware that
// reports them in the other byte order.
func (v *VirtualTag) SetSensRes(b0, b1 byte) {
	v.sensRes = [2]byte{b0, b1}
}

// SelRes returns the SEL_RES (SAK) byte.
func (v *VirtualTag) SelRes() byte {
	return v.selRes
}

// SetMemory copies data into tag memory starting at page.
func (v *VirtualTag) SetMemory(page int, data []byte) {
	copy(v.memory[page*pageSize:], data)
}

// Memory returns a copy of count pages starting at page.
func (v *VirtualTag) Memory(page, count int) []byte {
	start := page * pageSize
	end := min(start+count*pageSize, len(v.memory))
	return append([]byte(nil), v.memory[start:end]...)
}

// Halted reports whether the tag NAKed a command and left the ACTIVE
// state. A halted tag answers nothing until it is selected again.
func (v *VirtualTag) Halted() bool {
	return v.halted
}

// Select models anticollision and selection, returning a halted tag to the
// ACTIVE state.
func (v *VirtualTag) Select() {
	v.halted = false
}

func (v *VirtualTag) check(page byte) error {
	if !v.Present {
		return errTagNotPresent
	}
	if v.halted {
		return errTagHalted
	}
	if int(page) >= v.tagType.Pages() {
		v.halted = true
		return fmt.Errorf("%w: %d", errPageRange, page)
	}
	return nil
}

// ReadPage implements NTAG READ: 16 bytes starting at page, rolling over to
// page 0 past the end of memory. A start page past the end is NAKed and
// halts the tag.
func (v *VirtualTag) ReadPage(page byte) ([]byte, error) {
	if err := v.check(page); err != nil {
		return nil, err
	}
	total := v.tagType.Pages()
	out := make([]byte, 0, 4*pageSize)
	for i := range 4 {
		p := (int(page) + i) % total
		out = append(out, v.memory[p*pageSize:(p+1)*pageSize]...)
	}
	return out, nil
}

// WritePage implements NTAG WRITE of one 4 byte page. Pages 0-2 are
// read-only. A page past the end is NAKed and halts the tag.
func (v *VirtualTag) WritePage(page byte, data []byte) error {
	if err := v.check(page); err != nil {
		return err
	}
	if page < 3 || v.readOnly {
		return fmt.Errorf("%w: %d", errReadOnlyPage, page)
	}
	if len(data) != pageSize {
		return fmt.Errorf("write needs %d bytes, got %d", pageSize, len(data))
	}
	copy(v.memory[int(page)*pageSize:], data)
	return nil
}

// SetReadOnly makes every page reject writes.
func (v *VirtualTag) SetReadOnly(readOnly bool) {
	v.readOnly = readOnly
}
