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

// Package testing provides a wire-level PN532 simulator for transport and
// exchange tests.
//
// VirtualPN532 implements io.ReadWriter and answers normal information frames
// the way a PN532 on HSU does: an ACK frame followed by a response frame for
// every well-formed command. Only the commands used against NTAG tags are
// modelled.
package testing

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-pn532-ntag/internal/syncutil"
)

const (
	pn532Preamble   = 0x00
	pn532StartCode1 = 0x00
	pn532StartCode2 = 0xFF
	pn532Postamble  = 0x00

	tfiHostToPN532 = 0xD4
	tfiPN532ToHost = 0xD5

	tfiError = 0x7F
)

// ACK and NACK frames
var (
	ACKFrame  = []byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}
	NACKFrame = []byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00}
)

// PN532 status codes returned by the simulator
const (
	StatusOK      = 0x00
	StatusTimeout = 0x01 // tag did not answer
	StatusNoTag   = 0x27 // command not acceptable in current context
)

// Fault selects a one-shot corruption applied to the next reply.
type Fault int

// Faults understood by InjectFault.
const (
	FaultNone Fault = iota
	FaultDropACK
	FaultNACKForACK
	FaultBadLengthChecksum
	FaultBadPreamble
	FaultBadChecksum
	FaultOverrideChecksumE8
	FaultOverrideChecksum56
	FaultNoResponse
)

// SimulatorState tracks the internal state of the simulated PN532
type SimulatorState struct {
	SAMConfigured  bool
	TargetSelected bool
}

// CommandRecord is a command frame accepted by the simulator.
type CommandRecord struct {
	Params []byte
	Cmd    byte
}

// VirtualPN532 simulates a PN532 chip at the wire protocol level.
type VirtualPN532 struct {
	tag             *VirtualTag
	rxBuffer        bytes.Buffer
	txBuffer        bytes.Buffer
	commands        []CommandRecord
	faults          []Fault
	state           SimulatorState
	mu              syncutil.Mutex
	firmwareIC      byte
	firmwareVer     byte
	firmwareRev     byte
	firmwareSupport byte
}

// NewVirtualPN532 creates a simulator reporting PN532 firmware 1.6 with no
// tag in the field.
func NewVirtualPN532() *VirtualPN532 {
	return &VirtualPN532{
		firmwareIC:      0x32,
		firmwareVer:     0x01,
		firmwareRev:     0x06,
		firmwareSupport: 0x07,
	}
}

// Write receives bytes from the host and queues replies for every complete
// frame.
func (v *VirtualPN532) Write(data []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.rxBuffer.Write(data)
	v.processReceivedData()
	return len(data), nil
}

// Read returns queued reply bytes. It returns 0, nil when nothing is pending.
func (v *VirtualPN532) Read(buf []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.txBuffer.Len() == 0 {
		return 0, nil
	}
	n, err := v.txBuffer.Read(buf)
	if err != nil {
		return n, fmt.Errorf("read from tx buffer: %w", err)
	}
	return n, nil
}

// Pending returns the number of reply bytes waiting to be read.
func (v *VirtualPN532) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.txBuffer.Len()
}

// Discard drops all pending reply bytes.
func (v *VirtualPN532) Discard() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.txBuffer.Reset()
}

// SetTag places a tag in the field. nil removes it.
func (v *VirtualPN532) SetTag(tag *VirtualTag) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tag = tag
	v.state.TargetSelected = false
}

// SetFirmwareVersion configures the GetFirmwareVersion reply.
func (v *VirtualPN532) SetFirmwareVersion(ic, ver, rev, support byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.firmwareIC = ic
	v.firmwareVer = ver
	v.firmwareRev = rev
	v.firmwareSupport = support
}

// InjectFault queues a fault for the next command. Faults are consumed one
// per command in the order they were injected.
func (v *VirtualPN532) InjectFault(f Fault) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.faults = append(v.faults, f)
}

// Commands returns the commands accepted so far.
func (v *VirtualPN532) Commands() []CommandRecord {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]CommandRecord, len(v.commands))
	copy(out, v.commands)
	return out
}

// GetState returns the current simulator state.
func (v *VirtualPN532) GetState() SimulatorState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *VirtualPN532) nextFault() Fault {
	if len(v.faults) == 0 {
		return FaultNone
	}
	f := v.faults[0]
	v.faults = v.faults[1:]
	return f
}

// processReceivedData parses frames from the receive buffer. Bytes that
// cannot start a frame (wake-up sequence, line noise) are dropped.
func (v *VirtualPN532) processReceivedData() {
	for {
		data := v.rxBuffer.Bytes()
		if bytes.HasPrefix(data, ACKFrame) {
			v.rxBuffer.Next(len(ACKFrame))
			continue
		}

		startIdx := findFrameStart(data)
		if startIdx < 0 {
			// keep a trailing 0x00 in case the start code is split
			if n := len(data); n > 0 && data[n-1] == pn532StartCode1 {
				v.rxBuffer.Next(n - 1)
			} else {
				v.rxBuffer.Reset()
			}
			return
		}
		v.rxBuffer.Next(startIdx)
		data = v.rxBuffer.Bytes()

		frame, frameLen, err := parseFrame(data)
		if errors.Is(err, errIncompleteFrame) {
			return
		}
		if err != nil {
			v.rxBuffer.Next(2)
			continue
		}
		v.rxBuffer.Next(frameLen)
		v.processCommand(frame)
	}
}

var errIncompleteFrame = errors.New("incomplete frame")

func findFrameStart(data []byte) int {
	for i := 0; i+1 < len(data); i++ {
		if data[i] == pn532StartCode1 && data[i+1] == pn532StartCode2 {
			return i
		}
	}
	return -1
}

// parseFrame validates a frame starting at the 00 FF start code and returns
// TFI + command + params and the number of bytes consumed.
func parseFrame(data []byte) (frameData []byte, consumed int, err error) {
	if len(data) < 4 {
		return nil, 0, errIncompleteFrame
	}
	frameLen := int(data[2])
	if data[2]+data[3] != 0 {
		return nil, 0, errors.New("length checksum error")
	}
	total := 2 + 2 + frameLen + 2
	if len(data) < total {
		return nil, 0, errIncompleteFrame
	}
	frameData = data[4 : 4+frameLen]
	sum := data[4+frameLen]
	for _, b := range frameData {
		sum += b
	}
	if sum != 0 {
		return nil, 0, errors.New("data checksum error")
	}
	if frameLen < 2 || frameData[0] != tfiHostToPN532 {
		return nil, 0, errors.New("invalid TFI")
	}
	return frameData, total, nil
}

func (v *VirtualPN532) processCommand(frameData []byte) {
	cmd := frameData[1]
	params := append([]byte(nil), frameData[2:]...)
	v.commands = append(v.commands, CommandRecord{Cmd: cmd, Params: params})

	fault := v.nextFault()
	switch fault {
	case FaultDropACK:
		return
	case FaultNACKForACK:
		v.txBuffer.Write(NACKFrame)
		return
	default:
		v.txBuffer.Write(ACKFrame)
	}
	if fault == FaultNoResponse {
		return
	}

	var data []byte
	switch cmd {
	case 0x02:
		data = []byte{v.firmwareIC, v.firmwareVer, v.firmwareRev, v.firmwareSupport}
	case 0x04:
		data = v.handleGetGeneralStatus()
	case 0x14:
		v.state.SAMConfigured = true
	case 0x4A:
		data = v.handleInListPassiveTarget(params)
	case 0x40:
		data = v.handleInDataExchange(params)
	default:
		v.txBuffer.Write([]byte{
			pn532Preamble, pn532StartCode1, pn532StartCode2, 0x01, 0xFF, tfiError, 0x81, pn532Postamble,
		})
		return
	}
	v.sendResponse(cmd, data, fault)
}

func (v *VirtualPN532) handleGetGeneralStatus() []byte {
	// Err, Field, NbTg
	if v.state.TargetSelected {
		return []byte{0x00, 0x01, 0x01, 0x00, 0x00, 0x00, 0x80}
	}
	return []byte{0x00, 0x00, 0x00, 0x80}
}

// handleInListPassiveTarget answers a 106 kbps type A poll for one target.
func (v *VirtualPN532) handleInListPassiveTarget(params []byte) []byte {
	if len(params) < 2 || v.tag == nil || params[1] != 0x00 {
		v.state.TargetSelected = false
		return []byte{0x00}
	}
	v.state.TargetSelected = true
	v.tag.Select()
	uid := v.tag.UID()
	sensRes := v.tag.SensRes()
	out := make([]byte, 0, 6+len(uid))
	out = append(out, 0x01, 0x01, sensRes[0], sensRes[1], v.tag.SelRes(), byte(len(uid)))
	return append(out, uid...)
}

// handleInDataExchange forwards NTAG READ (0x30) and WRITE (0xA2) to the
// selected tag.
func (v *VirtualPN532) handleInDataExchange(params []byte) []byte {
	if len(params) < 3 || params[0] != 0x01 || !v.state.TargetSelected || v.tag == nil {
		return []byte{StatusNoTag}
	}
	switch params[1] {
	case 0x30:
		data, err := v.tag.ReadPage(params[2])
		if err != nil {
			return []byte{StatusTimeout}
		}
		return append([]byte{StatusOK}, data...)
	case 0xA2:
		if len(params) != 7 {
			return []byte{StatusNoTag}
		}
		if err := v.tag.WritePage(params[2], params[3:7]); err != nil {
			return []byte{StatusTimeout}
		}
		return []byte{StatusOK}
	default:
		return []byte{StatusNoTag}
	}
}

// sendResponse frames data as the reply to cmd and applies any fault.
func (v *VirtualPN532) sendResponse(cmd byte, data []byte, fault Fault) {
	frameData := append([]byte{tfiPN532ToHost, cmd + 1}, data...)
	frame := BuildFrame(frameData)
	dcsIdx := len(frame) - 2

	switch fault {
	case FaultBadLengthChecksum:
		frame[4] = frame[3]
	case FaultBadPreamble:
		frame[2] = 0xFE
	case FaultBadChecksum:
		frame[dcsIdx]++
		if frame[dcsIdx] == 0xE8 || frame[dcsIdx] == 0x56 {
			frame[dcsIdx]++
		}
	case FaultOverrideChecksumE8:
		frame[dcsIdx] = 0xE8
	case FaultOverrideChecksum56:
		frame[dcsIdx] = 0x56
	default:
	}
	v.txBuffer.Write(frame)
}

// BuildFrame wraps TFI + payload in a normal information frame.
func BuildFrame(frameData []byte) []byte {
	n := len(frameData)
	dcs := byte(0)
	for _, b := range frameData {
		dcs += b
	}
	frame := make([]byte, 0, n+7)
	frame = append(frame, pn532Preamble, pn532StartCode1, pn532StartCode2, byte(n), byte(-n))
	frame = append(frame, frameData...)
	return append(frame, -dcs, pn532Postamble)
}
