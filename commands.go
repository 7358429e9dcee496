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

// PN532 command codes
const (
	cmdGetFirmwareVersion  = 0x02
	cmdGetGeneralStatus    = 0x04
	cmdSAMConfiguration    = 0x14
	cmdInDataExchange      = 0x40
	cmdInListPassiveTarget = 0x4A
)

// NTAG commands carried by InDataExchange
const (
	ntagRead  = 0x30
	ntagWrite = 0xA2
)

const (
	tfiResponse = 0xD5

	// InListPassiveTarget parameters: one target at 106 kbps type A.
	maxTargets    = 0x01
	brTy106TypeA  = 0x00
	targetNumber  = 0x01
	statusSuccess = 0x00
)

// responseCode returns the echo byte the PN532 sends for cmd.
func responseCode(cmd byte) byte {
	return cmd + 1
}
