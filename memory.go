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

// NTAG page geometry
const (
	PageSize       = 4
	ReadWindowSize = 16 // bytes returned by one NTAG READ
	FirstUserPage  = 4
	maxPage        = 0xFF
)

// Exchanger runs one PN532 command exchange. *Session implements it.
type Exchanger interface {
	Execute(ctx context.Context, body []byte) ([]byte, error)
}

// PageAccessor reads and writes NTAG pages.
type PageAccessor interface {
	// ReadPages issues one READ per page in [start, start+count) and
	// concatenates the 16 byte windows.
	ReadPages(ctx context.Context, start, count int) ([]byte, error)
	// WritePages writes data, a multiple of 4 bytes, one page at a time
	// starting at start.
	WritePages(ctx context.Context, start int, data []byte) error
}

// MemoryAccessor implements PageAccessor with InDataExchange commands to
// the first listed target.
type MemoryAccessor struct {
	ex Exchanger
}

// NewMemoryAccessor returns an accessor using ex.
func NewMemoryAccessor(ex Exchanger) *MemoryAccessor {
	return &MemoryAccessor{ex: ex}
}

// ReadPages reads count 16 byte windows starting at each of start,
// start+1, ... and stops at the first failure.
func (m *MemoryAccessor) ReadPages(ctx context.Context, start, count int) ([]byte, error) {
	if count < 0 || start < 0 || start+count-1 > maxPage {
		return nil, fmt.Errorf("%w: pages %d+%d", ErrInvalidParameter, start, count)
	}
	out := make([]byte, 0, count*ReadWindowSize)
	for page := start; page < start+count; page++ {
		window, err := m.readPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("%w (page %d): %w", ErrTagReadFailed, page, err)
		}
		out = append(out, window...)
	}
	return out, nil
}

func (m *MemoryAccessor) readPage(ctx context.Context, page int) ([]byte, error) {
	res, err := m.ex.Execute(ctx, []byte{cmdInDataExchange, targetNumber, ntagRead, byte(page)})
	if err != nil {
		return nil, err
	}
	if err := checkDataExchange(res, 3+ReadWindowSize, page); err != nil {
		return nil, err
	}
	return append([]byte(nil), res[3:3+ReadWindowSize]...), nil
}

// WritePages writes data page by page from start and stops at the first
// failure.
func (m *MemoryAccessor) WritePages(ctx context.Context, start int, data []byte) error {
	if len(data)%PageSize != 0 {
		return fmt.Errorf("%w: %d bytes is not a whole number of pages", ErrInvalidParameter, len(data))
	}
	pages := len(data) / PageSize
	if start < 0 || start+pages-1 > maxPage {
		return fmt.Errorf("%w: pages %d+%d", ErrInvalidParameter, start, pages)
	}
	for i := range pages {
		page := start + i
		body := make([]byte, 0, 8)
		body = append(body, cmdInDataExchange, targetNumber, ntagWrite, byte(page))
		body = append(body, data[i*PageSize:(i+1)*PageSize]...)

		res, err := m.ex.Execute(ctx, body)
		if err == nil {
			err = checkDataExchange(res, 3, page)
		}
		if err != nil {
			return fmt.Errorf("%w (page %d): %w", ErrTagWriteFailed, page, err)
		}
	}
	return nil
}

// checkDataExchange validates an InDataExchange response: D5 41 status.
func checkDataExchange(res []byte, minLen, page int) error {
	if len(res) >= 3 && res[0] == tfiResponse && res[1] == responseCode(cmdInDataExchange) &&
		res[2] != statusSuccess {
		return NewPN532Error(res[2], "InDataExchange", page)
	}
	if len(res) < minLen || res[0] != tfiResponse || res[1] != responseCode(cmdInDataExchange) {
		return fmt.Errorf("%w: InDataExchange reply % X", ErrUnexpectedResponse, res)
	}
	return nil
}

var _ PageAccessor = (*MemoryAccessor)(nil)
