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
	"fmt"

	"github.com/ZaparooProject/go-pn532-ntag/pkg/ndef"
)

// TagCandidate is a tag memory size hypothesis tried by SizeProbe.
type TagCandidate int

// Candidates, largest first.
const (
	NTAG216 TagCandidate = iota
	NTAG215
	NTAG213
)

// DefaultCandidates is the order SizeProbe tries tag sizes in.
var DefaultCandidates = []TagCandidate{NTAG216, NTAG215, NTAG213}

// UserMemory returns the candidate's user memory in bytes.
func (c TagCandidate) UserMemory() int {
	switch c {
	case NTAG216:
		return 888
	case NTAG215:
		return 504
	default:
		return 144
	}
}

// LastUserPage returns the last page of the candidate's user memory.
func (c TagCandidate) LastUserPage() int {
	return FirstUserPage + c.UserMemory()/PageSize - 1
}

func (c TagCandidate) String() string {
	switch c {
	case NTAG216:
		return "NTAG216"
	case NTAG215:
		return "NTAG215"
	case NTAG213:
		return "NTAG213"
	default:
		return fmt.Sprintf("TagCandidate(%d)", int(c))
	}
}

// readWindowPages is the number of READ commands filling the text buffer.
const readWindowPages = 2

// CapabilityPage holds the capability container: E1, version, data area
// size in 8 byte units, access.
const CapabilityPage = 3

const ccMagic = 0xE1

// CCSize returns the capability container size byte NXP programs for the
// candidate.
func (c TagCandidate) CCSize() byte {
	switch c {
	case NTAG216:
		return 0x6D
	case NTAG215:
		return 0x3E
	default:
		return 0x12
	}
}

// candidateForCC maps a capability container size byte to a candidate.
func candidateForCC(size byte) (TagCandidate, bool) {
	for _, c := range DefaultCandidates {
		if c.CCSize() == size {
			return c, true
		}
	}
	return 0, false
}

// ProbeResult is the outcome of a successful probe.
type ProbeResult struct {
	Text      string
	Attempts  []ProbeAttempt
	Candidate TagCandidate
}

// SizeProbe runs a read or write against each tag size candidate in turn
// and accepts the first that succeeds.
type SizeProbe struct {
	pages      PageAccessor
	candidates []TagCandidate
}

// NewSizeProbe creates a probe over pages. Empty candidates means
// DefaultCandidates.
func NewSizeProbe(pages PageAccessor, candidates ...TagCandidate) *SizeProbe {
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	return &SizeProbe{pages: pages, candidates: candidates}
}

// Read decodes the text window and accepts the first candidate the
// capability container does not rule out.
func (p *SizeProbe) Read(ctx context.Context) (*ProbeResult, error) {
	var text string
	cc := &ccCache{pages: p.pages}
	res, err := p.run(ctx, "read", func(c TagCandidate) error {
		buf, err := ReadWindow(ctx, p.pages)
		if err != nil {
			return err
		}
		if text, err = ndef.Decode(buf); err != nil {
			return err
		}
		return cc.accept(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	res.Text = text
	return res, nil
}

// Write encodes text and writes it from page 4 on the first candidate that
// is large enough and not ruled out by the capability container.
func (p *SizeProbe) Write(ctx context.Context, text []byte) (*ProbeResult, error) {
	cc := &ccCache{pages: p.pages}
	res, err := p.run(ctx, "write", func(c TagCandidate) error {
		data, err := ndef.Encode(text)
		if err != nil {
			return err
		}
		if len(data) > c.UserMemory() {
			return fmt.Errorf("%w: %d bytes, %s holds %d", ErrTagTooSmall, len(data), c, c.UserMemory())
		}
		if err := cc.accept(ctx, c); err != nil {
			return err
		}
		return p.pages.WritePages(ctx, FirstUserPage, data)
	})
	if err != nil {
		return nil, err
	}
	res.Text = string(text)
	return res, nil
}

// ccCache reads the capability container at most once per probe run. Page 3
// is inside the memory of every candidate, so the READ never runs past the
// end of the tag.
type ccCache struct {
	pages PageAccessor
	data  []byte
}

// accept rejects c when the capability container names a different size.
// Unformatted or unknown containers accept every candidate.
func (cc *ccCache) accept(ctx context.Context, c TagCandidate) error {
	if cc.data == nil {
		buf, err := cc.pages.ReadPages(ctx, CapabilityPage, 1)
		if err != nil {
			return fmt.Errorf("capability container: %w", err)
		}
		cc.data = buf[:PageSize]
	}
	if cc.data[0] != ccMagic {
		return nil
	}
	declared, ok := candidateForCC(cc.data[2])
	if !ok || declared == c {
		return nil
	}
	return fmt.Errorf("%w: capability container size 0x%02X is %s, not %s",
		ErrSizeMismatch, cc.data[2], declared, c)
}

func (p *SizeProbe) run(ctx context.Context, op string, attempt func(TagCandidate) error) (*ProbeResult, error) {
	attempts := make([]ProbeAttempt, 0, len(p.candidates))
	for _, c := range p.candidates {
		err := attempt(c)
		attempts = append(attempts, ProbeAttempt{Candidate: c, Err: err})
		if err == nil {
			Debugf("%s succeeded as %s after %d attempts", op, c, len(attempts))
			return &ProbeResult{Candidate: c, Attempts: attempts}, nil
		}
		Debugf("%s as %s failed: %v", op, c, err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}
	return nil, &ExhaustedError{Op: op, Attempts: attempts}
}

// ReadWindow fills the 32 byte text buffer with READs of pages 4 and 5.
// Each READ returns four pages, so bytes 16..31 repeat pages 5-7 followed by
// page 8 and text longer than 12 bytes does not read back intact.
func ReadWindow(ctx context.Context, pages PageAccessor) ([]byte, error) {
	return pages.ReadPages(ctx, FirstUserPage, readWindowPages)
}
