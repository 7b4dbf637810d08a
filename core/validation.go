// Copyright 2025 Poiesic Systems
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


package core

import (
	"fmt"
	"strings"
)

// ValidateUtterance validates an Utterance according to domain rules.
//
// Validation rules:
//   - Speaker must not be blank
//   - Text must not be blank
//   - If both Start and End are set, End must not precede Start
//
// Missing timestamps are valid; many transcripts carry none.
func ValidateUtterance(u *Utterance) error {
	if u == nil {
		return fmt.Errorf("%w: utterance is nil", ErrInvalidUtterance)
	}

	if strings.TrimSpace(u.Speaker) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidUtterance, ErrEmptySpeaker)
	}

	if strings.TrimSpace(u.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidUtterance, ErrEmptyContent)
	}

	if u.Start != nil && u.End != nil && *u.End < *u.Start {
		return fmt.Errorf("%w: %w", ErrInvalidUtterance, ErrInvalidTimespan)
	}

	return nil
}

// ValidateTranscript validates every utterance and reports the first failure with its position.
func ValidateTranscript(utterances []Utterance) error {
	for i := range utterances {
		if err := ValidateUtterance(&utterances[i]); err != nil {
			return fmt.Errorf("utterance %d: %w", i, err)
		}
	}
	return nil
}

// ValidateVectorEntry validates a VectorEntry before it is stored.
//
// Validation rules:
//   - ScopeID must not be empty
//   - Text must not be empty
//   - Vector must not be empty
//
// ID may be empty; repositories derive one from the content.
func ValidateVectorEntry(entry *VectorEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidVectorEntry)
	}

	if entry.ScopeID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidVectorEntry, ErrEmptyScope)
	}

	if entry.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidVectorEntry, ErrEmptyContent)
	}

	if len(entry.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidVectorEntry, ErrEmptyVector)
	}

	return nil
}
