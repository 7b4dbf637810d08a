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

import "errors"

// Domain validation errors
var (
	// ErrInvalidUtterance indicates an Utterance failed validation.
	ErrInvalidUtterance = errors.New("invalid utterance")

	// ErrInvalidVectorEntry indicates a VectorEntry failed validation.
	ErrInvalidVectorEntry = errors.New("invalid vector entry")

	// ErrInvalidTimespan indicates an end timestamp precedes its start.
	ErrInvalidTimespan = errors.New("end precedes start")

	// ErrEmptyContent indicates a text field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptySpeaker indicates the Speaker field is empty.
	ErrEmptySpeaker = errors.New("speaker cannot be empty")

	// ErrEmptyScope indicates the ScopeID field is empty.
	ErrEmptyScope = errors.New("scope cannot be empty")

	// ErrEmptyVector indicates a vector has no components.
	ErrEmptyVector = errors.New("vector cannot be empty")
)
