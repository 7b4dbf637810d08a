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


// Package storage defines the persistence layer for the reference corpus.
//
// The corpus is a set of embedded texts (evidence quotes, theme statements,
// facet labels) grouped by scope, usually a project or interview. A
// VectorRepository stores them and answers nearest-neighbour queries, which
// makes it the similarity.CorpusLookup behind a similarity.Matcher.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces so callers are not coupled to a
// particular backend:
//
//	repo, err := badger.NewVectorRepository(backend)  // returns storage.VectorRepository
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	repo, err := badger.NewVectorRepository(backend)
//
// Tests use the in-memory backend:
//
//	repo, backend, err := badger.NewMemoryVectorRepository()
//
// # Serialization
//
// Entries are stored in MUS binary format (github.com/mus-format/mus-go).
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
