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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/evidence/core"
)

// VectorEntryMUS is the MUS serializer for core.VectorEntry.
// Field order: ID, ScopeID, Kind, Label, Text, Vector, InsertedAt (Unix micro).
var VectorEntryMUS = vectorEntryMUS{}

// VectorMUS serializes a vector as a varint length followed by raw float32 values.
var VectorMUS = vectorMUS{}

var (
	_ mus.Serializer[core.VectorEntry] = vectorEntryMUS{}
	_ mus.Serializer[[]float32]        = vectorMUS{}
)

type vectorMUS struct{}

func (vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 || length > (len(bs)-n)/4 {
		return nil, n, fmt.Errorf("%w: vector length %d", ErrSerializationFailed, length)
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]float32, length)
	for i := range v {
		f, m, err := raw.Float32.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		v[i] = f
	}
	return v, n, nil
}

func (vectorMUS) Size(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

func (vectorMUS) Skip(bs []byte) (n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return n, err
	}
	if length < 0 || length > (len(bs)-n)/4 {
		return n, fmt.Errorf("%w: vector length %d", ErrSerializationFailed, length)
	}
	return n + 4*length, nil
}

type vectorEntryMUS struct{}

func (vectorEntryMUS) Marshal(v core.VectorEntry, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.ScopeID, bs[n:])
	n += ord.String.Marshal(v.Kind, bs[n:])
	n += ord.String.Marshal(v.Label, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += VectorMUS.Marshal(v.Vector, bs[n:])
	n += varint.Int64.Marshal(unixMicro(v.InsertedAt), bs[n:])
	return n
}

func (vectorEntryMUS) Unmarshal(bs []byte) (v core.VectorEntry, n int, err error) {
	var m int
	strings := []*string{&v.ID, &v.ScopeID, &v.Kind, &v.Label, &v.Text}
	for _, field := range strings {
		*field, m, err = ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return v, n, err
		}
	}
	v.Vector, m, err = VectorMUS.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return v, n, err
	}
	micros, m, err := varint.Int64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return v, n, err
	}
	if micros != 0 {
		v.InsertedAt = time.UnixMicro(micros).UTC()
	}
	return v, n, nil
}

func (vectorEntryMUS) Size(v core.VectorEntry) (size int) {
	size = ord.String.Size(v.ID)
	size += ord.String.Size(v.ScopeID)
	size += ord.String.Size(v.Kind)
	size += ord.String.Size(v.Label)
	size += ord.String.Size(v.Text)
	size += VectorMUS.Size(v.Vector)
	return size + varint.Int64.Size(unixMicro(v.InsertedAt))
}

func (vectorEntryMUS) Skip(bs []byte) (n int, err error) {
	var m int
	for range 5 {
		m, err = ord.String.Skip(bs[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	m, err = VectorMUS.Skip(bs[n:])
	n += m
	if err != nil {
		return n, err
	}
	m, err = varint.Int64.Skip(bs[n:])
	return n + m, err
}

func unixMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

// MarshalVectorEntry serializes a VectorEntry to bytes.
func MarshalVectorEntry(entry *core.VectorEntry) []byte {
	buf := make([]byte, VectorEntryMUS.Size(*entry))
	VectorEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalVectorEntry deserializes a VectorEntry from bytes.
func UnmarshalVectorEntry(data []byte) (*core.VectorEntry, error) {
	entry, n, err := VectorEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, ErrTrailingData)
	}
	return &entry, nil
}
