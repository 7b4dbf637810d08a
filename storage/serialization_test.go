package storage

import (
	"testing"
	"time"

	"github.com/poiesic/evidence/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorEntryRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name  string
		entry *core.VectorEntry
	}{
		{
			name: "full entry",
			entry: &core.VectorEntry{
				ID:         "ev-12",
				ScopeID:    "project-7",
				Kind:       "evidence",
				Label:      "verbatim",
				Text:       "We export the CSV every Monday — by hand.",
				Vector:     []float32{0.6, -0.8, 0, 1e-7},
				InsertedAt: now,
			},
		},
		{
			name: "zero time and empty strings",
			entry: &core.VectorEntry{
				ScopeID: "s",
				Text:    "t",
				Vector:  []float32{1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalVectorEntry(tt.entry)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalVectorEntry(data)
			require.NoError(t, err)
			assert.Equal(t, tt.entry, decoded)
		})
	}
}

func TestUnmarshalVectorEntry_Invalid(t *testing.T) {
	valid := MarshalVectorEntry(&core.VectorEntry{
		ID:      "a",
		ScopeID: "s",
		Text:    "text",
		Vector:  []float32{0.1, 0.2, 0.3},
	})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"truncated vector", valid[:len(valid)-6]},
		{"trailing bytes", append(append([]byte{}, valid...), 0x01)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalVectorEntry(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}

func TestVectorEntrySkip(t *testing.T) {
	first := MarshalVectorEntry(&core.VectorEntry{ID: "1", ScopeID: "s", Text: "one", Vector: []float32{1, 0}})
	second := MarshalVectorEntry(&core.VectorEntry{ID: "2", ScopeID: "s", Text: "two", Vector: []float32{0, 1}})
	data := append(append([]byte{}, first...), second...)

	n, err := VectorEntryMUS.Skip(data)
	require.NoError(t, err)
	assert.Equal(t, len(first), n)

	decoded, err := UnmarshalVectorEntry(data[n:])
	require.NoError(t, err)
	assert.Equal(t, "2", decoded.ID)
}
