package core

import (
	"errors"
	"testing"
)

func ptr(f float64) *float64 { return &f }

func TestValidateUtterance(t *testing.T) {
	tests := []struct {
		name      string
		utterance *Utterance
		wantErr   error
	}{
		{
			name:      "valid utterance",
			utterance: &Utterance{Speaker: "Interviewer", Text: "Tell me about your week."},
			wantErr:   nil,
		},
		{
			name: "valid utterance with timestamps",
			utterance: &Utterance{
				Speaker: "P1",
				Text:    "It was rough.",
				Start:   ptr(12.5),
				End:     ptr(14.0),
			},
			wantErr: nil,
		},
		{
			name:      "start without end",
			utterance: &Utterance{Speaker: "P1", Text: "Hi", Start: ptr(3)},
			wantErr:   nil,
		},
		{
			name:      "nil utterance",
			utterance: nil,
			wantErr:   ErrInvalidUtterance,
		},
		{
			name:      "blank speaker",
			utterance: &Utterance{Speaker: "  ", Text: "Hello"},
			wantErr:   ErrEmptySpeaker,
		},
		{
			name:      "empty text",
			utterance: &Utterance{Speaker: "P1", Text: ""},
			wantErr:   ErrEmptyContent,
		},
		{
			name: "end before start",
			utterance: &Utterance{
				Speaker: "P1",
				Text:    "Hello",
				Start:   ptr(10),
				End:     ptr(9),
			},
			wantErr: ErrInvalidTimespan,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUtterance(tt.utterance)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateUtterance() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateUtterance() error = nil, want %v", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateUtterance() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidUtterance) {
				t.Errorf("ValidateUtterance() error = %v, want wrapped %v", err, ErrInvalidUtterance)
			}
		})
	}
}

func TestValidateTranscript(t *testing.T) {
	good := []Utterance{
		{Speaker: "A", Text: "one"},
		{Speaker: "B", Text: "two"},
	}
	if err := ValidateTranscript(good); err != nil {
		t.Fatalf("ValidateTranscript() error = %v, want nil", err)
	}

	if err := ValidateTranscript(nil); err != nil {
		t.Fatalf("ValidateTranscript(nil) error = %v, want nil", err)
	}

	bad := append(good, Utterance{Speaker: "C", Text: ""})
	err := ValidateTranscript(bad)
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("ValidateTranscript() error = %v, want %v", err, ErrEmptyContent)
	}
	if got, want := err.Error(), "utterance 2: invalid utterance: content cannot be empty"; got != want {
		t.Errorf("ValidateTranscript() error = %q, want %q", got, want)
	}
}

func TestValidateVectorEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   *VectorEntry
		wantErr error
	}{
		{
			name:    "valid entry",
			entry:   &VectorEntry{ID: "e1", ScopeID: "proj", Text: "quote", Vector: []float32{0.1}},
			wantErr: nil,
		},
		{
			name:    "valid entry without ID",
			entry:   &VectorEntry{ScopeID: "proj", Text: "quote", Vector: []float32{0.1}},
			wantErr: nil,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantErr: ErrInvalidVectorEntry,
		},
		{
			name:    "missing scope",
			entry:   &VectorEntry{Text: "quote", Vector: []float32{0.1}},
			wantErr: ErrEmptyScope,
		},
		{
			name:    "missing text",
			entry:   &VectorEntry{ScopeID: "proj", Vector: []float32{0.1}},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "missing vector",
			entry:   &VectorEntry{ScopeID: "proj", Text: "quote"},
			wantErr: ErrEmptyVector,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVectorEntry(tt.entry)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateVectorEntry() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateVectorEntry() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
