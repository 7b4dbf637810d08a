package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/poiesic/evidence/core"
)

// readInput reads a file, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// loadTranscript reads a transcript as either a JSON array of utterances or
// an object with an "utterances" array, and validates it.
func loadTranscript(path string) ([]core.Utterance, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	utterances, err := parseTranscript(data)
	if err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", path, err)
	}
	if err := core.ValidateTranscript(utterances); err != nil {
		return nil, fmt.Errorf("transcript %s: %w", path, err)
	}
	return utterances, nil
}

func parseTranscript(data []byte) ([]core.Utterance, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	var utterances []core.Utterance
	if data[0] == '[' {
		if err := json.Unmarshal(data, &utterances); err != nil {
			return nil, err
		}
		return utterances, nil
	}

	var wrapped struct {
		Utterances []core.Utterance `json:"utterances"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Utterances, nil
}

// loadJSON decodes a JSON file into v.
func loadJSON(path string, v any) error {
	data, err := readInput(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// writeJSON writes v as indented JSON to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
