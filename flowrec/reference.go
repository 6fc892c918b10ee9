package flowrec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
)

var (
	// ErrEmptyDataset is returned when the reference file holds no usable entries.
	ErrEmptyDataset = errors.New("reference dataset is empty")
	// ErrInvalidSample is returned for entries that are not a number or a non-empty list of numbers.
	ErrInvalidSample = errors.New("invalid reference sample")
)

// ReferenceTable maps canonical keys to their historical flow samples.
// It is immutable once built and safe for concurrent readers.
type ReferenceTable struct {
	samples map[string][]Flow
}

// NewReferenceTable builds a table from in-memory data. Keys are normalized
// the same way the extractor normalizes input.
func NewReferenceTable(data map[string][]float64) (*ReferenceTable, error) {
	t := &ReferenceTable{samples: make(map[string][]Flow, len(data))}
	// keys that normalize to the same form are merged in sorted source order
	sourceKeys := make([]string, 0, len(data))
	for key := range data {
		sourceKeys = append(sourceKeys, key)
	}
	sort.Strings(sourceKeys)
	for _, key := range sourceKeys {
		values := data[key]
		norm := NormalizeText(key)
		if norm == "" {
			continue
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("%w: %q has no samples", ErrInvalidSample, key)
		}
		flows := make([]Flow, 0, len(values))
		for _, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: %q contains %v", ErrInvalidSample, key, v)
			}
			flows = append(flows, FlowFromFloat(v))
		}
		t.samples[norm] = append(t.samples[norm], flows...)
	}
	if len(t.samples) == 0 {
		return nil, ErrEmptyDataset
	}
	return t, nil
}

// LoadReferenceTable reads the JSON dataset at path.
func LoadReferenceTable(path string) (*ReferenceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference dataset: %w", err)
	}
	defer f.Close()
	t, err := ReadReferenceTable(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return t, nil
}

// ReadReferenceTable decodes a JSON object whose values are either a number or
// a list of numbers.
func ReadReferenceTable(r io.Reader) (*ReferenceTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read reference dataset: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode reference dataset: %w", err)
	}
	parsed := make(map[string][]float64, len(raw))
	for key, msg := range raw {
		values, err := decodeSamples(msg)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSample, key, err)
		}
		parsed[key] = values
	}
	return NewReferenceTable(parsed)
}

func decodeSamples(msg json.RawMessage) ([]float64, error) {
	if bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
		return nil, errors.New("null sample")
	}
	var single float64
	if err := json.Unmarshal(msg, &single); err == nil {
		return []float64{single}, nil
	}
	var list []float64
	if err := json.Unmarshal(msg, &list); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.New("empty sample list")
	}
	return list, nil
}

// Samples returns a copy of the samples recorded for key.
func (t *ReferenceTable) Samples(key string) ([]Flow, bool) {
	s, ok := t.samples[key]
	if !ok {
		return nil, false
	}
	return append([]Flow(nil), s...), true
}

// Contains reports whether key has reference data.
func (t *ReferenceTable) Contains(key string) bool {
	_, ok := t.samples[key]
	return ok
}

// Len returns the number of keys.
func (t *ReferenceTable) Len() int {
	return len(t.samples)
}

// Keys returns the keys in sorted order.
func (t *ReferenceTable) Keys() []string {
	keys := make([]string, 0, len(t.samples))
	for k := range t.samples {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
