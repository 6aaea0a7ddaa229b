// internal/report/load.go
// Package: report
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mwiater/lhmedian/internal/median"
	"github.com/mwiater/lhmedian/internal/metrics"
)

// ErrNoMedian is wrapped by an InputError when a file has no flagged record.
var ErrNoMedian = errors.New("no median record")

// InputError reports a structured export that cannot be used.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// LoadStructured reads a JSON export written by Exporter.
func LoadStructured(path string) ([]metrics.AnnotatedRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	records, err := DecodeStructured(b)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	return records, nil
}

// DecodeStructured parses and validates a JSON export. Unknown fields are
// rejected so a file from another tool fails loudly.
func DecodeStructured(b []byte) ([]metrics.AnnotatedRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()

	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	for i, obj := range raw {
		for _, key := range []string{"run", "fcp", "lcp", "tbt", "cls", "si", "score"} {
			if _, ok := obj[key]; !ok {
				return nil, fmt.Errorf("record %d: missing field %q", i, key)
			}
		}
	}

	var records []metrics.AnnotatedRecord
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	flagged := 0
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if r.IsMedian {
			flagged++
		}
	}
	if flagged > 1 {
		return nil, fmt.Errorf("%d records flagged as median, want at most 1", flagged)
	}
	return records, nil
}

// FindMedian returns the flagged record, if any.
func FindMedian(records []metrics.AnnotatedRecord) (metrics.AnnotatedRecord, bool) {
	return median.Flagged(records)
}

// LoadMedian loads path and returns its flagged record or an InputError
// wrapping ErrNoMedian.
func LoadMedian(path string) (metrics.AnnotatedRecord, error) {
	records, err := LoadStructured(path)
	if err != nil {
		return metrics.AnnotatedRecord{}, err
	}
	m, ok := FindMedian(records)
	if !ok {
		return metrics.AnnotatedRecord{}, &InputError{Path: path, Err: ErrNoMedian}
	}
	return m, nil
}
