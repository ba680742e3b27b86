// Package store persists all durable state of the intake widget: the
// append-only submission log, the pending-notification queue, and the saved
// image artifacts. Everything is flat files under one data directory; the
// log files are whole-file read-modify-write JSON arrays.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"quotewidget_backend/internal/quote"
)

// SubmissionRecord is one persisted quote: the normalized fields plus the
// derived artifact paths and any CRM identifiers obtained. Raw media never
// lands here.
type SubmissionRecord struct {
	quote.Quote

	SnapshotPath      string   `json:"snapshotPath,omitempty"`
	PhotoPaths        []string `json:"photoPaths,omitempty"`
	CopilotCustomerID string   `json:"copilotCustomerId,omitempty"`
	CopilotPropertyID string   `json:"copilotPropertyId,omitempty"`
}

// SubmissionStore is the append-only JSON log of received quotes.
//
// The file is read whole, mutated in memory, and written whole. Two processes
// appending concurrently can lose a record; the in-process mutex covers the
// expected single-process deployment and callers needing more must serialize
// externally.
type SubmissionStore struct {
	path string
	mu   sync.Mutex
}

// NewSubmissionStore creates a store writing to the given file.
func NewSubmissionStore(path string) *SubmissionStore {
	return &SubmissionStore{path: path}
}

// Append strips transient media from the record, appends it to the log, and
// returns the new total count. Write failures propagate: an unrecorded
// submission must fail the request.
func (s *SubmissionStore) Append(rec SubmissionRecord) (int, error) {
	// Invariant: large media fields are never persisted.
	rec.Snapshot = ""
	rec.Photos = nil

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return 0, err
	}
	records = append(records, rec)

	if err := writeJSONFile(s.path, records); err != nil {
		return 0, fmt.Errorf("append submission: %w", err)
	}
	return len(records), nil
}

// All returns every logged submission in order.
func (s *SubmissionStore) All() ([]SubmissionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

func (s *SubmissionStore) readAll() ([]SubmissionRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []SubmissionRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read submission log: %w", err)
	}

	var records []SubmissionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse submission log: %w", err)
	}
	return records, nil
}

func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
