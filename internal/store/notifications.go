package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// PendingQuote is the summary subset of a quote carried in a pending
// notification record for the companion agent.
type PendingQuote struct {
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Address   string          `json:"address"`
	Services  json.RawMessage `json:"services,omitempty"`
	TurfSqft  float64         `json:"turfSqft,omitempty"`
	MulchSqft float64         `json:"mulchSqft,omitempty"`
	MulchCuFt float64         `json:"mulchCuFt,omitempty"`
	Notes     string          `json:"notes,omitempty"`
}

// PendingCRM mirrors the CRM outcome into the pending record.
type PendingCRM struct {
	CustomerID string `json:"customerId,omitempty"`
	PropertyID string `json:"propertyId,omitempty"`
	Success    bool   `json:"success"`
}

// PendingNotification is one queued record for the companion automation
// agent. The timestamp doubles as the record's identity for mark-as-sent.
type PendingNotification struct {
	Timestamp    string       `json:"timestamp"`
	Quote        PendingQuote `json:"quote"`
	SnapshotPath string       `json:"snapshotPath,omitempty"`
	PhotoPaths   []string     `json:"photoPaths,omitempty"`
	Copilot      *PendingCRM  `json:"copilot,omitempty"`
	Notified     bool         `json:"notified"`
}

// NotificationStore is the flat JSON queue of pending notifications.
type NotificationStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewNotificationStore creates a store writing to the given file.
func NewNotificationStore(path string) *NotificationStore {
	return &NotificationStore{path: path, now: time.Now}
}

// Append queues a record, stamping it with the current time when the caller
// left the timestamp empty, and returns the stamped record.
func (s *NotificationStore) Append(rec PendingNotification) (PendingNotification, error) {
	if rec.Timestamp == "" {
		rec.Timestamp = s.now().UTC().Format(time.RFC3339Nano)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return rec, err
	}
	records = append(records, rec)

	if err := writeJSONFile(s.path, records); err != nil {
		return rec, fmt.Errorf("append pending notification: %w", err)
	}
	return rec, nil
}

// Pending returns the records not yet marked as notified.
func (s *NotificationStore) Pending() ([]PendingNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	pending := make([]PendingNotification, 0, len(records))
	for _, r := range records {
		if !r.Notified {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

// MarkNotified flips the notified flag on the record with the given
// timestamp. Unknown timestamps are a no-op, matching the original widget.
func (s *NotificationStore) MarkNotified(timestamp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return err
	}

	for i := range records {
		if records[i].Timestamp == timestamp {
			records[i].Notified = true
		}
	}
	return writeJSONFile(s.path, records)
}

func (s *NotificationStore) readAll() ([]PendingNotification, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []PendingNotification{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pending notifications: %w", err)
	}

	var records []PendingNotification
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse pending notifications: %w", err)
	}
	return records, nil
}
