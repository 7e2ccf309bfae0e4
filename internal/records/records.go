package records

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"haaziri/internal/store"
)

// Storage keys shared with the kiosk page's local storage layout.
const (
	RecordsKey  = "attendance_records"
	SettingsKey = "admin_settings"
)

// Record is one attendance entry: a name paired with the photo captured for it.
// Records are never updated after creation.
type Record struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	PhotoData string `json:"photoData"`
}

type settings struct {
	SheetURL string `json:"sheetUrl"`
}

// Store owns the durable representation of records and the sync endpoint setting.
//
// Reads never fail: a missing key, a backend error, or undecodable JSON all
// read as "no data" and are only logged.
type Store struct {
	kv store.KV
	mu sync.Mutex // serializes read-modify-write within this process
}

// New wraps a key-value backend.
func New(kv store.KV) *Store {
	return &Store{kv: kv}
}

// List returns all persisted records, newest first.
func (s *Store) List(ctx context.Context) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.read(ctx)
	if err != nil {
		log.Printf("read records failed: %v", err)
		return []Record{}
	}
	return recs
}

// read returns the backend error but treats undecodable JSON as an empty list.
func (s *Store) read(ctx context.Context) ([]Record, error) {
	raw, ok, err := s.kv.Get(ctx, RecordsKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []Record{}, nil
	}
	var recs []Record
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		log.Printf("failed to parse records: %v", err)
		return []Record{}, nil
	}
	if recs == nil {
		return []Record{}, nil
	}
	return recs, nil
}

// Append prepends rec and rewrites the whole list. Duplicate ids are not checked.
// A failed read aborts the append so the stored list is never overwritten blind.
func (s *Store) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(ctx)
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}
	next := make([]Record, 0, len(existing)+1)
	next = append(next, rec)
	next = append(next, existing...)

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := s.kv.Set(ctx, RecordsKey, string(data)); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	return nil
}

// Clear deletes every record.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, RecordsKey); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	return nil
}

// SyncEndpoint returns the configured sheet URL, or "" when unset or unreadable.
func (s *Store) SyncEndpoint(ctx context.Context) string {
	raw, ok, err := s.kv.Get(ctx, SettingsKey)
	if err != nil {
		log.Printf("read settings failed: %v", err)
		return ""
	}
	if !ok || raw == "" {
		return ""
	}
	var st settings
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		log.Printf("failed to parse settings: %v", err)
		return ""
	}
	return st.SheetURL
}

// SetSyncEndpoint overwrites the sheet URL. The value is not validated.
func (s *Store) SetSyncEndpoint(ctx context.Context, url string) error {
	data, err := json.Marshal(settings{SheetURL: url})
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.kv.Set(ctx, SettingsKey, string(data)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
