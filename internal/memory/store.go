package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// ErrUnknownStore is returned for an unsupported history.store value.
var ErrUnknownStore = errors.New("unknown history store")

// InMemoryStore keeps history in process memory.
type InMemoryStore struct {
	mu      sync.Mutex
	records []domain.MemoryRecord
}

// NewInMemoryStore creates an empty in-memory history store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Load returns a copy of the retained records, oldest first.
func (s *InMemoryStore) Load(ctx context.Context) ([]domain.MemoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.MemoryRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// AppendAndTrim appends rec and evicts the oldest records beyond limit.
func (s *InMemoryStore) AppendAndTrim(ctx context.Context, rec domain.MemoryRecord, limit int) ([]domain.MemoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = trim(append(s.records, rec), limit)

	out := make([]domain.MemoryRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// FileStore persists history as a JSON array, fully rewritten on every
// append.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the history file. A missing or unreadable file is an empty
// history.
func (s *FileStore) Load(ctx context.Context) ([]domain.MemoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(), nil
}

// AppendAndTrim appends rec and rewrites the file with the last limit records.
func (s *FileStore) AppendAndTrim(ctx context.Context, rec domain.MemoryRecord, limit int) ([]domain.MemoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := trim(append(s.read(), rec), limit)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode history: %w", err)
	}

	// Write to a sibling temp file and rename so readers never see a partial file.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".history-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create history file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write history file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to replace history file: %w", err)
	}
	return records, nil
}

func (s *FileStore) read() []domain.MemoryRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return []domain.MemoryRecord{}
	}
	var records []domain.MemoryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return []domain.MemoryRecord{}
	}
	return records
}

func trim(records []domain.MemoryRecord, limit int) []domain.MemoryRecord {
	if limit > 0 && len(records) > limit {
		out := make([]domain.MemoryRecord, limit)
		copy(out, records[len(records)-limit:])
		return out
	}
	return records
}
