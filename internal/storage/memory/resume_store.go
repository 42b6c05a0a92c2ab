package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JakeFAU/coverletter/internal/letter"
)

// ResumeStore provides an in-memory metadata repository.
type ResumeStore struct {
	mu      sync.RWMutex
	resumes map[string]letter.ResumeRecord
}

// NewResumeStore constructs a ResumeStore.
func NewResumeStore() *ResumeStore {
	return &ResumeStore{
		resumes: make(map[string]letter.ResumeRecord),
	}
}

// SaveResume inserts or replaces a record.
func (s *ResumeStore) SaveResume(_ context.Context, record letter.ResumeRecord) error {
	if record.ID == "" {
		return fmt.Errorf("record id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumes[record.ID] = record
	return nil
}

// GetResume fetches a record by ID.
func (s *ResumeStore) GetResume(_ context.Context, id string) (letter.ResumeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.resumes[id]
	if !ok {
		return letter.ResumeRecord{}, fmt.Errorf("resume %q: %w", id, letter.ErrNotFound)
	}
	return record, nil
}

// ListResumes returns every record, most recently used first.
func (s *ResumeStore) ListResumes(_ context.Context) ([]letter.ResumeRecord, error) {
	s.mu.RLock()
	out := make([]letter.ResumeRecord, 0, len(s.resumes))
	for _, record := range s.resumes {
		out = append(out, record)
	}
	s.mu.RUnlock()
	letter.SortByLastUsed(out)
	return out, nil
}

// TouchResume sets the last-used timestamp of a record.
func (s *ResumeStore) TouchResume(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.resumes[id]
	if !ok {
		return fmt.Errorf("resume %q: %w", id, letter.ErrNotFound)
	}
	record.LastUsedAt = at
	s.resumes[id] = record
	return nil
}
