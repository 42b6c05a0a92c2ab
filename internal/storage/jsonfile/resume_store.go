// Package jsonfile keeps résumé metadata in a single JSON document on disk,
// keyed by résumé ID.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/JakeFAU/coverletter/internal/letter"
)

// DefaultPath is the metadata file used when none is configured.
const DefaultPath = "cv_metadata.json"

// naiveLayout matches timestamps written without a zone offset, such as
// "2025-01-02T10:11:12.123456". They are read as local time.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// fileRecord is the on-disk shape of a record. Timestamps are kept as strings
// so entries with or without a zone offset both load.
type fileRecord struct {
	ID               string `json:"id"`
	OriginalFilename string `json:"original_filename"`
	BlobPath         string `json:"path"`
	BlobURI          string `json:"uri,omitempty"`
	ContentHash      string `json:"content_hash,omitempty"`
	UploadedAt       string `json:"upload_date"`
	LastUsedAt       string `json:"last_used"`
}

func toFile(r letter.ResumeRecord) fileRecord {
	return fileRecord{
		ID:               r.ID,
		OriginalFilename: r.OriginalFilename,
		BlobPath:         r.BlobPath,
		BlobURI:          r.BlobURI,
		ContentHash:      r.ContentHash,
		UploadedAt:       formatTimestamp(r.UploadedAt),
		LastUsedAt:       formatTimestamp(r.LastUsedAt),
	}
}

func (f fileRecord) record(id string) (letter.ResumeRecord, error) {
	uploaded, err := parseTimestamp(f.UploadedAt)
	if err != nil {
		return letter.ResumeRecord{}, fmt.Errorf("resume %q upload_date: %w", id, err)
	}
	lastUsed, err := parseTimestamp(f.LastUsedAt)
	if err != nil {
		return letter.ResumeRecord{}, fmt.Errorf("resume %q last_used: %w", id, err)
	}
	if f.ID == "" {
		f.ID = id
	}
	return letter.ResumeRecord{
		ID:               f.ID,
		OriginalFilename: f.OriginalFilename,
		BlobPath:         f.BlobPath,
		BlobURI:          f.BlobURI,
		ContentHash:      f.ContentHash,
		UploadedAt:       uploaded,
		LastUsedAt:       lastUsed,
	}, nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTimestamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(naiveLayout, v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return t, nil
}

// ResumeStore reads and rewrites the whole file on every operation. Writes go
// through a temporary file and a rename so readers never see a partial file.
type ResumeStore struct {
	mu   sync.Mutex
	path string
}

// New builds a ResumeStore backed by path.
func New(path string) (*ResumeStore, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create metadata directory: %w", err)
		}
	}
	return &ResumeStore{path: path}, nil
}

// SaveResume inserts or replaces a record.
func (s *ResumeStore) SaveResume(_ context.Context, record letter.ResumeRecord) error {
	if record.ID == "" {
		return fmt.Errorf("record id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return err
	}
	records[record.ID] = record
	return s.store(records)
}

// GetResume fetches a record by ID.
func (s *ResumeStore) GetResume(_ context.Context, id string) (letter.ResumeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return letter.ResumeRecord{}, err
	}
	record, ok := records[id]
	if !ok {
		return letter.ResumeRecord{}, fmt.Errorf("resume %q: %w", id, letter.ErrNotFound)
	}
	return record, nil
}

// ListResumes returns every record, most recently used first.
func (s *ResumeStore) ListResumes(_ context.Context) ([]letter.ResumeRecord, error) {
	s.mu.Lock()
	records, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]letter.ResumeRecord, 0, len(records))
	for _, record := range records {
		out = append(out, record)
	}
	letter.SortByLastUsed(out)
	return out, nil
}

// TouchResume sets the last-used timestamp of a record.
func (s *ResumeStore) TouchResume(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return err
	}
	record, ok := records[id]
	if !ok {
		return fmt.Errorf("resume %q: %w", id, letter.ErrNotFound)
	}
	record.LastUsedAt = at
	records[id] = record
	return s.store(records)
}

func (s *ResumeStore) load() (map[string]letter.ResumeRecord, error) {
	records := make(map[string]letter.ResumeRecord)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return records, nil
	}
	var raw map[string]fileRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", s.path, err)
	}
	for id, fr := range raw {
		record, err := fr.record(id)
		if err != nil {
			return nil, fmt.Errorf("decode metadata %s: %w", s.path, err)
		}
		records[id] = record
	}
	return records, nil
}

func (s *ResumeStore) store(records map[string]letter.ResumeRecord) error {
	raw := make(map[string]fileRecord, len(records))
	for id, record := range records {
		raw[id] = toFile(record)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".cv_metadata-*")
	if err != nil {
		return fmt.Errorf("create temp metadata: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close metadata: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace metadata: %w", err)
	}
	return nil
}
