package letter

import (
	"context"
	"io"
	"time"
)

// BlobStore writes raw résumé documents and reads them back by path.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
	GetObject(ctx context.Context, path string) ([]byte, error)
}

// ResumeStore persists résumé metadata records.
type ResumeStore interface {
	SaveResume(ctx context.Context, record ResumeRecord) error
	GetResume(ctx context.Context, id string) (ResumeRecord, error)
	// ListResumes returns all records, most recently used first.
	ListResumes(ctx context.Context) ([]ResumeRecord, error)
	TouchResume(ctx context.Context, id string, at time.Time) error
}

// Publisher pushes letter events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes content digests for stored documents.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces résumé IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
