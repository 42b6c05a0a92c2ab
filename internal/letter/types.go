package letter

import (
	"time"
)

// PostingContent is the raw job-posting text and its best-effort language code.
type PostingContent struct {
	Text     string `json:"text"`
	Language string `json:"langue"`
}

// ResumeRecord is the metadata persisted for each stored résumé document.
type ResumeRecord struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	BlobPath         string    `json:"path"`
	BlobURI          string    `json:"uri"`
	ContentHash      string    `json:"content_hash"`
	UploadedAt       time.Time `json:"upload_date"`
	LastUsedAt       time.Time `json:"last_used"`
}

// Profile is the personal block printed in the letter header and signature.
type Profile struct {
	Name  string `mapstructure:"name" json:"name"`
	Phone string `mapstructure:"phone" json:"phone"`
	Email string `mapstructure:"email" json:"email"`
}

// Event is published after a letter has been rendered. The letter itself is
// never stored.
type Event struct {
	ResumeID    string    `json:"resume_id,omitempty"`
	Language    string    `json:"language"`
	Bytes       int       `json:"bytes"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Event sources.
const (
	SourceAPI = "api"
	SourceCLI = "cli"
)

// EventTopic is the topic letter events are published on when none is configured.
const EventTopic = "letter.generated"
