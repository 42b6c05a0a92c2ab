// Package pipeline turns a résumé and a job posting into a rendered cover
// letter: résumé resolution, language resolution, generation, rendering and
// event publication.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/coverletter/internal/letter"
	"github.com/JakeFAU/coverletter/internal/metrics"
	"github.com/JakeFAU/coverletter/internal/resume"
)

// LanguageAuto asks the service to detect the language from the posting.
const LanguageAuto = "auto"

// Generator produces letter prose.
type Generator interface {
	Generate(ctx context.Context, resumeText, postingText, code string) (string, error)
}

// Renderer lays prose out as a PDF document.
type Renderer interface {
	Render(prose, code string) ([]byte, error)
}

// LanguageDetector guesses a language code, defaulting to English.
type LanguageDetector interface {
	DetectOrDefault(text string) string
}

// ExtractFunc pulls the text out of a PDF document.
type ExtractFunc func(name string, data []byte) (string, error)

// Config controls Service behavior.
type Config struct {
	BlobPrefix string
	Topic      string
}

// Dependencies groups the collaborators of a Service. Publisher and Extract
// are optional.
type Dependencies struct {
	Blobs     letter.BlobStore
	Resumes   letter.ResumeStore
	Publisher letter.Publisher
	Hasher    letter.Hasher
	Clock     letter.Clock
	IDs       letter.IDGenerator
	Detector  LanguageDetector
	Generator Generator
	Renderer  Renderer
	Extract   ExtractFunc
}

// Upload is a résumé document received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

// Request describes one letter. Exactly one résumé source is used, in the
// order ResumeText, ResumeID, Upload.
type Request struct {
	ResumeText  string
	ResumeID    string
	Upload      *Upload
	PostingText string
	Language    string
	Source      string
}

// Result is a rendered letter.
type Result struct {
	PDF      []byte
	Language string
	ResumeID string
}

// Service executes the letter pipeline.
type Service struct {
	deps   Dependencies
	cfg    Config
	logger *zap.Logger
}

// New constructs a Service.
func New(deps Dependencies, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Extract == nil {
		deps.Extract = resume.ExtractBytes
	}
	if cfg.Topic == "" {
		cfg.Topic = letter.EventTopic
	}
	return &Service{deps: deps, cfg: cfg, logger: logger}
}

// Generate resolves the résumé and language, then produces the letter PDF.
func (s *Service) Generate(ctx context.Context, req Request) (res Result, err error) {
	source := req.Source
	if source == "" {
		source = letter.SourceAPI
	}
	defer func() { metrics.ObserveLetter(source, err == nil) }()

	resumeText, resumeID, err := s.resolveResume(ctx, req)
	if err != nil {
		return Result{}, err
	}

	code := s.ResolveLanguage(req.Language, req.PostingText)
	prose, err := s.deps.Generator.Generate(ctx, resumeText, req.PostingText, code)
	if err != nil {
		return Result{}, fmt.Errorf("generate letter: %w", err)
	}
	pdf, err := s.deps.Renderer.Render(prose, code)
	if err != nil {
		return Result{}, fmt.Errorf("render letter: %w", err)
	}

	s.publish(ctx, letter.Event{
		ResumeID:    resumeID,
		Language:    code,
		Bytes:       len(pdf),
		Source:      source,
		GeneratedAt: s.deps.Clock.Now(),
	})
	s.logger.Info("letter generated",
		zap.String("resume_id", resumeID),
		zap.String("language", code),
		zap.Int("bytes", len(pdf)),
	)
	return Result{PDF: pdf, Language: code, ResumeID: resumeID}, nil
}

// ResolveLanguage returns code unless it is empty or "auto", in which case
// the language of text is detected.
func (s *Service) ResolveLanguage(code, text string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == LanguageAuto {
		return s.deps.Detector.DetectOrDefault(text)
	}
	return code
}

// StoreResume validates and persists an uploaded résumé document.
func (s *Service) StoreResume(ctx context.Context, upload Upload) (rec letter.ResumeRecord, err error) {
	defer func() { metrics.ObserveResumeUpload(err == nil) }()

	if !strings.HasSuffix(strings.ToLower(upload.Filename), ".pdf") {
		return letter.ResumeRecord{}, letter.ErrNotPDF
	}
	id, err := s.deps.IDs.NewID()
	if err != nil {
		return letter.ResumeRecord{}, fmt.Errorf("generate résumé id: %w", err)
	}
	hash, err := s.deps.Hasher.Hash(upload.Data)
	if err != nil {
		return letter.ResumeRecord{}, fmt.Errorf("hash résumé: %w", err)
	}
	blobPath := s.buildBlobPath(id)
	uri, err := s.deps.Blobs.PutObject(ctx, blobPath, "application/pdf", bytes.NewReader(upload.Data))
	if err != nil {
		return letter.ResumeRecord{}, fmt.Errorf("store résumé document: %w", err)
	}
	now := s.deps.Clock.Now()
	rec = letter.ResumeRecord{
		ID:               id,
		OriginalFilename: upload.Filename,
		BlobPath:         blobPath,
		BlobURI:          uri,
		ContentHash:      hash,
		UploadedAt:       now,
		LastUsedAt:       now,
	}
	if err := s.deps.Resumes.SaveResume(ctx, rec); err != nil {
		return letter.ResumeRecord{}, fmt.Errorf("save résumé record: %w", err)
	}
	s.logger.Info("résumé stored", zap.String("resume_id", id), zap.String("filename", upload.Filename))
	return rec, nil
}

// LoadResume fetches a stored résumé document and marks it as used.
func (s *Service) LoadResume(ctx context.Context, id string) (letter.ResumeRecord, []byte, error) {
	rec, err := s.deps.Resumes.GetResume(ctx, id)
	if err != nil {
		return letter.ResumeRecord{}, nil, fmt.Errorf("load résumé %s: %w", id, err)
	}
	data, err := s.deps.Blobs.GetObject(ctx, rec.BlobPath)
	if err != nil {
		return letter.ResumeRecord{}, nil, fmt.Errorf("load résumé document %s: %w", id, err)
	}
	now := s.deps.Clock.Now()
	if err := s.deps.Resumes.TouchResume(ctx, id, now); err != nil {
		return letter.ResumeRecord{}, nil, fmt.Errorf("touch résumé %s: %w", id, err)
	}
	rec.LastUsedAt = now
	return rec, data, nil
}

// ListResumes returns stored résumés, most recently used first.
func (s *Service) ListResumes(ctx context.Context) ([]letter.ResumeRecord, error) {
	records, err := s.deps.Resumes.ListResumes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list résumés: %w", err)
	}
	return records, nil
}

func (s *Service) resolveResume(ctx context.Context, req Request) (string, string, error) {
	switch {
	case strings.TrimSpace(req.ResumeText) != "":
		return req.ResumeText, "", nil
	case req.ResumeID != "":
		rec, data, err := s.LoadResume(ctx, req.ResumeID)
		if err != nil {
			return "", "", err
		}
		text, err := s.deps.Extract(rec.OriginalFilename, data)
		if err != nil {
			return "", "", fmt.Errorf("extract résumé: %w", err)
		}
		return text, rec.ID, nil
	case req.Upload != nil:
		if !strings.HasSuffix(strings.ToLower(req.Upload.Filename), ".pdf") {
			return "", "", letter.ErrNotPDF
		}
		// Unreadable documents never enter the library.
		text, err := s.deps.Extract(req.Upload.Filename, req.Upload.Data)
		if err != nil {
			return "", "", fmt.Errorf("extract résumé: %w", err)
		}
		rec, err := s.StoreResume(ctx, *req.Upload)
		if err != nil {
			return "", "", err
		}
		return text, rec.ID, nil
	default:
		return "", "", letter.ErrNoResume
	}
}

func (s *Service) buildBlobPath(id string) string {
	prefix := strings.Trim(s.cfg.BlobPrefix, "/")
	if prefix == "" {
		return id + ".pdf"
	}
	return path.Join(prefix, id+".pdf")
}

func (s *Service) publish(ctx context.Context, event letter.Event) {
	if s.deps.Publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := s.deps.Publisher.Publish(pubCtx, s.cfg.Topic, event); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("letter event publish timed out", zap.String("topic", s.cfg.Topic))
			return
		}
		s.logger.Warn("letter event publish failed", zap.String("topic", s.cfg.Topic), zap.Error(err))
	}
}
