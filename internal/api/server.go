package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/JakeFAU/coverletter/internal/config"
	"github.com/JakeFAU/coverletter/internal/letter"
	"github.com/JakeFAU/coverletter/internal/metrics"
	"github.com/JakeFAU/coverletter/internal/pipeline"
)

// LetterService generates letters and manages the résumé library.
type LetterService interface {
	Generate(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
	StoreResume(ctx context.Context, upload pipeline.Upload) (letter.ResumeRecord, error)
	ListResumes(ctx context.Context) ([]letter.ResumeRecord, error)
}

// PostingAcquirer retrieves job-posting text from a URL. It never fails.
type PostingAcquirer interface {
	Acquire(ctx context.Context, url string) letter.PostingContent
}

// LanguageDetector guesses the language code of a text.
type LanguageDetector interface {
	Detect(text string) (string, error)
}

// RateLimiter admits or rejects a request for a client key.
type RateLimiter interface {
	Allow(key string) bool
}

// Server wires HTTP handlers to the letter pipeline.
type Server struct {
	router    chi.Router
	letters   LetterService
	acquirer  PostingAcquirer
	detector  LanguageDetector
	validate  *validator.Validate
	cfg       config.Config
	logger    *zap.Logger
	maxUpload int64
}

// NewServer constructs a Server with middleware and routes. limiter may be
// nil, in which case rate limiting is disabled.
func NewServer(
	letters LetterService,
	acquirer PostingAcquirer,
	detector LanguageDetector,
	limiter RateLimiter,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		letters:   letters,
		acquirer:  acquirer,
		detector:  detector,
		validate:  validator.New(),
		cfg:       cfg,
		logger:    logger,
		maxUpload: cfg.MaxUploadBytes(),
	}
	if s.maxUpload <= 0 {
		s.maxUpload = 10 << 20
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(corsMiddleware(cfg.Server.CORSOrigins))
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	if d := cfg.RequestTimeout(); d > 0 {
		r.Use(timeoutMiddleware(d))
	}

	r.Get("/", s.root)
	r.Get("/health", s.health)
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Post("/detect-language", s.detectLanguage)
		r.Route("/cv", func(r chi.Router) {
			r.Post("/upload", s.uploadResume)
			r.Get("/list", s.listResumes)
		})
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(rateLimitMiddleware(limiter))
			}
			r.Post("/generate-letter", s.generateLetter)
			r.Post("/acquire-posting", s.acquirePosting)
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cover letter generator API"})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "message": "API is running"})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.letters.ListResumes(r.Context()); err != nil {
		s.logger.Warn("readiness check failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "résumé store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
