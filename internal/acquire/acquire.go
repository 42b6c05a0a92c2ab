// Package acquire turns a job-posting URL into posting text by walking an
// ordered chain of retrieval stages.
//
// The chain never fails: stage errors and unusable text are logged and the
// next stage is tried. When every stage is exhausted a fixed placeholder
// posting is returned instead.
package acquire

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/coverletter/internal/language"
	"github.com/JakeFAU/coverletter/internal/letter"
)

// Placeholder is the posting returned when no stage produced usable text.
var Placeholder = letter.PostingContent{
	Text:     "Offre d'emploi - contenu non disponible",
	Language: language.French,
}

// Outcome is the result of one stage attempt. Reason explains a rejection.
type Outcome struct {
	Text   string
	OK     bool
	Reason string
}

// Stage is one retrieval strategy.
type Stage interface {
	Name() string
	Attempt(ctx context.Context, url string) Outcome
}

// LanguageDetector assigns a language code to usable text.
type LanguageDetector interface {
	DetectOrDefault(text string) string
}

// Observer is notified of every stage outcome and of placeholder fallbacks.
type Observer interface {
	ObserveAttempt(stage string, ok bool)
	ObservePlaceholder()
}

// Option customizes an Acquirer.
type Option func(*Acquirer)

// WithObserver registers an outcome observer.
func WithObserver(o Observer) Option {
	return func(a *Acquirer) {
		a.observer = o
	}
}

// WithPlaceholder overrides the posting returned when every stage fails.
func WithPlaceholder(p letter.PostingContent) Option {
	return func(a *Acquirer) {
		a.placeholder = p
	}
}

// Acquirer runs stages in order until one yields usable text.
type Acquirer struct {
	stages      []Stage
	detector    LanguageDetector
	observer    Observer
	placeholder letter.PostingContent
	logger      *zap.Logger
}

// New builds an Acquirer over stages, tried in the given order.
func New(detector LanguageDetector, logger *zap.Logger, stages []Stage, opts ...Option) *Acquirer {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Acquirer{
		stages:      stages,
		detector:    detector,
		placeholder: Placeholder,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Acquire returns posting text and its language for url.
func (a *Acquirer) Acquire(ctx context.Context, url string) letter.PostingContent {
	for _, stage := range a.stages {
		outcome := a.attempt(ctx, stage, url)
		a.observeAttempt(stage.Name(), outcome.OK)
		if !outcome.OK {
			a.logger.Warn("acquisition stage failed",
				zap.String("stage", stage.Name()),
				zap.String("url", url),
				zap.String("reason", outcome.Reason),
			)
			continue
		}

		text := strings.TrimSpace(outcome.Text)
		lang := a.detector.DetectOrDefault(text)
		a.logger.Info("posting acquired",
			zap.String("stage", stage.Name()),
			zap.String("url", url),
			zap.Int("chars", len(text)),
			zap.String("language", lang),
		)
		return letter.PostingContent{Text: text, Language: lang}
	}

	a.logger.Warn("all acquisition stages exhausted, using placeholder", zap.String("url", url))
	if a.observer != nil {
		a.observer.ObservePlaceholder()
	}
	return a.placeholder
}

// attempt shields the chain from panicking stages.
func (a *Acquirer) attempt(ctx context.Context, stage Stage, url string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Reason: fmt.Sprintf("panic: %v", r)}
		}
	}()
	if err := ctx.Err(); err != nil {
		return Outcome{Reason: err.Error()}
	}
	return stage.Attempt(ctx, url)
}

func (a *Acquirer) observeAttempt(stage string, ok bool) {
	if a.observer != nil {
		a.observer.ObserveAttempt(stage, ok)
	}
}
