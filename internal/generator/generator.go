// Package generator produces cover letter prose by prompting a local
// text-generation model.
package generator

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/coverletter/internal/metrics"
)

// Generator builds prompts and hands them to a Runner.
type Generator struct {
	runner Runner
	logger *zap.Logger
}

// New builds a Generator.
func New(runner Runner, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{runner: runner, logger: logger}
}

// Generate returns the trimmed letter prose written by the model. Failures are
// reported as *ProcessError; the output language is not validated.
func (g *Generator) Generate(ctx context.Context, resumeText, postingText, code string) (string, error) {
	prompt := BuildPrompt(resumeText, postingText, code)

	start := time.Now()
	out, err := g.runner.Run(ctx, prompt)
	elapsed := time.Since(start)
	if err == nil {
		out = strings.TrimSpace(out)
		if out == "" {
			err = &ProcessError{Command: "model", Err: ErrEmptyOutput}
		}
	}
	metrics.ObserveGeneration(err == nil, elapsed)
	if err != nil {
		g.logger.Error("letter generation failed",
			zap.String("language", code),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		var perr *ProcessError
		if !errors.As(err, &perr) {
			err = &ProcessError{Command: "model", Err: err}
		}
		return "", err
	}

	g.logger.Info("letter generated",
		zap.String("language", code),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("letter_chars", len(out)),
		zap.Duration("elapsed", elapsed),
	)
	return out, nil
}
