// Package render lays generated letter prose out as a one-page PDF.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/JakeFAU/coverletter/internal/language"
	"github.com/JakeFAU/coverletter/internal/letter"
)

// MaxLineWidth is the widest a body line may render, in page units.
const MaxLineWidth = 180.0

const fontFamily = "Arial"

// Renderer turns prose into a letter document for a fixed profile.
type Renderer struct {
	profile   letter.Profile
	clock     letter.Clock
	newCanvas func() Canvas
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithCanvas replaces the PDF backend.
func WithCanvas(factory func() Canvas) Option {
	return func(r *Renderer) {
		r.newCanvas = factory
	}
}

// New builds a Renderer that signs letters as profile and dates them with clock.
func New(profile letter.Profile, clock letter.Clock, opts ...Option) *Renderer {
	r := &Renderer{
		profile:   profile,
		clock:     clock,
		newCanvas: func() Canvas { return NewPDFCanvas() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render produces the PDF for prose in the language identified by code.
// Paragraphs that repeat a salutation or closing are dropped because the
// layout supplies its own.
func (r *Renderer) Render(prose, code string) ([]byte, error) {
	c := r.newCanvas()
	c.AddPage()

	c.SetFont(fontFamily, "B", 14)
	c.Cell(10, r.profile.Name, "R")
	c.SetFont(fontFamily, "", 10)
	c.Cell(5, r.profile.Phone, "R")
	c.Cell(5, r.profile.Email, "R")
	c.Ln(10)

	c.SetFont(fontFamily, "", 10)
	c.Cell(5, FormatDate(r.clock.Now(), code), "L")
	c.Ln(10)

	c.SetFont(fontFamily, "", 12)
	c.Cell(8, language.Salutation(code), "")
	c.Ln(5)

	c.SetFont(fontFamily, "", 11)
	for _, paragraph := range Paragraphs(prose) {
		if IsFormula(paragraph) {
			continue
		}
		for _, line := range strings.Split(paragraph, "\n") {
			for _, wrapped := range Wrap(line, MaxLineWidth, c.StringWidth) {
				c.Cell(6, wrapped, "")
			}
		}
		c.Ln(3)
	}

	c.Ln(5)
	c.Cell(8, language.Closing(code), "")
	c.Ln(15)

	c.SetFont(fontFamily, "B", 12)
	c.Cell(8, r.profile.Name, "")

	var buf bytes.Buffer
	if err := c.Output(&buf); err != nil {
		return nil, fmt.Errorf("finalize pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Paragraphs splits prose on blank lines, trimming each paragraph and
// discarding empty ones.
func Paragraphs(prose string) []string {
	parts := strings.Split(strings.TrimSpace(prose), "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsFormula reports whether paragraph contains a salutation or closing in any
// supported language.
func IsFormula(paragraph string) bool {
	for _, phrase := range language.Salutations() {
		if strings.Contains(paragraph, phrase) {
			return true
		}
	}
	for _, phrase := range language.Closings() {
		if strings.Contains(paragraph, phrase) {
			return true
		}
	}
	lower := strings.ToLower(paragraph)
	return strings.Contains(lower, "sincerely") || strings.Contains(lower, "cordialement")
}

// Wrap greedily packs the words of line into lines no wider than maxWidth.
// A single word wider than maxWidth gets a line of its own.
func Wrap(line string, maxWidth float64, width func(string) float64) []string {
	words := strings.Fields(line)
	var (
		out     []string
		current string
	)
	for _, word := range words {
		if current == "" {
			current = word
			continue
		}
		candidate := current + " " + word
		if width(candidate) <= maxWidth {
			current = candidate
			continue
		}
		out = append(out, current)
		current = word
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}

// FormatDate renders t the way letters in code are dated.
func FormatDate(t time.Time, code string) string {
	if code == language.French {
		return fmt.Sprintf("%02d %s %d", t.Day(), language.FrenchMonth(t.Month()), t.Year())
	}
	return t.Format("January 02, 2006")
}
