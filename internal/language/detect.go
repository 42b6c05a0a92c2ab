package language

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
)

const (
	defaultMinLetters    = 10
	defaultMinConfidence = 0.2
)

// DetectionError reports input the detector cannot classify.
type DetectionError struct {
	Reason string
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("language detection failed: %s", e.Reason)
}

// Detector wraps whatlanggo's trigram classifier.
type Detector struct {
	minLetters    int
	minConfidence float64
}

// NewDetector creates a Detector that rejects text with fewer than ten letters
// and classifications below 0.2 confidence.
func NewDetector() *Detector {
	return &Detector{minLetters: defaultMinLetters, minConfidence: defaultMinConfidence}
}

// Detect returns the ISO 639-1 code of text.
func (d *Detector) Detect(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", &DetectionError{Reason: "empty text"}
	}
	if countLetters(trimmed) < d.minLetters {
		return "", &DetectionError{Reason: "not enough letters"}
	}
	info := whatlanggo.Detect(trimmed)
	code := info.Lang.Iso6391()
	if code == "" {
		return "", &DetectionError{Reason: "no language matched"}
	}
	if info.Confidence < d.minConfidence {
		return "", &DetectionError{Reason: fmt.Sprintf("low confidence %.2f for %q", info.Confidence, code)}
	}
	return code, nil
}

// DetectOrDefault returns the detected code, or DefaultCode when detection fails.
func (d *Detector) DetectOrDefault(text string) string {
	code, err := d.Detect(text)
	if err != nil {
		return DefaultCode
	}
	return code
}

func countLetters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
