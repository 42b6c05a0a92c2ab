// Package detector decides whether text returned by an acquisition stage is
// usable or whether the acquirer must fall through to the next stage.
package detector

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// JavaScriptRequiredMarker is the text static pages show in place of content
// rendered client-side.
const JavaScriptRequiredMarker = "Enable JavaScript"

// Heuristic is a length + forbidden-marker usability check.
type Heuristic struct {
	minLength int
	markers   []string
}

// Exceeding accepts text strictly longer than n characters that contains none
// of the markers.
func Exceeding(n int, markers ...string) *Heuristic {
	return AtLeast(n+1, markers...)
}

// AtLeast accepts text of n or more characters that contains none of the markers.
func AtLeast(n int, markers ...string) *Heuristic {
	return &Heuristic{minLength: n, markers: markers}
}

// Usable reports whether text passes the check. When it does not, the reason
// is returned for logging.
func (h *Heuristic) Usable(text string) (bool, string) {
	trimmed := strings.TrimSpace(text)
	if n := utf8.RuneCountInString(trimmed); n < h.minLength {
		return false, fmt.Sprintf("too short (%d chars, need %d)", n, h.minLength)
	}
	for _, marker := range h.markers {
		if marker != "" && strings.Contains(trimmed, marker) {
			return false, fmt.Sprintf("contains marker %q", marker)
		}
	}
	return true, ""
}
