package headless

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// JoinLines trims every line of rendered text, drops blank lines and joins
// the rest with single spaces.
func JoinLines(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, " ")
}

// DocumentText extracts the human-readable text of an HTML document,
// ignoring script and style content.
func DocumentText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}
