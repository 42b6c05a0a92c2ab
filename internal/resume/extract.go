// Package resume extracts plain text from résumé PDF documents.
package resume

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractionError reports a résumé document that could not be opened or parsed.
// Corruption is not transient, so callers should not retry.
type ExtractionError struct {
	Source string
	Cause  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract résumé %s: %v", e.Source, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// pageSource is the page-level view of a document the extractor needs.
type pageSource interface {
	NumPage() int
	PageText(i int) (string, error)
}

type pdfPages struct {
	reader *pdf.Reader
	fonts  map[string]*pdf.Font
}

func (p *pdfPages) NumPage() int {
	return p.reader.NumPage()
}

func (p *pdfPages) PageText(i int) (string, error) {
	page := p.reader.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(p.fonts)
}

// ExtractFile opens the PDF at path and returns its text.
func ExtractFile(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", &ExtractionError{Source: path, Cause: err}
	}
	defer func() { _ = f.Close() }()
	return extract(path, &pdfPages{reader: reader, fonts: map[string]*pdf.Font{}})
}

// ExtractBytes parses an in-memory PDF and returns its text.
func ExtractBytes(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &ExtractionError{Source: name, Cause: fmt.Errorf("empty document")}
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Source: name, Cause: err}
	}
	return extract(name, &pdfPages{reader: reader, fonts: map[string]*pdf.Font{}})
}

// extract concatenates page texts in order and trims the result. The pdf
// library panics on some malformed content streams; that is reported as an
// ExtractionError as well.
func extract(source string, pages pageSource) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = &ExtractionError{Source: source, Cause: fmt.Errorf("parse document: %v", rec)}
		}
	}()

	var sb strings.Builder
	for i := 1; i <= pages.NumPage(); i++ {
		pageText, pageErr := pages.PageText(i)
		if pageErr != nil {
			return "", &ExtractionError{Source: source, Cause: fmt.Errorf("page %d: %w", i, pageErr)}
		}
		sb.WriteString(pageText)
	}
	return strings.TrimSpace(sb.String()), nil
}
