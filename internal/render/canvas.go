package render

import (
	"io"

	"github.com/go-pdf/fpdf"
)

// Canvas is the subset of a PDF page API the renderer drives.
type Canvas interface {
	AddPage()
	SetFont(family, style string, size float64)
	// Cell writes text across the full page width and moves to the next line.
	Cell(h float64, text, align string)
	Ln(h float64)
	StringWidth(s string) float64
	Output(w io.Writer) error
}

// PDFCanvas adapts fpdf to Canvas. Text is translated to the cp1252 encoding
// of the core fonts so accented characters survive.
type PDFCanvas struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// NewPDFCanvas creates an A4 portrait document measured in millimetres.
func NewPDFCanvas() *PDFCanvas {
	pdf := fpdf.New("P", "mm", "A4", "")
	return &PDFCanvas{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (c *PDFCanvas) AddPage() {
	c.pdf.AddPage()
}

func (c *PDFCanvas) SetFont(family, style string, size float64) {
	c.pdf.SetFont(family, style, size)
}

func (c *PDFCanvas) Cell(h float64, text, align string) {
	c.pdf.CellFormat(0, h, c.tr(text), "", 1, align, false, 0, "")
}

func (c *PDFCanvas) Ln(h float64) {
	c.pdf.Ln(h)
}

func (c *PDFCanvas) StringWidth(s string) float64 {
	return c.pdf.GetStringWidth(c.tr(s))
}

// Output finalizes the document. Errors recorded by earlier calls surface here.
func (c *PDFCanvas) Output(w io.Writer) error {
	return c.pdf.Output(w)
}
