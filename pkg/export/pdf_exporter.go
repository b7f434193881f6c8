package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a basic tabular PDF. The built-in core
// fonts only cover cp1252, so Thai content needs a UTF-8 TTF registered
// via NewPDFExporterWithFont.
type PDFExporter struct {
	fontPath string
	fontName string
}

// NewPDFExporter constructs a PDF exporter using the built-in core fonts.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// NewPDFExporterWithFont constructs a PDF exporter that registers the TTF
// at fontPath as a UTF-8 font for all text. An empty path falls back to
// the core fonts.
func NewPDFExporterWithFont(fontPath string) *PDFExporter {
	return &PDFExporter{fontPath: fontPath, fontName: "custom"}
}

// Render creates a portrait PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	return e.render(data, title, "P", 190.0)
}

// RenderWide creates a landscape PDF for wide tables such as a weekly
// timetable grid.
func (e *PDFExporter) RenderWide(data Dataset, title string) ([]byte, error) {
	return e.render(data, title, "L", 277.0)
}

func (e *PDFExporter) render(data Dataset, title, orientation string, usableWidth float64) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	family := "Arial"
	if e.fontPath != "" {
		pdf.AddUTF8Font(e.fontName, "", e.fontPath)
		pdf.AddUTF8Font(e.fontName, "B", e.fontPath)
		family = e.fontName
	}

	if title != "" {
		pdf.SetFont(family, "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont(family, "B", 10)
	colWidth := usableWidth / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			value := row[header]
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
