// Package export renders tabular data for download.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Supported formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// ErrUnsupportedFormat is returned for any format other than csv or pdf.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Table is a titled grid of cells. Rows shorter than Headers are padded.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Document is a rendered export ready to be served.
type Document struct {
	ContentType string
	Filename    string
	Body        []byte
}

// Render produces t in the requested format. name is the filename stem.
func Render(t Table, format, name string) (*Document, error) {
	switch strings.ToLower(format) {
	case "", FormatCSV:
		body, err := CSV(t)
		if err != nil {
			return nil, err
		}
		return &Document{ContentType: "text/csv; charset=utf-8", Filename: name + ".csv", Body: body}, nil
	case FormatPDF:
		body, err := PDF(t)
		if err != nil {
			return nil, err
		}
		return &Document{ContentType: "application/pdf", Filename: name + ".pdf", Body: body}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// CSV encodes t with a header row. The title is not written.
func CSV(t Table) ([]byte, error) {
	if len(t.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(t.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range t.Rows {
		if err := writer.Write(pad(row, len(t.Headers))); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// PDF lays t out as a single A4 table.
func PDF(t Table) ([]byte, error) {
	if len(t.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if t.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(t.Title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	width := 277.0 / float64(len(t.Headers))
	pdf.SetFont("Arial", "B", 9)
	for _, header := range t.Headers {
		pdf.CellFormat(width, 8, tr(header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range t.Rows {
		for _, cell := range pad(row, len(t.Headers)) {
			pdf.CellFormat(width, 7, tr(cell), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func pad(row []string, n int) []string {
	if len(row) >= n {
		return row[:n]
	}
	out := make([]string, n)
	copy(out, row)
	return out
}
