// Package export renders tabular datasets into downloadable documents.
package export

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoColumns is returned when a dataset has no columns to render.
var ErrNoColumns = errors.New("dataset has no columns")

// Format names a supported output document type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat normalises a user supplied format name.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatCSV, FormatPDF, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// Dataset is a titled table; each row is keyed by column header.
type Dataset struct {
	Title   string
	Columns []string
	Rows    []map[string]string
}

// Record returns the row values in column order.
func (d Dataset) Record(row map[string]string) []string {
	out := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		out[i] = row[col]
	}
	return out
}

// Renderer turns a dataset into document bytes.
type Renderer interface {
	Render(Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// RendererFor returns the renderer registered for format.
func RendererFor(format Format) (Renderer, error) {
	switch format {
	case FormatCSV:
		return CSVRenderer{}, nil
	case FormatPDF:
		return PDFRenderer{}, nil
	case FormatXLSX:
		return XLSXRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
