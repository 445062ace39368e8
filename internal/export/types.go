// Package export renders a single note as a standalone HTML page or a PDF.
package export

import (
	"errors"
	"strings"
	"time"
)

// Format is the export output format.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// ParseFormat maps a query value to a Format. An empty value selects HTML.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatHTML:
		return FormatHTML, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Note is the read-only view of a note handed to the renderer.
type Note struct {
	Title     string
	Content   string
	Status    string
	Progress  int
	Subtasks  []Subtask
	Author    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Subtask is one checklist row.
type Subtask struct {
	Title     string
	Completed bool
}

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrUnsupportedFormat is returned for formats other than html and pdf.
	ErrUnsupportedFormat = errors.New("export format not supported")
	// ErrPDFDependencyMissing indicates no Chromium binary is available.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)
