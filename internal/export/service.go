package export

import (
	"context"
	"fmt"
)

type pdfRenderer func(ctx context.Context, html string) ([]byte, error)

// Service renders note exports.
type Service struct {
	pdf pdfRenderer
}

// NewService creates an export service backed by headless Chrome for PDF.
func NewService() *Service {
	return &Service{pdf: renderPDF}
}

// Export renders the note in the requested format.
func (s *Service) Export(ctx context.Context, note Note, format Format) (*Result, error) {
	html, err := RenderNoteHTML(note)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch format {
	case FormatHTML:
		return &Result{
			Data:     []byte(html),
			Filename: filename(note.Title, FormatHTML),
			MimeType: "text/html; charset=utf-8",
		}, nil
	case FormatPDF:
		data, err := s.pdf(ctx, html)
		if err != nil {
			return nil, err
		}
		return &Result{
			Data:     data,
			Filename: filename(note.Title, FormatPDF),
			MimeType: "application/pdf",
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
