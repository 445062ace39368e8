package export

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func sampleNote() Note {
	return Note{
		Title:    "Weekly groceries",
		Content:  "Milk and eggs.\n\nCheck the bakery too.",
		Status:   "in-progress",
		Progress: 50,
		Subtasks: []Subtask{
			{Title: "Milk", Completed: true},
			{Title: "Eggs", Completed: false},
		},
		Author:    "alice",
		CreatedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC),
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatHTML, false},
		{"html", FormatHTML, false},
		{" PDF ", FormatPDF, false},
		{"docx", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("ParseFormat(%q) error = %v, want ErrUnsupportedFormat", tt.input, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseFormat(%q) = %q, %v; want %q", tt.input, got, err, tt.want)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		title    string
		format   Format
		expected string
	}{
		{"Hello World", FormatHTML, "hello-world.html"},
		{"Buy milk & eggs!", FormatPDF, "buy-milk-eggs.pdf"},
		{"", FormatHTML, "note.html"},
		{"  --  ", FormatPDF, "note.pdf"},
		{strings.Repeat("a", 60), FormatHTML, strings.Repeat("a", 50) + ".html"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := filename(tt.title, tt.format); got != tt.expected {
				t.Errorf("filename(%q) = %q, want %q", tt.title, got, tt.expected)
			}
		})
	}
}

func TestDataURLEncodesSpaces(t *testing.T) {
	got := dataURL("<p>hello world #1</p>")
	want := "data:text/html;charset=utf-8,%3Cp%3Ehello%20world%20%231%3C%2Fp%3E"
	if got != want {
		t.Fatalf("dataURL() = %q, want %q", got, want)
	}
}

func TestRenderNoteHTML(t *testing.T) {
	html, err := RenderNoteHTML(sampleNote())
	if err != nil {
		t.Fatalf("RenderNoteHTML() error = %v", err)
	}

	for _, want := range []string{
		"Weekly groceries",
		"<p>Milk and eggs.</p>",
		"<p>Check the bakery too.</p>",
		"In progress",
		"Subtasks (1/2)",
		"width: 50%",
		"May 2, 2024 10:30",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestRenderNoteHTMLEscapesUserText(t *testing.T) {
	note := sampleNote()
	note.Title = "<script>alert(1)</script>"
	note.Subtasks = []Subtask{{Title: "<b>bold</b>"}}

	html, err := RenderNoteHTML(note)
	if err != nil {
		t.Fatalf("RenderNoteHTML() error = %v", err)
	}
	if strings.Contains(html, "<script>") || strings.Contains(html, "<b>bold</b>") {
		t.Error("user text should be escaped")
	}
	if !strings.Contains(html, "&lt;b&gt;bold&lt;/b&gt;") {
		t.Error("escaped subtask title missing")
	}
}

func TestRenderNoteHTMLWithoutSubtasks(t *testing.T) {
	note := sampleNote()
	note.Subtasks = nil
	note.Status = "pending"
	note.Progress = 0

	html, err := RenderNoteHTML(note)
	if err != nil {
		t.Fatalf("RenderNoteHTML() error = %v", err)
	}
	if strings.Contains(html, "Subtasks (") {
		t.Error("subtask section should be omitted")
	}
	if !strings.Contains(html, "Pending") {
		t.Error("status label missing")
	}
}

func TestExportHTML(t *testing.T) {
	svc := NewService()
	res, err := svc.Export(context.Background(), sampleNote(), FormatHTML)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Filename != "weekly-groceries.html" {
		t.Errorf("Filename = %q", res.Filename)
	}
	if !strings.HasPrefix(res.MimeType, "text/html") {
		t.Errorf("MimeType = %q", res.MimeType)
	}
	if !strings.Contains(string(res.Data), "Weekly groceries") {
		t.Error("export body missing title")
	}
}

func TestExportPDFUsesRenderer(t *testing.T) {
	var gotHTML string
	svc := &Service{pdf: func(_ context.Context, html string) ([]byte, error) {
		gotHTML = html
		return []byte("%PDF-1.4"), nil
	}}

	res, err := svc.Export(context.Background(), sampleNote(), FormatPDF)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.MimeType != "application/pdf" || res.Filename != "weekly-groceries.pdf" {
		t.Errorf("unexpected result %q %q", res.MimeType, res.Filename)
	}
	if !strings.Contains(gotHTML, "Weekly groceries") {
		t.Error("renderer did not receive note HTML")
	}
}

func TestExportPDFPropagatesDependencyError(t *testing.T) {
	svc := &Service{pdf: func(context.Context, string) ([]byte, error) {
		return nil, ErrPDFDependencyMissing
	}}

	_, err := svc.Export(context.Background(), sampleNote(), FormatPDF)
	if !errors.Is(err, ErrPDFDependencyMissing) {
		t.Fatalf("Export() error = %v, want ErrPDFDependencyMissing", err)
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	_, err := NewService().Export(context.Background(), sampleNote(), Format("docx"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Export() error = %v, want ErrUnsupportedFormat", err)
	}
}
