package export

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var noteTemplate = template.Must(template.New("note.html").Funcs(template.FuncMap{
	"formatDate": func(t time.Time, layout string) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(layout)
	},
}).ParseFS(templateFS, "templates/note.html"))

// TemplateData holds data for note template rendering.
type TemplateData struct {
	Note
	Paragraphs []string
}

// StatusLabel is the human form of the status value.
func (d TemplateData) StatusLabel() string {
	switch d.Status {
	case "in-progress":
		return "In progress"
	case "completed":
		return "Completed"
	default:
		return "Pending"
	}
}

// CompletedCount is the number of checked subtasks.
func (d TemplateData) CompletedCount() int {
	n := 0
	for _, st := range d.Subtasks {
		if st.Completed {
			n++
		}
	}
	return n
}

// RenderNoteHTML renders a note as a standalone HTML page. All note text is
// escaped by html/template.
func RenderNoteHTML(note Note) (string, error) {
	var buf bytes.Buffer
	data := TemplateData{Note: note, Paragraphs: paragraphs(note.Content)}
	if err := noteTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// paragraphs splits plain-text content on blank lines.
func paragraphs(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var out []string
	for _, block := range strings.Split(content, "\n\n") {
		if block = strings.TrimSpace(block); block != "" {
			out = append(out, block)
		}
	}
	return out
}
