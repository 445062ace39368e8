package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tasknotes/api/internal/export"
	"tasknotes/api/internal/metrics"
	"tasknotes/api/internal/notes"
	"tasknotes/api/internal/search"
	"tasknotes/api/internal/store"
	"tasknotes/api/internal/util"
)

// NoteInput is the create/update payload. Nil fields were omitted by the
// caller. Subtasks stays raw so any JSON shape can be normalized.
type NoteInput struct {
	Title    *string         `json:"title"`
	Content  *string         `json:"content"`
	Status   *string         `json:"status"`
	Subtasks json.RawMessage `json:"subtasks"`
}

func (in NoteInput) requestedStatus() string {
	if in.Status == nil {
		return ""
	}
	return *in.Status
}

// subtasksProvided treats an absent field and an explicit null alike.
func (in NoteInput) subtasksProvided() bool {
	raw := bytes.TrimSpace(in.Subtasks)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func (s *Service) ListNotes(ctx context.Context, session Session) ([]map[string]any, error) {
	items, err := s.store.ListNotes(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	out := make([]map[string]any, 0, len(items))
	for _, note := range items {
		out = append(out, notePayload(note))
	}
	return out, nil
}

func (s *Service) GetNote(ctx context.Context, session Session, noteID string) (map[string]any, error) {
	note, err := s.loadNote(ctx, session, noteID)
	if err != nil {
		return nil, err
	}
	return notePayload(note), nil
}

func (s *Service) CreateNote(ctx context.Context, session Session, input NoteInput) (map[string]any, error) {
	title, content := deref(input.Title), deref(input.Content)
	if err := notes.RequireText("title", title); err != nil {
		return nil, fromValidation(err)
	}
	if err := notes.RequireText("content", content); err != nil {
		return nil, fromValidation(err)
	}

	subtasks := []notes.Subtask{}
	if input.subtasksProvided() {
		subtasks = notes.NormalizeJSON(input.Subtasks)
	}
	status, err := notes.Resolve(subtasks, input.requestedStatus(), notes.StatusPending)
	if err != nil {
		return nil, fromValidation(err)
	}

	created, err := s.store.InsertNote(ctx, store.Note{
		ID:       util.NewID("note"),
		OwnerID:  session.UserID,
		Title:    strings.TrimSpace(title),
		Content:  strings.TrimSpace(content),
		Status:   status,
		Subtasks: subtasks,
	})
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	metrics.ObserveStatusDerivation(notes.Source(subtasks, input.requestedStatus()))
	s.indexNote(created)
	return notePayload(created), nil
}

// UpdateNote applies a partial update. Omitted fields keep their stored
// value; an explicit empty subtask list clears the checklist and hands status
// control back to the requested or stored value.
func (s *Service) UpdateNote(ctx context.Context, session Session, noteID string, input NoteInput) (map[string]any, error) {
	if input.Title != nil {
		if err := notes.RequireText("title", *input.Title); err != nil {
			return nil, fromValidation(err)
		}
	}
	if input.Content != nil {
		if err := notes.RequireText("content", *input.Content); err != nil {
			return nil, fromValidation(err)
		}
	}
	if _, err := notes.ParseStatus(input.requestedStatus()); err != nil {
		return nil, fromValidation(err)
	}

	current, err := s.loadNote(ctx, session, noteID)
	if err != nil {
		return nil, err
	}

	next := current
	if input.Title != nil {
		next.Title = strings.TrimSpace(*input.Title)
	}
	if input.Content != nil {
		next.Content = strings.TrimSpace(*input.Content)
	}
	if input.subtasksProvided() {
		next.Subtasks = notes.NormalizeJSON(input.Subtasks)
	}
	next.Status, err = notes.Resolve(next.Subtasks, input.requestedStatus(), current.Status)
	if err != nil {
		return nil, fromValidation(err)
	}

	updated, err := s.store.ReplaceNote(ctx, noteID, session.UserID, next)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("replace note: %w", err)
	}
	metrics.ObserveStatusDerivation(notes.Source(next.Subtasks, input.requestedStatus()))
	s.indexNote(updated)
	return notePayload(updated), nil
}

func (s *Service) DeleteNote(ctx context.Context, session Session, noteID string) error {
	deleted, err := s.store.DeleteNote(ctx, noteID, session.UserID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if !deleted {
		return errNoteNotFound
	}
	if s.search != nil {
		s.search.DeleteNote(noteID)
	}
	return nil
}

func (s *Service) SearchNotes(ctx context.Context, session Session, text, status string, limit int) (search.Response, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return search.Response{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "q is required", map[string]any{"field": "q"})
	}
	if _, err := notes.ParseStatus(status); err != nil {
		return search.Response{}, fromValidation(err)
	}
	if s.search == nil {
		return search.Response{}, domainError(http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "Search is not configured", nil)
	}
	resp, err := s.search.Search(search.Query{
		Text:    text,
		OwnerID: session.UserID,
		Status:  status,
		Limit:   limit,
	})
	if err != nil {
		return search.Response{}, fmt.Errorf("search notes: %w", err)
	}
	return resp, nil
}

func (s *Service) ExportNote(ctx context.Context, session Session, noteID, format string) (*export.Result, error) {
	parsed, err := export.ParseFormat(format)
	if err != nil {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "format must be html or pdf", map[string]any{"field": "format"})
	}
	note, err := s.loadNote(ctx, session, noteID)
	if err != nil {
		return nil, err
	}

	view := export.Note{
		Title:     note.Title,
		Content:   note.Content,
		Status:    string(note.Status),
		Progress:  notes.Progress(note.Status, note.Subtasks),
		Author:    session.UserName,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
	for _, st := range note.Subtasks {
		view.Subtasks = append(view.Subtasks, export.Subtask{Title: st.Title, Completed: st.Completed})
	}

	result, err := s.exporter.Export(ctx, view, parsed)
	if errors.Is(err, export.ErrPDFDependencyMissing) {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF export is not available on this server", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("export note: %w", err)
	}
	return result, nil
}

func (s *Service) loadNote(ctx context.Context, session Session, noteID string) (store.Note, error) {
	note, err := s.store.GetNote(ctx, noteID, session.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Note{}, errNoteNotFound
	}
	if err != nil {
		return store.Note{}, fmt.Errorf("get note: %w", err)
	}
	return note, nil
}

func (s *Service) indexNote(note store.Note) {
	if s.search == nil {
		return
	}
	s.search.IndexNote(search.NoteRecord{
		ID:        note.ID,
		OwnerID:   note.OwnerID,
		Title:     note.Title,
		Content:   note.Content,
		Status:    string(note.Status),
		CreatedAt: note.CreatedAt.UnixMilli(),
	})
}

func notePayload(note store.Note) map[string]any {
	subtasks := note.Subtasks
	if subtasks == nil {
		subtasks = []notes.Subtask{}
	}
	return map[string]any{
		"id":        note.ID,
		"title":     note.Title,
		"content":   note.Content,
		"user":      note.OwnerID,
		"status":    note.Status,
		"subtasks":  subtasks,
		"progress":  notes.Progress(note.Status, subtasks),
		"createdAt": note.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt": note.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
