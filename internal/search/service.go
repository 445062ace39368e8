package search

import (
	"context"
	"fmt"
	"log"
)

type noteIndex interface {
	Searcher
	IndexNote(NoteRecord) error
	IndexNotes([]NoteRecord) error
	DeleteNote(string) error
}

type recordSource interface {
	Searcher
	LoadAllRecords(ctx context.Context) ([]NoteRecord, error)
}

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	index    noteIndex
	fallback recordSource
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	s := &Service{}
	if meili != nil {
		s.index = meili
	}
	if pgfts != nil {
		s.fallback = pgfts
	}
	return s
}

func (s *Service) indexReady() bool {
	return s.index != nil && s.index.Healthy()
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS. A
// fallback failure is returned so callers can tell it apart from no matches.
func (s *Service) Search(q Query) (Response, error) {
	if s.indexReady() {
		results, total, err := s.index.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}, nil
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	if s.fallback == nil {
		return Response{Results: []Result{}, Total: 0, Query: q.Text}, nil
	}
	results, total, err := s.fallback.Search(q)
	if err != nil {
		return Response{}, fmt.Errorf("pgfts search: %w", err)
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}, nil
}

// IndexNote pushes a note to Meilisearch. Failures are logged; PG FTS stays
// authoritative.
func (s *Service) IndexNote(note NoteRecord) {
	if !s.indexReady() {
		return
	}
	if err := s.index.IndexNote(note); err != nil {
		log.Printf("search: index note %s: %v", note.ID, err)
	}
}

// DeleteNote removes a note from the search index.
func (s *Service) DeleteNote(id string) {
	if !s.indexReady() {
		return
	}
	if err := s.index.DeleteNote(id); err != nil {
		log.Printf("search: delete note %s: %v", id, err)
	}
}

// ReindexAllFromPG reindexes every note from PostgreSQL into Meilisearch and
// returns how many records were pushed.
func (s *Service) ReindexAllFromPG(ctx context.Context) (int, error) {
	if !s.indexReady() || s.fallback == nil {
		return 0, nil
	}
	records, err := s.fallback.LoadAllRecords(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.index.IndexNotes(records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
