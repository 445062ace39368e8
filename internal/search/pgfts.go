package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true; without Postgres the API is down anyway.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search matches the generated notes.fts column with plainto_tsquery,
// restricted to the owner, newest first, with ts_headline snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}
	if strings.TrimSpace(q.OwnerID) == "" {
		return nil, 0, fmt.Errorf("search: owner is required")
	}

	where, args := pgWhere(q)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var total int
	if err := p.db.QueryRowContext(ctx, `SELECT count(*) FROM notes n WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT n.id, n.title,
			ts_headline('english', n.content, plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30,StartSel=<mark>,StopSel=</mark>') AS snippet,
			coalesce(n.status, 'pending')
		FROM notes n
		WHERE %s
		ORDER BY n.created_at DESC
		LIMIT %d`, where, limitOf(q))

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts search: %w", err)
	}
	defer rows.Close()

	results := make([]Result, 0)
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgfts iterate: %w", err)
	}
	return results, total, nil
}

func pgWhere(q Query) (string, []any) {
	where := "n.fts @@ plainto_tsquery('english', $1) AND n.owner_id = $2"
	args := []any{q.Text, q.OwnerID}
	if q.Status != "" {
		where += " AND n.status = $3"
		args = append(args, q.Status)
	}
	return where, args
}

// LoadAllRecords reads every note for a full Meilisearch reindex.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]NoteRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, owner_id, title, content, coalesce(status, 'pending'), created_at
		FROM notes
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("load notes for reindex: %w", err)
	}
	defer rows.Close()

	records := make([]NoteRecord, 0)
	for rows.Next() {
		var (
			r         NoteRecord
			createdAt time.Time
		)
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Title, &r.Content, &r.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan note for reindex: %w", err)
		}
		r.CreatedAt = createdAt.UnixMilli()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes for reindex: %w", err)
	}
	return records, nil
}
