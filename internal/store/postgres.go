package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"tasknotes/api/internal/notes"
)

const pgUniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, user.ID, user.Username, user.Email, user.PasswordHash).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return User{}, ErrUserTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) UserExists(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE username=$1 OR LOWER(email)=LOWER($2))
	`, username, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUser(ctx, `WHERE LOWER(email)=LOWER($1)`, email)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	return s.getUser(ctx, `WHERE id=$1`, userID)
}

func (s *PostgresStore) getUser(ctx context.Context, where string, arg string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM users `+where, arg).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("read user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// PurgeExpiredRevocations drops denylist rows whose tokens would be rejected
// as expired anyway.
func (s *PostgresStore) PurgeExpiredRevocations(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM revoked_access_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("purge revoked tokens: %w", err)
	}
	return result.RowsAffected()
}

const noteColumns = `id, owner_id, title, content, status, subtasks, created_at, updated_at`

func (s *PostgresStore) ListNotes(ctx context.Context, ownerID string) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE owner_id=$1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	items := make([]Note, 0)
	for rows.Next() {
		item, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetNote(ctx context.Context, noteID, ownerID string) (Note, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE id=$1 AND owner_id=$2
	`, noteID, ownerID)
	return scanNote(row)
}

func (s *PostgresStore) InsertNote(ctx context.Context, note Note) (Note, error) {
	subtasks, err := encodeSubtasks(note.Subtasks)
	if err != nil {
		return Note{}, err
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO notes (id, owner_id, title, content, status, subtasks)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		RETURNING `+noteColumns,
		note.ID, note.OwnerID, note.Title, note.Content, string(note.Status), subtasks)
	return scanNote(row)
}

// ReplaceNote overwrites the mutable fields of the note matching both ids.
// ErrNotFound covers a missing note and a note owned by someone else.
func (s *PostgresStore) ReplaceNote(ctx context.Context, noteID, ownerID string, note Note) (Note, error) {
	subtasks, err := encodeSubtasks(note.Subtasks)
	if err != nil {
		return Note{}, err
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE notes
		SET title=$3, content=$4, status=$5, subtasks=$6::jsonb, updated_at=NOW()
		WHERE id=$1 AND owner_id=$2
		RETURNING `+noteColumns,
		noteID, ownerID, note.Title, note.Content, string(note.Status), subtasks)
	return scanNote(row)
}

func (s *PostgresStore) DeleteNote(ctx context.Context, noteID, ownerID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id=$1 AND owner_id=$2`, noteID, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	return affected > 0, nil
}

// BackfillMissingStatus sets notes imported without a status to pending.
func (s *PostgresStore) BackfillMissingStatus(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notes SET status='pending', updated_at=NOW()
		WHERE status IS NULL OR status=''
	`)
	if err != nil {
		return 0, fmt.Errorf("backfill status: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (Note, error) {
	var (
		item     Note
		status   sql.NullString
		subtasks []byte
	)
	err := row.Scan(&item.ID, &item.OwnerID, &item.Title, &item.Content, &status, &subtasks, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	if err != nil {
		return Note{}, fmt.Errorf("scan note: %w", err)
	}

	item.Status = notes.Status(status.String)
	if !item.Status.Valid() {
		item.Status = notes.StatusPending
	}
	item.Subtasks, err = decodeSubtasks(subtasks)
	if err != nil {
		return Note{}, fmt.Errorf("decode subtasks for note %s: %w", item.ID, err)
	}
	return item, nil
}

func encodeSubtasks(items []notes.Subtask) (string, error) {
	if items == nil {
		items = []notes.Subtask{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode subtasks: %w", err)
	}
	return string(encoded), nil
}

func decodeSubtasks(raw []byte) ([]notes.Subtask, error) {
	items := []notes.Subtask{}
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return notes.Normalize(items), nil
}
