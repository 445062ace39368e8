package store

import (
	"errors"
	"time"

	"tasknotes/api/internal/notes"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrUserTaken = errors.New("username or email already registered")
)

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Note struct {
	ID        string
	OwnerID   string
	Title     string
	Content   string
	Status    notes.Status
	Subtasks  []notes.Subtask
	CreatedAt time.Time
	UpdatedAt time.Time
}
