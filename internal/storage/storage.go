// Package storage persists groups, users, reports and the task catalog in
// Postgres via sqlx.
package storage

import (
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrGroupNotRegistered means the chat has no configuration row yet.
	ErrGroupNotRegistered = errors.New("storage: group not registered")
)

// Storage is the Postgres-backed repository.
type Storage struct {
	db *sqlx.DB
}

// New wraps an open database handle.
func New(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}
