// Package store persists the users collection as a single unit. Every call
// round-trips to the backing storage; callers are responsible for
// serializing read-modify-write sequences.
package store

import (
	"context"

	"github.com/alfagnish/users-api/internal/models"
)

// Store reads and writes the whole users collection.
type Store interface {
	// ReadAll returns the full collection in insertion order. The returned
	// slice is never nil.
	ReadAll(ctx context.Context) ([]models.User, error)
	// WriteAll replaces the full collection with users.
	WriteAll(ctx context.Context, users []models.User) error
	// Reset empties the collection, creating the backing storage if needed.
	Reset(ctx context.Context) error
}
