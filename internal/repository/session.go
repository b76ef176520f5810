package repository

import (
	"context"

	"github.com/playsquare/gamesession-backend/internal/entity"
)

// SessionRepository owns the collection of active games. Every method hands
// back snapshots; live state is only touched inside Mutate, where access is
// serialized per session identifier.
type SessionRepository interface {
	// Create allocates a fresh identifier, never reused within the
	// process, and stores a new game under it.
	Create(ctx context.Context) (*entity.Game, error)

	// GetByID returns a snapshot or apperror.ErrSessionNotFound.
	GetByID(ctx context.Context, id string) (*entity.Game, error)

	// List returns snapshots of all known games in creation order.
	List(ctx context.Context) ([]*entity.Game, error)

	// Mutate applies fn to the live game under the session's exclusive
	// lock. Concurrent calls on the same id never interleave; calls on
	// different ids proceed independently. If fn returns an error, the
	// game must be left unchanged and the error is returned as-is.
	// On success the updated snapshot is returned.
	Mutate(ctx context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error)
}
