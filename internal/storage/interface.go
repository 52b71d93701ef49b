package storage

import (
	"context"

	"github.com/mcoot/firgame/internal/model"
)

// Storage defines the interface for data persistence.
// Both tables are append-only: saving a user with an existing ID adds a newer
// record rather than replacing the old one.
type Storage interface {
	// User operations
	SaveUser(ctx context.Context, user *model.User) error
	// GetUser returns the most recent record for id
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	// ListUsers returns every user record in insertion order
	ListUsers(ctx context.Context) ([]model.User, error)

	// Game record operations
	SaveGame(ctx context.Context, record *model.GameRecord) error
	GetGame(ctx context.Context, id model.GameID) (*model.GameRecord, error)
	// ListGames returns every game record in insertion order
	ListGames(ctx context.Context) ([]model.GameRecord, error)

	// Close releases backend resources
	Close() error
}
