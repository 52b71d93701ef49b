package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/firgame/internal/model"
	"github.com/mcoot/firgame/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	users []model.User
	games []model.GameRecord
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, *user)
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.users) - 1; i >= 0; i-- {
		if s.users[i].ID == id {
			user := s.users[i]
			return &user, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (s *Storage) ListUsers(ctx context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users), nil
}

// Game record operations

func (s *Storage) SaveGame(ctx context.Context, record *model.GameRecord) error {
	copied := *record
	copied.Moves = slices.Clone(record.Moves)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.games = append(s.games, copied)
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.games {
		if s.games[i].ID == id {
			record := s.games[i]
			return &record, nil
		}
	}
	return nil, model.ErrGameNotFound
}

func (s *Storage) ListGames(ctx context.Context) ([]model.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.games), nil
}

func (s *Storage) Close() error {
	return nil
}
