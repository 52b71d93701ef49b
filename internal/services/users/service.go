package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/firgame/internal/dependencies/clock"
	"github.com/mcoot/firgame/internal/dependencies/random"
	"github.com/mcoot/firgame/internal/model"
	"github.com/mcoot/firgame/internal/services/datastore"
)

const guestAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"

// Config holds configuration for the users service
type Config struct {
	// BcryptCost is the work factor for password hashes
	BcryptCost int
	// GuestNameLength is the length of the random part of guest names
	GuestNameLength int
}

// DefaultConfig returns default users configuration
func DefaultConfig() Config {
	return Config{
		BcryptCost:      bcrypt.DefaultCost,
		GuestNameLength: 6,
	}
}

// Service manages user accounts and resolves who is behind a connection
type Service struct {
	store  datastore.StoreInterface
	clock  clock.Clock
	random random.Random
	cfg    Config
}

// New creates a new users Service
func New(store datastore.StoreInterface, clock clock.Clock, random random.Random, cfg Config) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultConfig().BcryptCost
	}
	if cfg.GuestNameLength <= 0 {
		cfg.GuestNameLength = DefaultConfig().GuestNameLength
	}
	return &Service{
		store:  store,
		clock:  clock,
		random: random,
		cfg:    cfg,
	}
}

// Register creates an account with the default rating. The record is
// written through the store queue, so it becomes visible once applied.
func (s *Service) Register(ctx context.Context, id, password string) (*model.User, error) {
	return s.Create(ctx, id, password, model.DefaultRating)
}

// Create adds an account with an explicit rating
func (s *Service) Create(ctx context.Context, id, password string, rating int) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" || password == "" {
		return nil, model.ErrInvalidUser
	}

	// Check-then-enqueue: two concurrent registrations of the same id can
	// both pass. The later record wins on lookup.
	_, err := s.store.FindUser(ctx, model.UserID(id))
	if err == nil {
		return nil, model.ErrUserExists
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := model.User{
		ID:           model.UserID(id),
		PasswordHash: string(hash),
		Rating:       rating,
		Code:         uuid.NewString(),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.store.Enqueue(ctx, datastore.UserUpdate{User: user}); err != nil {
		return nil, err
	}
	return &user, nil
}

// Get returns the latest record for id
func (s *Service) Get(ctx context.Context, id model.UserID) (*model.User, error) {
	return s.store.FindUser(ctx, id)
}

// List returns every user record
func (s *Service) List(ctx context.Context) ([]model.User, error) {
	return s.store.SnapshotUsers(ctx)
}

// Identify resolves the identity for a connecting client. An empty or
// unknown id gets a guest identity.
func (s *Service) Identify(ctx context.Context, id string) model.Identity {
	if id != "" {
		if user, err := s.store.FindUser(ctx, model.UserID(id)); err == nil {
			return model.IdentityFromUser(user)
		}
	}
	return s.Guest()
}

// Guest returns a fresh anonymous identity
func (s *Service) Guest() model.Identity {
	return model.Identity{
		DisplayName: "guest-" + s.random.String(s.cfg.GuestNameLength, guestAlphabet),
		Rating:      model.DefaultRating,
		Guest:       true,
	}
}
