// Package storagetest holds the behaviour every storage backend must share.
// Backend packages embed Suite in their own test suite and set NewStorage.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/firgame/internal/model"
	"github.com/mcoot/firgame/internal/storage"
)

// Suite runs the shared storage contract against one backend
type Suite struct {
	suite.Suite

	// NewStorage returns an empty backend for each test
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStorage, "NewStorage must be set")
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	s.NoError(s.Storage.Close())
}

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// SampleUser builds a user with fixed timestamps
func SampleUser(id string, rating int) *model.User {
	return &model.User{
		ID:           model.UserID(id),
		PasswordHash: "hash-" + id,
		Rating:       rating,
		Code:         "code-" + id,
		CreatedAt:    epoch,
	}
}

// SampleGame builds a finished game record with fixed timestamps
func SampleGame(id string) *model.GameRecord {
	return &model.GameRecord{
		ID:          model.GameID(id),
		Black:       model.Identity{UserID: "alice", DisplayName: "alice", Rating: 100},
		White:       model.Identity{DisplayName: "guest-1", Rating: model.DefaultRating, Guest: true},
		TimeControl: model.DefaultTimeControl(),
		Moves: []model.Notation{
			{Side: model.SideBlack, X: 0, Y: 0},
			{Side: model.SideWhite, X: 1, Y: 0},
		},
		Result:    model.Resign(model.SideWhite),
		StartedAt: epoch,
		EndedAt:   epoch.Add(time.Minute),
	}
}

// User tests

func (s *Suite) TestSaveAndGetUser() {
	user := SampleUser("alice", 100)

	s.Require().NoError(s.Storage.SaveUser(s.Ctx, user))

	got, err := s.Storage.GetUser(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(*user, *got)
}

func (s *Suite) TestGetUserNotFound() {
	_, err := s.Storage.GetUser(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestUsersAreAppendOnly() {
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, SampleUser("alice", 100)))
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, SampleUser("bob", 200)))
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, SampleUser("alice", 150)))

	users, err := s.Storage.ListUsers(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 3)
	s.Equal(model.UserID("alice"), users[0].ID)
	s.Equal(model.UserID("bob"), users[1].ID)
	s.Equal(150, users[2].Rating)

	latest, err := s.Storage.GetUser(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(150, latest.Rating)
}

func (s *Suite) TestListUsersEmpty() {
	users, err := s.Storage.ListUsers(s.Ctx)
	s.Require().NoError(err)
	s.Empty(users)
}

func (s *Suite) TestListUsersIsASnapshot() {
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, SampleUser("alice", 100)))

	users, err := s.Storage.ListUsers(s.Ctx)
	s.Require().NoError(err)
	users[0].Rating = 9999

	got, err := s.Storage.GetUser(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(100, got.Rating)
}

// Game tests

func (s *Suite) TestSaveAndGetGame() {
	record := SampleGame("game-1")

	s.Require().NoError(s.Storage.SaveGame(s.Ctx, record))

	got, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(*record, *got)
}

func (s *Suite) TestGetGameNotFound() {
	_, err := s.Storage.GetGame(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestListGamesKeepsInsertionOrder() {
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.Storage.SaveGame(s.Ctx, SampleGame(fmt.Sprintf("game-%d", i))))
	}

	games, err := s.Storage.ListGames(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(games, 3)
	for i, g := range games {
		s.Equal(model.GameID(fmt.Sprintf("game-%d", i)), g.ID)
	}
}

func (s *Suite) TestSavedGameIsIndependentOfCaller() {
	record := SampleGame("game-1")
	s.Require().NoError(s.Storage.SaveGame(s.Ctx, record))

	record.Moves[0].X = 7
	record.Result = model.Draw()

	got, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(0, got.Moves[0].X)
	s.Equal(model.Resign(model.SideWhite), got.Result)
}

func (s *Suite) TestConcurrentSavesAreAllKept() {
	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.NoError(s.Storage.SaveUser(s.Ctx, SampleUser(fmt.Sprintf("user-%d", i), i)))
		}(i)
	}
	wg.Wait()

	users, err := s.Storage.ListUsers(s.Ctx)
	s.Require().NoError(err)
	s.Len(users, n)
}
