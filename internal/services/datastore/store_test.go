package datastore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/firgame/internal/model"
	"github.com/mcoot/firgame/internal/storage/memory"
	"github.com/mcoot/firgame/internal/testutil"
)

type StoreSuite struct {
	suite.Suite
	backend *memory.Storage
	store   *Store
	ctx     context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.backend = memory.New()
	s.store = New(s.backend, DefaultConfig(), testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *StoreSuite) run() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.store.Run(s.ctx)
	}()
	return errCh
}

func (s *StoreSuite) closeAndWait(errCh <-chan error) {
	s.store.Close()
	select {
	case err := <-errCh:
		s.NoError(err)
	case <-time.After(2 * time.Second):
		s.FailNow("store did not stop")
	}
}

func user(id string) model.User {
	return model.User{ID: model.UserID(id), Rating: model.DefaultRating}
}

func (s *StoreSuite) TestConcurrentUpdatesAreAllRecorded() {
	errCh := s.run()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var u Update = UserUpdate{User: user(fmt.Sprintf("user-%d", i))}
			if i%2 == 1 {
				u = GameUpdate{Record: model.GameRecord{ID: model.GameID(fmt.Sprintf("game-%d", i))}}
			}
			s.NoError(s.store.Enqueue(s.ctx, u))
		}(i)
	}
	wg.Wait()
	s.closeAndWait(errCh)

	users, err := s.store.SnapshotUsers(s.ctx)
	s.Require().NoError(err)
	games, err := s.store.SnapshotGames(s.ctx)
	s.Require().NoError(err)
	s.Len(users, n/2)
	s.Len(games, n/2)
	s.Equal(int64(n), s.store.Applied())
}

func (s *StoreSuite) TestUpdatesAppliedInOrder() {
	for _, id := range []string{"a", "b", "c"} {
		s.Require().NoError(s.store.Enqueue(s.ctx, UserUpdate{User: user(id)}))
	}
	s.closeAndWait(s.run())

	users, err := s.store.SnapshotUsers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 3)
	s.Equal(model.UserID("a"), users[0].ID)
	s.Equal(model.UserID("b"), users[1].ID)
	s.Equal(model.UserID("c"), users[2].ID)
}

func (s *StoreSuite) TestEnqueueBlocksWhenFull() {
	s.store = New(s.backend, Config{QueueSize: 1}, testutil.NopLogger())
	s.Require().NoError(s.store.Enqueue(s.ctx, UserUpdate{User: user("first")}))

	ctx, cancel := context.WithTimeout(s.ctx, 50*time.Millisecond)
	defer cancel()
	err := s.store.Enqueue(ctx, UserUpdate{User: user("second")})

	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *StoreSuite) TestBlockedEnqueueProceedsOnceConsumerRuns() {
	s.store = New(s.backend, Config{QueueSize: 1}, testutil.NopLogger())
	s.Require().NoError(s.store.Enqueue(s.ctx, UserUpdate{User: user("first")}))

	done := make(chan error, 1)
	go func() {
		done <- s.store.Enqueue(s.ctx, UserUpdate{User: user("second")})
	}()

	errCh := s.run()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(2 * time.Second):
		s.FailNow("enqueue never unblocked")
	}
	s.closeAndWait(errCh)

	users, err := s.store.SnapshotUsers(s.ctx)
	s.Require().NoError(err)
	s.Len(users, 2)
}

func (s *StoreSuite) TestCloseReleasesBlockedEnqueue() {
	s.store = New(s.backend, Config{QueueSize: 1}, testutil.NopLogger())
	s.Require().NoError(s.store.Enqueue(s.ctx, UserUpdate{User: user("first")}))

	blocked := make(chan error, 1)
	go func() {
		blocked <- s.store.Enqueue(s.ctx, UserUpdate{User: user("second")})
	}()
	time.Sleep(20 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		s.store.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		s.FailNow("Close hung behind a blocked Enqueue")
	}

	select {
	case err := <-blocked:
		s.ErrorIs(err, model.ErrStoreClosed)
	case <-time.After(2 * time.Second):
		s.FailNow("blocked Enqueue was never released")
	}

	s.Require().NoError(s.store.Run(s.ctx))
	users, err := s.store.SnapshotUsers(s.ctx)
	s.Require().NoError(err)
	s.Len(users, 1)
}

func (s *StoreSuite) TestEnqueueAfterCloseFails() {
	errCh := s.run()
	s.closeAndWait(errCh)

	err := s.store.Enqueue(s.ctx, UserUpdate{User: user("late")})

	s.ErrorIs(err, model.ErrStoreClosed)
}

func (s *StoreSuite) TestCancelledRunStillDrains() {
	s.Require().NoError(s.store.Enqueue(s.ctx, UserUpdate{User: user("queued")}))

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	err := s.store.Run(ctx)

	s.ErrorIs(err, context.Canceled)
	found, err := s.store.FindUser(s.ctx, "queued")
	s.Require().NoError(err)
	s.Equal(model.UserID("queued"), found.ID)
}

func (s *StoreSuite) TestFindUserReturnsLatest() {
	older := user("alice")
	newer := user("alice")
	newer.Rating = 700
	s.Require().NoError(s.store.Enqueue(s.ctx, UserUpdate{User: older}))
	s.Require().NoError(s.store.Enqueue(s.ctx, UserUpdate{User: newer}))
	s.closeAndWait(s.run())

	found, err := s.store.FindUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(700, found.Rating)

	_, err = s.store.FindUser(s.ctx, "bob")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StoreSuite) TestBackendFailuresAreCounted() {
	s.store = New(failingBackend{s.backend}, DefaultConfig(), testutil.NopLogger())
	s.Require().NoError(s.store.Enqueue(s.ctx, UserUpdate{User: user("alice")}))
	s.Require().NoError(s.store.Enqueue(s.ctx, GameUpdate{Record: model.GameRecord{ID: "g"}}))
	s.closeAndWait(s.run())

	s.Equal(int64(1), s.store.Applied())
	s.Equal(int64(1), s.store.Failed())
}

// failingBackend rejects every game record
type failingBackend struct {
	*memory.Storage
}

func (failingBackend) SaveGame(ctx context.Context, record *model.GameRecord) error {
	return errors.New("disk full")
}
