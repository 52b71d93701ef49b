package badger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/firgame/internal/storage"
	"github.com/mcoot/firgame/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
}

func TestStorageSuite(t *testing.T) {
	s := new(StorageSuite)
	s.NewStorage = func() storage.Storage {
		st, err := New(Config{InMemory: true})
		require.NoError(t, err)
		return st
	}
	suite.Run(t, s)
}

func TestRecordsSurviveReopen(t *testing.T) {
	cfg := Config{Path: t.TempDir()}
	ctx := t.Context()

	st, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, st.SaveUser(ctx, storagetest.SampleUser("alice", 100)))
	require.NoError(t, st.SaveGame(ctx, storagetest.SampleGame("game-1")))
	require.NoError(t, st.Close())

	st, err = New(cfg)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.SaveUser(ctx, storagetest.SampleUser("bob", 200)))

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "alice", string(users[0].ID))
	require.Equal(t, "bob", string(users[1].ID))

	game, err := st.GetGame(ctx, "game-1")
	require.NoError(t, err)
	require.Equal(t, storagetest.SampleGame("game-1"), game)
}
