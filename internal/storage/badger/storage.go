package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/mcoot/firgame/internal/model"
	"github.com/mcoot/firgame/internal/storage"
)

// Config holds embedded database settings
type Config struct {
	// Path is the data directory; ignored when InMemory is set
	Path string

	// InMemory keeps everything in RAM (tests, throwaway servers)
	InMemory bool
}

// DefaultConfig returns sensible defaults for the embedded store
func DefaultConfig() Config {
	return Config{
		Path:     "data/firgame",
		InMemory: false,
	}
}

const (
	usersPrefix = "users/"
	userPrefix  = "user/"
	gamesPrefix = "games/"
	gamePrefix  = "game/"

	// sequences lease this many ids at a time
	seqBandwidth = 100
)

// Storage is a Badger-backed implementation of the storage interface
type Storage struct {
	db      *badger.DB
	userSeq *badger.Sequence
	gameSeq *badger.Sequence
	ownsDB  bool
}

// New opens the database described by cfg
func New(cfg Config) (*Storage, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	s, err := NewWithDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// NewWithDB wraps an already open database; the caller keeps ownership of db
func NewWithDB(db *badger.DB) (*Storage, error) {
	userSeq, err := db.GetSequence([]byte("seq/users"), seqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("user sequence: %w", err)
	}
	gameSeq, err := db.GetSequence([]byte("seq/games"), seqBandwidth)
	if err != nil {
		_ = userSeq.Release()
		return nil, fmt.Errorf("game sequence: %w", err)
	}
	return &Storage{
		db:      db,
		userSeq: userSeq,
		gameSeq: gameSeq,
	}, nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close releases the sequences and, if New opened it, the database
func (s *Storage) Close() error {
	err := errors.Join(s.userSeq.Release(), s.gameSeq.Release())
	if s.ownsDB {
		err = errors.Join(err, s.db.Close())
	}
	return err
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	return s.appendRecord(s.userSeq, usersPrefix, userPrefix+string(user.ID), user)
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	var user model.User
	if err := s.get([]byte(userPrefix+string(id)), &user); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]model.User, error) {
	return scan[model.User](s.db, usersPrefix)
}

// Game record operations

func (s *Storage) SaveGame(ctx context.Context, record *model.GameRecord) error {
	return s.appendRecord(s.gameSeq, gamesPrefix, gamePrefix+string(record.ID), record)
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.GameRecord, error) {
	var record model.GameRecord
	if err := s.get([]byte(gamePrefix+string(id)), &record); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s *Storage) ListGames(ctx context.Context) ([]model.GameRecord, error) {
	return scan[model.GameRecord](s.db, gamesPrefix)
}

// appendRecord writes value under the next sequence key of listPrefix and
// under lookupKey, in a single transaction
func (s *Storage) appendRecord(seq *badger.Sequence, listPrefix, lookupKey string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	n, err := seq.Next()
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(seqKey(listPrefix, n), data); err != nil {
			return err
		}
		return txn.Set([]byte(lookupKey), data)
	})
}

func (s *Storage) get(key []byte, out any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}

// scan decodes every value under prefix inside one read transaction
func scan[T any](db *badger.DB, prefix string) ([]T, error) {
	var items []T
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var item T
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &item)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// seqKey zero-pads n so keys sort in insertion order
func seqKey(prefix string, n uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefix, n))
}
