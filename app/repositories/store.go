package repositories

import (
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// Store bundles the Badger-backed repositories over one database.
type Store struct {
	db       *badger.DB
	seqs     *sequences
	dbPath   string
	isTestDB bool

	Users    *BadgerUserRepository
	Posts    *BadgerPostRepository
	Likes    *BadgerLikeRepository
	Comments *BadgerCommentRepository
}

// Open opens (or creates) a Badger database at path. An empty path opens a
// throwaway database in a temporary directory that is removed on Close.
func Open(path string) (*Store, error) {
	isTest := false
	if path == "" {
		tempPath, err := os.MkdirTemp("", "likeboard_db_")
		if err != nil {
			return nil, fmt.Errorf("error creating temp dir: %w", err)
		}
		path = tempPath
		isTest = true
	}
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	store := NewStore(db)
	store.dbPath = path
	store.isTestDB = isTest
	return store, nil
}

// OpenInMemory opens a Badger database that lives only in memory.
func OpenInMemory() (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// NewStore wires the repositories over an already opened database.
func NewStore(db *badger.DB) *Store {
	seqs := newSequences(db)
	return &Store{
		db:       db,
		seqs:     seqs,
		Users:    &BadgerUserRepository{db: db, seqs: seqs},
		Posts:    &BadgerPostRepository{db: db, seqs: seqs},
		Likes:    &BadgerLikeRepository{db: db, seqs: seqs},
		Comments: &BadgerCommentRepository{db: db, seqs: seqs},
	}
}

// DB exposes the underlying database for maintenance commands.
func (s *Store) DB() *badger.DB {
	return s.db
}

// Close releases the ID sequences and closes the database.
func (s *Store) Close() error {
	err := errors.Join(s.seqs.release(), s.db.Close())
	if err != nil {
		return err
	}

	// Clean up test database
	if s.isTestDB {
		if err := os.RemoveAll(s.dbPath); err != nil {
			return fmt.Errorf("failed to cleanup test database: %w", err)
		}
	}
	return nil
}

// Clear drops every key in the database.
func (s *Store) Clear() error {
	if err := s.seqs.release(); err != nil {
		return err
	}
	return s.db.DropAll()
}

var (
	_ UserRepository    = (*BadgerUserRepository)(nil)
	_ PostRepository    = (*BadgerPostRepository)(nil)
	_ LikeRepository    = (*BadgerLikeRepository)(nil)
	_ CommentRepository = (*BadgerCommentRepository)(nil)
)
