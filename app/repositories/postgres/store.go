// Package postgres implements the board repositories on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"likeboard/app/repositories"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgreSQL error codes the repositories translate.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// Store bundles the PostgreSQL repositories over one connection pool.
type Store struct {
	db *sql.DB

	Users    *UserRepository
	Posts    *PostRepository
	Likes    *LikeRepository
	Comments *CommentRepository
}

// Open connects to databaseURL, checks the connection and applies pending
// migrations.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return NewStore(db), nil
}

// Migrate applies the embedded migrations.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// NewStore wires the repositories over an open pool.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		Users:    &UserRepository{db: db},
		Posts:    &PostRepository{db: db},
		Likes:    &LikeRepository{db: db},
		Comments: &CommentRepository{db: db},
	}
}

// DB exposes the pool for maintenance commands.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Clear removes every row and restarts the ID sequences.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `TRUNCATE comments, likes, posts, users RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("failed to clear database: %w", err)
	}
	return nil
}

// mapError translates driver errors into repository errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repositories.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", repositories.ErrDuplicate, pqErr.Constraint)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", repositories.ErrNotFound, pqErr.Constraint)
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%w: %s", repositories.ErrTxnConflict, pqErr.Message)
		}
	}
	return err
}

// limitArg turns a non-positive limit into SQL NULL, which Postgres treats
// as no limit.
func limitArg(limit int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(limit), Valid: limit > 0}
}

func offsetArg(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

var (
	_ repositories.UserRepository    = (*UserRepository)(nil)
	_ repositories.PostRepository    = (*PostRepository)(nil)
	_ repositories.LikeRepository    = (*LikeRepository)(nil)
	_ repositories.CommentRepository = (*CommentRepository)(nil)
)
