package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"likeboard/app/models"
)

type UserRepository struct {
	db *sql.DB
}

// Create inserts a user. The unique nickname constraint reports
// repositories.ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.BeforeCreate()
	query := `
		INSERT INTO users (nickname, password_hash, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, user.Nickname, user.PasswordHash, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", mapError(err))
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return r.get(ctx, `SELECT id, nickname, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByNickname(ctx context.Context, nickname string) (*models.User, error) {
	return r.get(ctx, `SELECT id, nickname, password_hash, created_at FROM users WHERE nickname = $1`, nickname)
}

func (r *UserRepository) get(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Nickname, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}
