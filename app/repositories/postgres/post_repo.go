package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"likeboard/app/models"
)

const postColumns = `p.id, p.user_id, u.nickname, p.title, p.content, p.like_count, p.created_at, p.updated_at`

type PostRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	err := row.Scan(
		&post.ID, &post.UserID, &post.Nickname, &post.Title, &post.Content,
		&post.LikeCount, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	post.CreatedAt = post.CreatedAt.UTC()
	post.UpdatedAt = post.UpdatedAt.UTC()
	return &post, nil
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	post.BeforeCreate()
	query := `
		INSERT INTO posts (user_id, title, content, like_count, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		post.UserID, post.Title, post.Content, post.CreatedAt, post.UpdatedAt,
	).Scan(&post.ID)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", mapError(err))
	}
	post.LikeCount = 0
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p JOIN users u ON u.id = p.user_id WHERE p.id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return post, nil
}

// List returns a page of posts, newest first. A non-positive limit returns
// every post after offset.
func (r *PostRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1 OFFSET $2
	`
	return r.query(ctx, query, limitArg(limit), offsetArg(offset))
}

func (r *PostRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	posts := []*models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return posts, nil
}

// UpdateContent rewrites title and content only; like_count is left to
// the toggle.
func (r *PostRepository) UpdateContent(ctx context.Context, id int, title, content string) (*models.Post, error) {
	query := `
		UPDATE posts p
		SET title = $2, content = $3, updated_at = $4
		FROM users u
		WHERE p.id = $1 AND u.id = p.user_id
		RETURNING ` + postColumns
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id, title, content, time.Now().UTC()))
	if err != nil {
		return nil, mapError(err)
	}
	return post, nil
}

// Delete removes a post; likes and comments go with it through ON DELETE
// CASCADE.
func (r *PostRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", mapError(err))
	}
	return expectRow(result)
}

func expectRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check result: %w", err)
	}
	if rowsAffected == 0 {
		return mapError(sql.ErrNoRows)
	}
	return nil
}
