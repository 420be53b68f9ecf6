package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"likeboard/app/models"
)

const commentColumns = `c.id, c.post_id, c.user_id, u.nickname, c.content, c.created_at, c.updated_at`

type CommentRepository struct {
	db *sql.DB
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var comment models.Comment
	err := row.Scan(
		&comment.ID, &comment.PostID, &comment.UserID, &comment.Nickname,
		&comment.Content, &comment.CreatedAt, &comment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	comment.CreatedAt = comment.CreatedAt.UTC()
	comment.UpdatedAt = comment.UpdatedAt.UTC()
	return &comment, nil
}

// Create inserts a comment. A missing post surfaces as
// repositories.ErrNotFound through the foreign key.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	comment.BeforeCreate()
	query := `
		INSERT INTO comments (post_id, user_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		comment.PostID, comment.UserID, comment.Content, comment.CreatedAt, comment.UpdatedAt,
	).Scan(&comment.ID)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", mapError(err))
	}
	return nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments c JOIN users u ON u.id = c.user_id WHERE c.id = $1`
	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return comment, nil
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID int) ([]*models.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	comments := []*models.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return comments, nil
}

func (r *CommentRepository) UpdateContent(ctx context.Context, id int, content string) (*models.Comment, error) {
	query := `
		UPDATE comments c
		SET content = $2, updated_at = $3
		FROM users u
		WHERE c.id = $1 AND u.id = c.user_id
		RETURNING ` + commentColumns
	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id, content, time.Now().UTC()))
	if err != nil {
		return nil, mapError(err)
	}
	return comment, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", mapError(err))
	}
	return expectRow(result)
}
