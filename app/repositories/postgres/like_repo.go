package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"likeboard/app/models"
	"likeboard/app/repositories"
)

// LikeRepository keeps the likes table and posts.like_count in step. Every
// toggle locks the post row first, so toggles on one post run one at a
// time while toggles on different posts do not block each other.
type LikeRepository struct {
	db *sql.DB
}

func (r *LikeRepository) Toggle(ctx context.Context, userID, postID int) (result *models.LikeToggle, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", mapError(err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var ownerID int
	err = tx.QueryRowContext(ctx, `SELECT user_id FROM posts WHERE id = $1 FOR UPDATE`, postID).Scan(&ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	if ownerID == userID {
		return nil, repositories.ErrSelfLike
	}

	removed, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE user_id = $1 AND post_id = $2`, userID, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete like: %w", mapError(err))
	}
	n, err := removed.RowsAffected()
	if err != nil {
		return nil, err
	}

	delta, liked := -1, false
	if n == 0 {
		inserted, err := tx.ExecContext(ctx, `
			INSERT INTO likes (user_id, post_id, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, post_id) DO NOTHING
		`, userID, postID, time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("failed to insert like: %w", mapError(err))
		}
		if n, err = inserted.RowsAffected(); err != nil {
			return nil, err
		}
		if n == 0 {
			// another transaction slipped a like in; let the caller retry
			return nil, fmt.Errorf("%w: like for post %d already present", repositories.ErrTxnConflict, postID)
		}
		delta, liked = 1, true
	}

	var count int
	err = tx.QueryRowContext(ctx,
		`UPDATE posts SET like_count = like_count + $2 WHERE id = $1 RETURNING like_count`,
		postID, delta,
	).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to update like count: %w", mapError(err))
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit toggle: %w", mapError(err))
	}
	return &models.LikeToggle{PostID: postID, Liked: liked, LikeCount: count}, nil
}

func (r *LikeRepository) Get(ctx context.Context, userID, postID int) (*models.Like, error) {
	var like models.Like
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, post_id, created_at FROM likes WHERE user_id = $1 AND post_id = $2`,
		userID, postID,
	).Scan(&like.ID, &like.UserID, &like.PostID, &like.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	like.CreatedAt = like.CreatedAt.UTC()
	return &like, nil
}

func (r *LikeRepository) CountByPost(ctx context.Context, postID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID).Scan(&count)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

// ListLikedPosts returns the posts userID liked, most liked first.
func (r *LikeRepository) ListLikedPosts(ctx context.Context, userID int) ([]*models.Post, error) {
	posts := &PostRepository{db: r.db}
	return posts.query(ctx, `
		SELECT `+postColumns+`
		FROM likes l
		JOIN posts p ON p.id = l.post_id
		JOIN users u ON u.id = p.user_id
		WHERE l.user_id = $1
		ORDER BY p.like_count DESC, p.id DESC
	`, userID)
}
