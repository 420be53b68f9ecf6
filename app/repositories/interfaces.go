package repositories

import (
	"context"

	"likeboard/app/models"
)

// UserRepository defines the interface for the credential store
type UserRepository interface {
	// Create stores a new user. Returns ErrDuplicate if the nickname is taken.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByNickname(ctx context.Context, nickname string) (*models.User, error)
}

// PostRepository defines the interface for post data access
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int) (*models.Post, error)
	// List returns posts newest first.
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	// UpdateContent rewrites title and content without touching LikeCount.
	UpdateContent(ctx context.Context, id int, title, content string) (*models.Post, error)
	// Delete removes the post together with its likes and comments.
	Delete(ctx context.Context, id int) error
}

// LikeRepository is the like ledger. Toggle is the only way likes are
// created or removed, and it moves the post's LikeCount in the same
// transaction.
type LikeRepository interface {
	// Toggle flips the like of userID on postID. It returns ErrNotFound if
	// the post does not exist, ErrSelfLike if userID owns the post and
	// ErrTxnConflict if a concurrent transaction won; nothing is written in
	// any of those cases.
	Toggle(ctx context.Context, userID, postID int) (*models.LikeToggle, error)
	Get(ctx context.Context, userID, postID int) (*models.Like, error)
	CountByPost(ctx context.Context, postID int) (int, error)
	// ListLikedPosts returns the posts userID liked, highest LikeCount first.
	ListLikedPosts(ctx context.Context, userID int) ([]*models.Post, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int) (*models.Comment, error)
	// ListByPost returns the comments of a post oldest first.
	ListByPost(ctx context.Context, postID int) ([]*models.Comment, error)
	UpdateContent(ctx context.Context, id int, content string) (*models.Comment, error)
	Delete(ctx context.Context, id int) error
}
