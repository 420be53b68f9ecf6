package services

import (
	"context"
	"errors"
	"fmt"

	"likeboard/app/models"
	"likeboard/app/repositories"
)

// CommentService handles business logic for comments
type CommentService struct {
	comments repositories.CommentRepository
	posts    repositories.PostRepository
}

// NewCommentService creates a new CommentService
func NewCommentService(comments repositories.CommentRepository, posts repositories.PostRepository) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
	}
}

// CreateComment adds a comment by author to postID
func (s *CommentService) CreateComment(ctx context.Context, author *models.User, postID int, content string) (*models.Comment, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, postError(err)
	}

	comment := &models.Comment{
		UserID:   author.ID,
		Nickname: author.Nickname,
		Content:  content,
	}
	if err := comment.SetPost(post); err != nil {
		return nil, err
	}
	comment.BeforeCreate()
	if err := comment.Validate(); err != nil {
		return nil, validationError(err)
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		// the post may have been deleted since it was read
		return nil, postError(err)
	}
	return comment, nil
}

// ListPostComments retrieves all comments for a post, oldest first
func (s *CommentService) ListPostComments(ctx context.Context, postID int) ([]*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, postError(err)
	}
	return s.comments.ListByPost(ctx, postID)
}

// UpdateComment changes the content of a comment written by callerID
func (s *CommentService) UpdateComment(ctx context.Context, callerID, commentID int, content string) (*models.Comment, error) {
	form := models.CommentRequest{Content: content}
	if err := form.Validate(); err != nil {
		return nil, validationError(err)
	}
	if _, err := s.ownedComment(ctx, callerID, commentID); err != nil {
		return nil, err
	}

	updated, err := s.comments.UpdateContent(ctx, commentID, content)
	if err != nil {
		return nil, commentError(err)
	}
	return updated, nil
}

// DeleteComment deletes a comment written by callerID
func (s *CommentService) DeleteComment(ctx context.Context, callerID, commentID int) error {
	if _, err := s.ownedComment(ctx, callerID, commentID); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return commentError(err)
	}
	return nil
}

func (s *CommentService) ownedComment(ctx context.Context, callerID, commentID int) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, commentError(err)
	}
	if !comment.IsOwnedBy(callerID) {
		return nil, fmt.Errorf("comment %d: %w", commentID, ErrForbidden)
	}
	return comment, nil
}

func commentError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrCommentNotFound
	}
	return err
}
