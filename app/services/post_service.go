package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"likeboard/app/models"
	"likeboard/app/repositories"
)

// PostService handles business logic for board posts
type PostService struct {
	posts repositories.PostRepository
	likes repositories.LikeRepository
}

// NewPostService creates a new PostService
func NewPostService(posts repositories.PostRepository, likes repositories.LikeRepository) *PostService {
	return &PostService{
		posts: posts,
		likes: likes,
	}
}

// CreatePost creates a post authored by author
func (s *PostService) CreatePost(ctx context.Context, author *models.User, title, content string) (*models.Post, error) {
	post := &models.Post{
		UserID:   author.ID,
		Nickname: author.Nickname,
		Title:    title,
		Content:  content,
	}
	post.BeforeCreate()
	if err := post.Validate(); err != nil {
		return nil, validationError(err)
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}

// GetPost retrieves a post by ID
func (s *PostService) GetPost(ctx context.Context, id int) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, postError(err)
	}
	return post, nil
}

// ListPosts retrieves posts newest first. A perPage below one returns every
// post.
func (s *PostService) ListPosts(ctx context.Context, page, perPage int) ([]*models.Post, error) {
	if perPage < 1 {
		return s.posts.List(ctx, 0, 0)
	}
	if page < 1 {
		page = 1
	}
	// a page past what an int offset can address is simply empty
	if page-1 > math.MaxInt/perPage {
		return []*models.Post{}, nil
	}
	return s.posts.List(ctx, perPage, (page-1)*perPage)
}

// ListLikedPosts returns the posts userID likes, most liked first
func (s *PostService) ListLikedPosts(ctx context.Context, userID int) ([]*models.Post, error) {
	posts, err := s.likes.ListLikedPosts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

// UpdatePost changes title and content of a post owned by callerID
func (s *PostService) UpdatePost(ctx context.Context, callerID, postID int, title, content string) (*models.Post, error) {
	form := models.PostRequest{Title: title, Content: content}
	if err := form.Validate(); err != nil {
		return nil, validationError(err)
	}

	if _, err := s.ownedPost(ctx, callerID, postID); err != nil {
		return nil, err
	}

	post, err := s.posts.UpdateContent(ctx, postID, title, content)
	if err != nil {
		return nil, postError(err)
	}
	return post, nil
}

// DeletePost deletes a post owned by callerID together with its likes and
// comments
func (s *PostService) DeletePost(ctx context.Context, callerID, postID int) error {
	if _, err := s.ownedPost(ctx, callerID, postID); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return postError(err)
	}
	return nil
}

func (s *PostService) ownedPost(ctx context.Context, callerID, postID int) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, postError(err)
	}
	if !post.IsOwnedBy(callerID) {
		return nil, fmt.Errorf("post %d: %w", postID, ErrForbidden)
	}
	return post, nil
}

func postError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrPostNotFound
	}
	return err
}
