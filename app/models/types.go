package models

import "time"

// User is a registered board member. PasswordHash never leaves the server.
type User struct {
	ID           int       `json:"userId"`
	Nickname     string    `json:"nickname" validate:"required,min=4,max=16,alphanum"`
	PasswordHash []byte    `json:"-" validate:"required"`
	CreatedAt    time.Time `json:"createdAt" validate:"required"`
}

// Post is a board post. LikeCount mirrors the number of Like records that
// reference the post and is only changed together with the ledger.
type Post struct {
	ID        int       `json:"postId" validate:"gte=0"`
	UserID    int       `json:"userId" validate:"required,gt=0"`
	Nickname  string    `json:"nickname"`
	Title     string    `json:"title" validate:"required,max=100"`
	Content   string    `json:"content" validate:"required"`
	LikeCount int       `json:"likeCount" validate:"gte=0"`
	CreatedAt time.Time `json:"createdAt" validate:"required"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Like records that UserID likes PostID. At most one exists per pair.
type Like struct {
	ID        int       `json:"likeId"`
	UserID    int       `json:"userId"`
	PostID    int       `json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikeToggle is the outcome of flipping a like.
type LikeToggle struct {
	PostID    int  `json:"postId"`
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

// Comment represents a comment on a post.
type Comment struct {
	ID        int       `json:"commentId" validate:"gte=0"`
	PostID    int       `json:"postId" validate:"required,gt=0"`
	UserID    int       `json:"userId" validate:"required,gt=0"`
	Nickname  string    `json:"nickname"`
	Content   string    `json:"content" validate:"required,min=1,max=500"`
	CreatedAt time.Time `json:"createdAt" validate:"required"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Nickname string `json:"nickname" validate:"required,min=4,max=16,alphanum"`
	Password string `json:"password" validate:"required"`
	Confirm  string `json:"confirm" validate:"required,eqfield=Password"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

// PostRequest is the body of POST/PUT /posts.
type PostRequest struct {
	Title   string `json:"title" validate:"required,max=100"`
	Content string `json:"content" validate:"required"`
}

// CommentRequest is the body of POST/PUT comment routes.
type CommentRequest struct {
	Content string `json:"content" validate:"required,max=500"`
}
