package services

import (
	"context"
	"testing"

	"likeboard/app/models"
	"likeboard/app/repositories/mock"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *mock.Store
	posts    *PostService
	likes    *LikeService
	comments *CommentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := mock.NewStore()
	return &fixture{
		store:    store,
		posts:    NewPostService(store.Posts, store.Likes),
		likes:    NewLikeService(store.Posts, store.Likes, DefaultRetryPolicy()),
		comments: NewCommentService(store.Comments, store.Posts),
	}
}

func (f *fixture) user(t *testing.T, nickname string) *models.User {
	t.Helper()
	user := &models.User{Nickname: nickname, PasswordHash: []byte("hash")}
	require.NoError(t, f.store.Users.Create(context.Background(), user))
	return user
}

func (f *fixture) post(t *testing.T, author *models.User, title string) *models.Post {
	t.Helper()
	post, err := f.posts.CreatePost(context.Background(), author, title, "content of "+title)
	require.NoError(t, err)
	return post
}
