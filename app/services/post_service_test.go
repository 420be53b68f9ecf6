package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostServiceCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author")

	t.Run("valid post", func(t *testing.T) {
		post, err := f.posts.CreatePost(ctx, author, "Test Post", "This is a test post")
		require.NoError(t, err)
		assert.Greater(t, post.ID, 0)
		assert.Equal(t, author.ID, post.UserID)
		assert.Equal(t, "author", post.Nickname)
		assert.Equal(t, 0, post.LikeCount)
		assert.False(t, post.CreatedAt.IsZero())
	})

	tests := []struct {
		name    string
		title   string
		content string
		field   string
	}{
		{"empty title", "", "content", "Title"},
		{"empty content", "title", "", "Content"},
		{"title too long", strings.Repeat("a", 101), "content", "Title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.posts.CreatePost(ctx, author, tt.title, tt.content)
			assert.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestPostServiceGetAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author")
	for _, title := range []string{"one", "two", "three"} {
		f.post(t, author, title)
	}

	t.Run("get missing post", func(t *testing.T) {
		_, err := f.posts.GetPost(ctx, 999)
		assert.ErrorIs(t, err, ErrPostNotFound)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list everything", func(t *testing.T) {
		posts, err := f.posts.ListPosts(ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, "three", posts[0].Title)
	})

	t.Run("paged", func(t *testing.T) {
		posts, err := f.posts.ListPosts(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "one", posts[0].Title)
	})

	t.Run("huge page numbers", func(t *testing.T) {
		posts, err := f.posts.ListPosts(ctx, math.MaxInt-1, math.MaxInt)
		require.NoError(t, err)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)

		posts, err = f.posts.ListPosts(ctx, 1, math.MaxInt)
		require.NoError(t, err)
		assert.Len(t, posts, 3)
	})
}

func TestPostServiceOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	stranger := f.user(t, "stranger")
	post := f.post(t, owner, "mine")

	t.Run("stranger cannot update", func(t *testing.T) {
		_, err := f.posts.UpdatePost(ctx, stranger.ID, post.ID, "hijacked", "content")
		assert.ErrorIs(t, err, ErrForbidden)

		stored, err := f.posts.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "mine", stored.Title)
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		err := f.posts.DeletePost(ctx, stranger.ID, post.ID)
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = f.posts.GetPost(ctx, post.ID)
		assert.NoError(t, err)
	})

	t.Run("owner updates", func(t *testing.T) {
		updated, err := f.posts.UpdatePost(ctx, owner.ID, post.ID, "renamed", "new content")
		require.NoError(t, err)
		assert.Equal(t, "renamed", updated.Title)
		assert.Equal(t, "new content", updated.Content)
	})

	t.Run("update validates before lookup", func(t *testing.T) {
		_, err := f.posts.UpdatePost(ctx, owner.ID, 999, "", "content")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := f.posts.UpdatePost(ctx, owner.ID, 999, "t", "c")
		assert.ErrorIs(t, err, ErrPostNotFound)
		assert.ErrorIs(t, f.posts.DeletePost(ctx, owner.ID, 999), ErrPostNotFound)
	})

	t.Run("owner deletes", func(t *testing.T) {
		require.NoError(t, f.posts.DeletePost(ctx, owner.ID, post.ID))
		_, err := f.posts.GetPost(ctx, post.ID)
		assert.ErrorIs(t, err, ErrPostNotFound)
	})
}

func TestPostServiceListLikedPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	fan := f.user(t, "fan1")

	empty, err := f.posts.ListLikedPosts(ctx, fan.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	post := f.post(t, owner, "liked")
	_, err = f.likes.ToggleLike(ctx, fan.ID, post.ID)
	require.NoError(t, err)

	liked, err := f.posts.ListLikedPosts(ctx, fan.ID)
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, post.ID, liked[0].ID)
	assert.Equal(t, 1, liked[0].LikeCount)
}
