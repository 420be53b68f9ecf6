package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"likeboard/app/auth"
	"likeboard/app/middleware"
	"likeboard/app/models"
	"likeboard/app/repositories"
	"likeboard/app/repositories/mock"
	"likeboard/app/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	store    *mock.Store
	issuer   *auth.Issuer
	router   *mux.Router
	users    *services.UserService
	posts    *services.PostService
	comments *services.CommentService
}

// asUser stands in for the auth gate: it admits the user named by the
// X-Test-User header.
func (e *testEnv) asUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if nickname := r.Header.Get("X-Test-User"); nickname != "" {
			user, err := e.store.Users.GetByNickname(r.Context(), nickname)
			if err == nil {
				r = r.WithContext(middleware.WithUser(r.Context(), user))
			}
		}
		next(w, r)
	}
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := mock.NewStore()
	issuer, err := auth.NewIssuer([]byte("controller-secret"))
	require.NoError(t, err)

	e := &testEnv{
		store:    store,
		issuer:   issuer,
		users:    services.NewUserService(store.Users, issuer, services.WithPasswordCost(bcrypt.MinCost)),
		posts:    services.NewPostService(store.Posts, store.Likes),
		comments: services.NewCommentService(store.Comments, store.Posts),
	}
	likes := services.NewLikeService(store.Posts, store.Likes, services.DefaultRetryPolicy())

	uc := NewUserController(e.users, false)
	pc := NewPostController(e.posts, likes)
	cc := NewCommentController(e.comments)

	router := mux.NewRouter()
	router.HandleFunc("/signup", uc.Signup).Methods("POST")
	router.HandleFunc("/login", uc.Login).Methods("POST")
	router.HandleFunc("/logout", uc.Logout).Methods("POST")
	router.HandleFunc("/users/me", e.asUser(uc.Me)).Methods("GET")
	router.HandleFunc("/posts", pc.Index).Methods("GET")
	router.HandleFunc("/posts", e.asUser(pc.Create)).Methods("POST")
	router.HandleFunc("/likeposts", e.asUser(pc.Liked)).Methods("GET")
	router.HandleFunc("/posts/{postId:[0-9]+}", pc.Show).Methods("GET")
	router.HandleFunc("/posts/{postId:[0-9]+}", e.asUser(pc.Update)).Methods("PUT")
	router.HandleFunc("/posts/{postId:[0-9]+}", e.asUser(pc.Delete)).Methods("DELETE")
	router.HandleFunc("/posts/{postId:[0-9]+}/like", e.asUser(pc.ToggleLike)).Methods("PATCH")
	router.HandleFunc("/posts/{postId:[0-9]+}/comments", cc.Index).Methods("GET")
	router.HandleFunc("/posts/{postId:[0-9]+}/comments", e.asUser(cc.Create)).Methods("POST")
	router.HandleFunc("/comments/{commentId:[0-9]+}", e.asUser(cc.Update)).Methods("PUT")
	router.HandleFunc("/comments/{commentId:[0-9]+}", e.asUser(cc.Delete)).Methods("DELETE")
	e.router = router
	return e
}

func (e *testEnv) user(t *testing.T, nickname string) *models.User {
	t.Helper()
	user, err := e.users.Signup(context.Background(), models.SignupRequest{Nickname: nickname, Password: "pw", Confirm: "pw"})
	require.NoError(t, err)
	return user
}

func (e *testEnv) post(t *testing.T, author *models.User, title string) *models.Post {
	t.Helper()
	post, err := e.posts.CreatePost(context.Background(), author, title, "content")
	require.NoError(t, err)
	return post
}

func (e *testEnv) do(method, path, body, nickname string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if nickname != "" {
		req.Header.Set("X-Test-User", nickname)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	decode(t, w, &body)
	return body.Error
}

func TestUserController(t *testing.T) {
	e := setupTestEnv(t)

	t.Run("signup", func(t *testing.T) {
		w := e.do("POST", "/signup", `{"nickname":"alice1","password":"pw","confirm":"pw"}`, "")
		assert.Equal(t, http.StatusCreated, w.Code)

		var body struct {
			User struct {
				UserID   int    `json:"userId"`
				Nickname string `json:"nickname"`
			} `json:"user"`
		}
		decode(t, w, &body)
		assert.NotZero(t, body.User.UserID)
		assert.Equal(t, "alice1", body.User.Nickname)
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("signup rejects", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{"short nickname", `{"nickname":"ab","password":"pw","confirm":"pw"}`},
			{"special characters", `{"nickname":"al!ce","password":"pw","confirm":"pw"}`},
			{"confirm mismatch", `{"nickname":"bobby","password":"pw","confirm":"px"}`},
			{"duplicate", `{"nickname":"alice1","password":"pw","confirm":"pw"}`},
			{"bad json", `{"nickname":`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := e.do("POST", "/signup", tt.body, "")
				assert.Equal(t, http.StatusBadRequest, w.Code)
			})
		}
	})

	t.Run("login sets cookie", func(t *testing.T) {
		w := e.do("POST", "/login", `{"nickname":"alice1","password":"pw"}`, "")
		require.Equal(t, http.StatusOK, w.Code)

		var cookie *http.Cookie
		for _, c := range w.Result().Cookies() {
			if c.Name == auth.CookieName {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		token, ok := auth.StripScheme(cookie.Value)
		require.True(t, ok, "cookie value %q", cookie.Value)
		userID, err := e.issuer.Verify(token)
		require.NoError(t, err)
		user, err := e.store.Users.GetByNickname(context.Background(), "alice1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, userID)
		assert.True(t, cookie.HttpOnly)
	})

	t.Run("me", func(t *testing.T) {
		w := e.do("GET", "/users/me", "", "alice1")
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			User struct {
				UserID   int    `json:"userId"`
				Nickname string `json:"nickname"`
			} `json:"user"`
		}
		decode(t, w, &body)
		assert.Equal(t, "alice1", body.User.Nickname)
		assert.NotContains(t, w.Body.String(), "password")

		w = e.do("GET", "/users/me", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("login failures", func(t *testing.T) {
		w := e.do("POST", "/login", `{"nickname":"alice1","password":"wrong"}`, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, w.Result().Cookies())

		w = e.do("POST", "/login", `{"nickname":"nobody","password":"pw"}`, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("logout clears cookie", func(t *testing.T) {
		w := e.do("POST", "/logout", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, auth.CookieName, cookies[0].Name)
		assert.True(t, cookies[0].MaxAge < 0)
	})
}

func TestPostController(t *testing.T) {
	e := setupTestEnv(t)
	owner := e.user(t, "owner")
	e.user(t, "other")

	var postID int
	t.Run("create post", func(t *testing.T) {
		w := e.do("POST", "/posts", `{"title":"Test Post","content":"This is a test post content"}`, "owner")
		require.Equal(t, http.StatusCreated, w.Code)

		var body struct {
			Post models.Post `json:"post"`
		}
		decode(t, w, &body)
		assert.NotZero(t, body.Post.ID)
		assert.Equal(t, owner.ID, body.Post.UserID)
		assert.Equal(t, "owner", body.Post.Nickname)
		postID = body.Post.ID
	})

	t.Run("create requires caller", func(t *testing.T) {
		w := e.do("POST", "/posts", `{"title":"t","content":"c"}`, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("create with empty fields", func(t *testing.T) {
		w := e.do("POST", "/posts", `{"title":"","content":"c"}`, "owner")
		assert.Equal(t, http.StatusPreconditionFailed, w.Code)
		assert.Equal(t, KindValidationFailed, errorKind(t, w))

		w = e.do("POST", "/posts", `{"title":"t","content":""}`, "owner")
		assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	})

	t.Run("list and show", func(t *testing.T) {
		w := e.do("GET", "/posts", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		var list struct {
			Posts []models.Post `json:"posts"`
		}
		decode(t, w, &list)
		require.Len(t, list.Posts, 1)

		w = e.do("GET", fmt.Sprintf("/posts/%d", postID), "", "")
		require.Equal(t, http.StatusOK, w.Code)
		var show struct {
			Post models.Post `json:"post"`
		}
		decode(t, w, &show)
		assert.Equal(t, "Test Post", show.Post.Title)

		w = e.do("GET", "/posts/999", "", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, KindPostNotFound, errorKind(t, w))
	})

	t.Run("update by stranger", func(t *testing.T) {
		w := e.do("PUT", fmt.Sprintf("/posts/%d", postID), `{"title":"x","content":"y"}`, "other")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, KindForbidden, errorKind(t, w))
	})

	t.Run("update by owner", func(t *testing.T) {
		w := e.do("PUT", fmt.Sprintf("/posts/%d", postID), `{"title":"Updated","content":"Updated content"}`, "owner")
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Post models.Post `json:"post"`
		}
		decode(t, w, &body)
		assert.Equal(t, "Updated", body.Post.Title)

		w = e.do("PUT", fmt.Sprintf("/posts/%d", postID), `{"title":"","content":"y"}`, "owner")
		assert.Equal(t, http.StatusPreconditionFailed, w.Code)

		w = e.do("PUT", "/posts/999", `{"title":"x","content":"y"}`, "owner")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := e.do("DELETE", fmt.Sprintf("/posts/%d", postID), "", "other")
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = e.do("DELETE", fmt.Sprintf("/posts/%d", postID), "", "owner")
		assert.Equal(t, http.StatusOK, w.Code)

		w = e.do("DELETE", fmt.Sprintf("/posts/%d", postID), "", "owner")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPostControllerLikes(t *testing.T) {
	e := setupTestEnv(t)
	owner := e.user(t, "owner")
	e.user(t, "fan1")
	post := e.post(t, owner, "likeable")
	path := fmt.Sprintf("/posts/%d/like", post.ID)

	type toggleBody struct {
		Like models.LikeToggle `json:"like"`
	}

	t.Run("like and unlike", func(t *testing.T) {
		w := e.do("PATCH", path, "", "fan1")
		require.Equal(t, http.StatusOK, w.Code)
		var body toggleBody
		decode(t, w, &body)
		assert.True(t, body.Like.Liked)
		assert.Equal(t, 1, body.Like.LikeCount)

		w = e.do("GET", "/likeposts", "", "fan1")
		require.Equal(t, http.StatusOK, w.Code)
		var liked struct {
			Posts []models.Post `json:"posts"`
		}
		decode(t, w, &liked)
		require.Len(t, liked.Posts, 1)
		assert.Equal(t, post.ID, liked.Posts[0].ID)

		w = e.do("PATCH", path, "", "fan1")
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &body)
		assert.False(t, body.Like.Liked)
		assert.Equal(t, 0, body.Like.LikeCount)
	})

	t.Run("self like", func(t *testing.T) {
		w := e.do("PATCH", path, "", "owner")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, KindSelfLikeForbidden, errorKind(t, w))
	})

	t.Run("missing post", func(t *testing.T) {
		w := e.do("PATCH", "/posts/999/like", "", "fan1")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("toggle failure", func(t *testing.T) {
		e.store.ToggleErr = errors.New("storage unavailable")
		defer func() { e.store.ToggleErr = nil }()

		w := e.do("PATCH", path, "", "fan1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, KindLikeToggleFailed, errorKind(t, w))

		stored, err := e.store.Posts.GetByID(context.Background(), post.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.LikeCount)
	})

	t.Run("liked posts need a caller", func(t *testing.T) {
		w := e.do("GET", "/likeposts", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCommentController(t *testing.T) {
	e := setupTestEnv(t)
	owner := e.user(t, "owner")
	e.user(t, "writer")
	post := e.post(t, owner, "discussed")
	base := fmt.Sprintf("/posts/%d/comments", post.ID)

	var commentID int
	t.Run("create", func(t *testing.T) {
		w := e.do("POST", base, `{"content":"first!"}`, "writer")
		require.Equal(t, http.StatusCreated, w.Code)
		var body struct {
			Comment models.Comment `json:"comment"`
		}
		decode(t, w, &body)
		assert.Equal(t, "writer", body.Comment.Nickname)
		commentID = body.Comment.ID

		w = e.do("POST", base, `{"content":""}`, "writer")
		assert.Equal(t, http.StatusPreconditionFailed, w.Code)

		w = e.do("POST", "/posts/999/comments", `{"content":"lost"}`, "writer")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("list", func(t *testing.T) {
		w := e.do("GET", base, "", "")
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Comments []models.Comment `json:"comments"`
		}
		decode(t, w, &body)
		require.Len(t, body.Comments, 1)
		assert.Equal(t, "first!", body.Comments[0].Content)
	})

	t.Run("author only", func(t *testing.T) {
		path := fmt.Sprintf("/comments/%d", commentID)
		w := e.do("PUT", path, `{"content":"edited"}`, "owner")
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = e.do("PUT", path, `{"content":"edited"}`, "writer")
		assert.Equal(t, http.StatusOK, w.Code)

		w = e.do("DELETE", path, "", "owner")
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = e.do("DELETE", path, "", "writer")
		assert.Equal(t, http.StatusOK, w.Code)

		w = e.do("DELETE", path, "", "writer")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, KindCommentNotFound, errorKind(t, w))
	})
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   string
	}{
		{&services.ValidationError{Field: "Title", Reason: "required"}, http.StatusPreconditionFailed, KindValidationFailed},
		{fmt.Errorf("post 1: %w", services.ErrSelfLike), http.StatusForbidden, KindSelfLikeForbidden},
		{fmt.Errorf("post 1: %w", services.ErrForbidden), http.StatusForbidden, KindForbidden},
		{services.ErrPostNotFound, http.StatusNotFound, KindPostNotFound},
		{services.ErrCommentNotFound, http.StatusNotFound, KindCommentNotFound},
		{services.ErrNotFound, http.StatusNotFound, KindNotFound},
		{services.ErrInvalidCredentials, http.StatusUnauthorized, KindUnauthorized},
		{services.ErrConflict, http.StatusBadRequest, KindConflict},
		{services.ErrToggleFailed, http.StatusBadRequest, KindLikeToggleFailed},
		{repositories.ErrTxnConflict, http.StatusInternalServerError, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			w := httptest.NewRecorder()
			handleServiceError(w, httptest.NewRequest("GET", "/api/x", nil), tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.kind, errorKind(t, w))
		})
	}
}
