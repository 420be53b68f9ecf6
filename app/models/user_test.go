package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupRequestValidate(t *testing.T) {
	tests := []struct {
		name      string
		req       SignupRequest
		wantField string
	}{
		{name: "valid", req: SignupRequest{Nickname: "alice01", Password: "pw", Confirm: "pw"}},
		{name: "nickname too short", req: SignupRequest{Nickname: "ab", Password: "pw", Confirm: "pw"}, wantField: "Nickname"},
		{name: "nickname too long", req: SignupRequest{Nickname: "abcdefghijklmnopq", Password: "pw", Confirm: "pw"}, wantField: "Nickname"},
		{name: "nickname with symbols", req: SignupRequest{Nickname: "al_ice", Password: "pw", Confirm: "pw"}, wantField: "Nickname"},
		{name: "missing password", req: SignupRequest{Nickname: "alice", Password: "", Confirm: ""}, wantField: "Password"},
		{name: "confirm mismatch", req: SignupRequest{Nickname: "alice", Password: "pw", Confirm: "px"}, wantField: "Confirm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var fe *FieldError
			require.True(t, errors.As(err, &fe), "expected FieldError, got %v", err)
			assert.Equal(t, tt.wantField, fe.Field)
		})
	}
}

func TestUserValidate(t *testing.T) {
	user := &User{Nickname: "alice", PasswordHash: []byte("hash")}
	assert.Error(t, user.Validate())

	user.BeforeCreate()
	assert.NoError(t, user.Validate())

	user.CreatedAt = time.Time{}
	user.Nickname = "a!"
	assert.Error(t, user.Validate())
}

func TestFormRequestValidate(t *testing.T) {
	t.Run("post form", func(t *testing.T) {
		assert.NoError(t, (&PostRequest{Title: "t", Content: "c"}).Validate())

		err := (&PostRequest{Content: "c"}).Validate()
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "Title", fe.Field)
		assert.Equal(t, "required", fe.Tag)

		err = (&PostRequest{Title: "t"}).Validate()
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "Content", fe.Field)

		err = (&PostRequest{Title: strings.Repeat("x", 101), Content: "c"}).Validate()
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "max", fe.Tag)
	})

	t.Run("comment form", func(t *testing.T) {
		assert.NoError(t, (&CommentRequest{Content: "nice"}).Validate())

		var fe *FieldError
		require.ErrorAs(t, (&CommentRequest{}).Validate(), &fe)
		assert.Equal(t, "Content", fe.Field)

		require.ErrorAs(t, (&CommentRequest{Content: strings.Repeat("x", 501)}).Validate(), &fe)
		assert.Equal(t, "max", fe.Tag)
	})
}
