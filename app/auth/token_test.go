package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestIssuer(t *testing.T) (*Issuer, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	issuer, err := NewIssuer([]byte("test-secret"), WithClock(clock.Now))
	require.NoError(t, err)
	return issuer, clock
}

func TestNewIssuer(t *testing.T) {
	_, err := NewIssuer(nil)
	assert.Error(t, err)

	_, err = NewIssuer([]byte("secret"))
	assert.NoError(t, err)
}

func TestIssueAndVerify(t *testing.T) {
	issuer, clock := newTestIssuer(t)

	token, err := issuer.Issue(42)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		userID, err := issuer.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, 42, userID)
	})

	t.Run("claims", func(t *testing.T) {
		var claims Claims
		_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
		require.NoError(t, err)
		assert.Equal(t, 42, claims.UserID)
		assert.Equal(t, "42", claims.Subject)
		assert.Equal(t, TokenTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	})

	t.Run("still valid just before expiry", func(t *testing.T) {
		saved := clock.now
		defer func() { clock.now = saved }()
		clock.now = saved.Add(TokenTTL - time.Second)

		_, err := issuer.Verify(token)
		assert.NoError(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		saved := clock.now
		defer func() { clock.now = saved }()
		clock.now = saved.Add(TokenTTL + time.Second)

		_, err := issuer.Verify(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestVerifyRejects(t *testing.T) {
	issuer, clock := newTestIssuer(t)
	token, err := issuer.Issue(7)
	require.NoError(t, err)

	t.Run("tampered signature", func(t *testing.T) {
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		sig := []byte(parts[2])
		if sig[0] == 'A' {
			sig[0] = 'B'
		} else {
			sig[0] = 'A'
		}
		_, err := issuer.Verify(parts[0] + "." + parts[1] + "." + string(sig))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewIssuer([]byte("other-secret"), WithClock(clock.Now))
		require.NoError(t, err)
		_, err = other.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour))},
			UserID:           7,
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = issuer.Verify(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		unbounded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 7}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = issuer.Verify(unbounded)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		claims := Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour))}}
		anonymous, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = issuer.Verify(anonymous)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestStripScheme(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
		ok    bool
	}{
		{"bearer token", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"no scheme", "abc.def.ghi", "", false},
		{"wrong scheme", "Basic abc", "", false},
		{"empty token", "Bearer ", "", false},
		{"empty value", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := StripScheme(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "Bearer xyz", CookieValue("xyz"))
}
