package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"likeboard/app/auth"
	"likeboard/app/log"
	"likeboard/app/metrics"
	"likeboard/app/models"
)

// TokenVerifier resolves a token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (int, error)
}

// UserLookup finds the account a token refers to.
type UserLookup interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// Authenticator guards routes that need a logged-in user.
type Authenticator struct {
	verifier TokenVerifier
	users    UserLookup
}

func NewAuthenticator(verifier TokenVerifier, users UserLookup) *Authenticator {
	return &Authenticator{verifier: verifier, users: users}
}

// RequireAuth admits a request only when it carries a valid token for an
// existing user, which is then available through UserFromContext. Every
// rejection gets the same 401 body and the wrapped handler never runs.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, reason, err := a.authenticate(r)
		if user == nil {
			metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
			logger := log.WithRequestID(RequestIDFromContext(r.Context()))
			event := logger.Warn().
				Str("reason", reason).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr)
			if err != nil {
				event = event.Err(err)
			}
			event.Msg("authentication failed")
			writeError(w, http.StatusUnauthorized, "Unauthorized", "login required")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (a *Authenticator) authenticate(r *http.Request) (*models.User, string, error) {
	raw := tokenFromRequest(r)
	if raw == "" {
		return nil, "missing_token", nil
	}

	token, ok := auth.StripScheme(raw)
	if !ok {
		return nil, "bad_scheme", nil
	}

	userID, err := a.verifier.Verify(token)
	if errors.Is(err, auth.ErrExpiredToken) {
		return nil, "expired_token", err
	}
	if err != nil {
		return nil, "invalid_token", err
	}

	user, err := a.users.GetByID(r.Context(), userID)
	if err != nil {
		return nil, "unknown_user", err
	}
	return user, "", nil
}

// tokenFromRequest reads the authorization cookie, falling back to the
// Authorization header.
func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(auth.CookieName); err == nil && cookie.Value != "" {
		if value, err := url.QueryUnescape(cookie.Value); err == nil {
			return value
		}
		return cookie.Value
	}
	return r.Header.Get("Authorization")
}

// WithUser attaches user to ctx.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user admitted by RequireAuth.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}
