package controllers

import (
	"errors"
	"net/http"
	"time"

	"likeboard/app/auth"
	"likeboard/app/models"
	"likeboard/app/services"
)

// UserController handles signup, login and logout
type UserController struct {
	userService  *services.UserService
	secureCookie bool
}

// NewUserController creates a new UserController. secureCookie marks the
// session cookie Secure.
func NewUserController(userService *services.UserService, secureCookie bool) *UserController {
	return &UserController{
		userService:  userService,
		secureCookie: secureCookie,
	}
}

// Signup registers a member
func (uc *UserController) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := uc.userService.Signup(r.Context(), req)
	if err != nil {
		// every rejected signup form is a plain bad request
		if errors.Is(err, services.ErrValidation) {
			sendError(w, http.StatusBadRequest, KindValidationFailed, err.Error())
			return
		}
		handleServiceError(w, r, err)
		return
	}

	sendJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "signup complete",
		"user":    user,
	})
}

// Login checks credentials and sets the session cookie
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, user, err := uc.userService.Login(r.Context(), req.Nickname, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    auth.CookieValue(token),
		Path:     "/",
		Expires:  time.Now().Add(auth.TokenTTL),
		MaxAge:   int(auth.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   uc.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"message": "login successful",
		"user":    user,
	})
}

// Me returns the logged-in member
func (uc *UserController) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := uc.userService.GetUser(r.Context(), caller.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// Logout clears the session cookie
func (uc *UserController) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   uc.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	sendMessage(w, http.StatusOK, "logged out")
}
