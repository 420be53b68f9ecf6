package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"likeboard/app/log"
	"likeboard/app/middleware"
	"likeboard/app/models"
	"likeboard/app/services"

	"github.com/gorilla/mux"
)

// Error kinds reported in the "error" field of a failed response.
const (
	KindBadRequest        = "BadRequest"
	KindValidationFailed  = "ValidationFailed"
	KindUnauthorized      = "Unauthorized"
	KindForbidden         = "Forbidden"
	KindSelfLikeForbidden = "SelfLikeForbidden"
	KindNotFound          = "NotFound"
	KindMethodNotAllowed  = "MethodNotAllowed"
	KindPostNotFound      = "PostNotFound"
	KindCommentNotFound   = "CommentNotFound"
	KindConflict          = "Conflict"
	KindLikeToggleFailed  = "LikeToggleFailed"
	KindInternal          = "InternalServerError"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, status int, kind, message string) {
	sendJSON(w, status, ErrorResponse{Error: kind, Message: message})
}

func sendMessage(w http.ResponseWriter, status int, message string) {
	sendJSON(w, status, map[string]string{"message": message})
}

// handleServiceError writes the response for an error returned by a service.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		sendError(w, http.StatusPreconditionFailed, KindValidationFailed, err.Error())
	case errors.Is(err, services.ErrSelfLike):
		sendError(w, http.StatusForbidden, KindSelfLikeForbidden, "you cannot like your own post")
	case errors.Is(err, services.ErrForbidden):
		sendError(w, http.StatusForbidden, KindForbidden, "you are not the author")
	case errors.Is(err, services.ErrPostNotFound):
		sendError(w, http.StatusNotFound, KindPostNotFound, "post does not exist")
	case errors.Is(err, services.ErrCommentNotFound):
		sendError(w, http.StatusNotFound, KindCommentNotFound, "comment does not exist")
	case errors.Is(err, services.ErrNotFound):
		sendError(w, http.StatusNotFound, KindNotFound, err.Error())
	case errors.Is(err, services.ErrUnauthorized), errors.Is(err, services.ErrInvalidCredentials):
		sendError(w, http.StatusUnauthorized, KindUnauthorized, err.Error())
	case errors.Is(err, services.ErrConflict):
		sendError(w, http.StatusBadRequest, KindConflict, err.Error())
	case errors.Is(err, services.ErrToggleFailed):
		sendError(w, http.StatusBadRequest, KindLikeToggleFailed, "like could not be changed, try again")
	default:
		logger := log.WithRequestID(middleware.RequestIDFromContext(r.Context()))
		logger.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		sendError(w, http.StatusInternalServerError, KindInternal, "internal server error")
	}
}

// decodeJSON reads the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		sendError(w, http.StatusBadRequest, KindBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// pathID parses the named route variable, answering 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		sendError(w, http.StatusBadRequest, KindBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// currentUser returns the caller admitted by the auth gate.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, KindUnauthorized, "login required")
		return nil, false
	}
	return user, true
}
