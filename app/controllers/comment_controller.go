package controllers

import (
	"net/http"

	"likeboard/app/models"
	"likeboard/app/services"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	commentService *services.CommentService
}

// NewCommentController creates a new CommentController
func NewCommentController(commentService *services.CommentService) *CommentController {
	return &CommentController{
		commentService: commentService,
	}
}

// Index lists the comments of a post, oldest first
func (cc *CommentController) Index(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}

	comments, err := cc.commentService.ListPostComments(r.Context(), postID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"comments": comments})
}

// Create adds a comment to a post
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}
	var req models.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := cc.commentService.CreateComment(r.Context(), user, postID, req.Content)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "comment created",
		"comment": comment,
	})
}

// Update edits a comment written by the caller
func (cc *CommentController) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "commentId")
	if !ok {
		return
	}
	var req models.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := cc.commentService.UpdateComment(r.Context(), user.ID, id, req.Content)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"message": "comment updated",
		"comment": comment,
	})
}

// Delete removes a comment written by the caller
func (cc *CommentController) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "commentId")
	if !ok {
		return
	}

	if err := cc.commentService.DeleteComment(r.Context(), user.ID, id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendMessage(w, http.StatusOK, "comment deleted")
}
