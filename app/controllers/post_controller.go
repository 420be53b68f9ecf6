package controllers

import (
	"net/http"
	"strconv"

	"likeboard/app/models"
	"likeboard/app/services"
)

// PostController handles HTTP requests for posts and likes
type PostController struct {
	postService *services.PostService
	likeService *services.LikeService
}

// NewPostController creates a new PostController
func NewPostController(postService *services.PostService, likeService *services.LikeService) *PostController {
	return &PostController{
		postService: postService,
		likeService: likeService,
	}
}

// Index lists posts newest first. Without ?per_page every post is returned.
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	perPage := 0
	if perPageStr := r.URL.Query().Get("per_page"); perPageStr != "" {
		if pp, err := strconv.Atoi(perPageStr); err == nil && pp > 0 {
			perPage = pp
		}
	}

	posts, err := pc.postService.ListPosts(r.Context(), page, perPage)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

// Show returns one post
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "postId")
	if !ok {
		return
	}

	post, err := pc.postService.GetPost(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"post": post})
}

// Liked lists the posts the caller likes, most liked first
func (pc *PostController) Liked(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	posts, err := pc.postService.ListLikedPosts(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

// Create handles creating a new post
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.PostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := pc.postService.CreatePost(r.Context(), user, req.Title, req.Content)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "post created",
		"post":    post,
	})
}

// Update handles editing an existing post
func (pc *PostController) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "postId")
	if !ok {
		return
	}
	var req models.PostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := pc.postService.UpdatePost(r.Context(), user.ID, id, req.Title, req.Content)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"message": "post updated",
		"post":    post,
	})
}

// Delete handles deleting a post
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "postId")
	if !ok {
		return
	}

	if err := pc.postService.DeletePost(r.Context(), user.ID, id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendMessage(w, http.StatusOK, "post deleted")
}

// ToggleLike likes or unlikes a post for the caller
func (pc *PostController) ToggleLike(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "postId")
	if !ok {
		return
	}

	result, err := pc.likeService.ToggleLike(r.Context(), user.ID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"message": "like updated",
		"like":    result,
	})
}
