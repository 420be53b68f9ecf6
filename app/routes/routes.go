package routes

import (
	"encoding/json"
	"net/http"

	"likeboard/app/auth"
	"likeboard/app/controllers"
	"likeboard/app/metrics"
	"likeboard/app/middleware"
	"likeboard/app/repositories"
	"likeboard/app/services"

	"github.com/gorilla/mux"
)

// Repositories are the storage backends the routes are served from.
type Repositories struct {
	Users    repositories.UserRepository
	Posts    repositories.PostRepository
	Likes    repositories.LikeRepository
	Comments repositories.CommentRepository
}

// Deps collects what SetupRoutes wires together.
type Deps struct {
	Repos        Repositories
	Tokens       *auth.Issuer
	Toggle       services.RetryPolicy
	SecureCookie bool
	// PasswordCost overrides the bcrypt cost when non-zero.
	PasswordCost int
}

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(deps Deps) *mux.Router {
	var userOpts []services.UserServiceOption
	if deps.PasswordCost != 0 {
		userOpts = append(userOpts, services.WithPasswordCost(deps.PasswordCost))
	}
	userService := services.NewUserService(deps.Repos.Users, deps.Tokens, userOpts...)
	postService := services.NewPostService(deps.Repos.Posts, deps.Repos.Likes)
	likeService := services.NewLikeService(deps.Repos.Posts, deps.Repos.Likes, deps.Toggle)
	commentService := services.NewCommentService(deps.Repos.Comments, deps.Repos.Posts)

	userController := controllers.NewUserController(userService, deps.SecureCookie)
	postController := controllers.NewPostController(postService, likeService)
	commentController := controllers.NewCommentController(commentService)

	authn := middleware.NewAuthenticator(deps.Tokens, deps.Repos.Users)
	protected := func(h http.HandlerFunc) http.Handler {
		return authn.RequireAuth(h)
	}

	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// mux serves these outside the middleware chain
	router.NotFoundHandler = middleware.Logger(http.HandlerFunc(notFound))
	router.MethodNotAllowedHandler = middleware.Logger(http.HandlerFunc(methodNotAllowed))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)

	// Account endpoints
	api.HandleFunc("/signup", userController.Signup).Methods("POST")
	api.HandleFunc("/login", userController.Login).Methods("POST")
	api.HandleFunc("/logout", userController.Logout).Methods("POST")
	api.Handle("/users/me", protected(userController.Me)).Methods("GET")

	// Posts API endpoints
	api.Handle("/likeposts", protected(postController.Liked)).Methods("GET")
	posts := api.PathPrefix("/posts").Subrouter()
	posts.HandleFunc("", postController.Index).Methods("GET")
	posts.Handle("", protected(postController.Create)).Methods("POST")
	posts.HandleFunc("/{postId:[0-9]+}", postController.Show).Methods("GET")
	posts.Handle("/{postId:[0-9]+}", protected(postController.Update)).Methods("PUT")
	posts.Handle("/{postId:[0-9]+}", protected(postController.Delete)).Methods("DELETE")
	posts.Handle("/{postId:[0-9]+}/like", protected(postController.ToggleLike)).Methods("PATCH")

	// Comments API endpoints
	posts.HandleFunc("/{postId:[0-9]+}/comments", commentController.Index).Methods("GET")
	posts.Handle("/{postId:[0-9]+}/comments", protected(commentController.Create)).Methods("POST")
	api.Handle("/comments/{commentId:[0-9]+}", protected(commentController.Update)).Methods("PUT")
	api.Handle("/comments/{commentId:[0-9]+}", protected(commentController.Delete)).Methods("DELETE")

	return router
}

func notFound(w http.ResponseWriter, r *http.Request) {
	routeError(w, http.StatusNotFound, controllers.KindNotFound, "no route for "+r.Method+" "+r.URL.Path)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	routeError(w, http.StatusMethodNotAllowed, controllers.KindMethodNotAllowed, r.Method+" is not allowed on "+r.URL.Path)
}

func routeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(controllers.ErrorResponse{
		Error:   kind,
		Message: message,
	})
}
