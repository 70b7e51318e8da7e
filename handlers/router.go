package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/JavierABADdelMolino/TASKLY-sub000/services"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Deps is everything the HTTP layer needs from the rest of the app.
type Deps struct {
	Auth        *services.AuthService
	Users       *services.UserService
	Boards      *services.BoardService
	Columns     *services.ColumnService
	Tasks       *services.TaskService
	Avatars     *services.AvatarStore
	Hub         *services.Hub
	Limiter     services.Limiter
	Ping        func(context.Context) error
	CORSOrigins []string
	Log         *zap.Logger
}

// NewRouter wires every route of the API.
func NewRouter(d Deps) http.Handler {
	log := d.Log
	authMW := NewAuthMiddleware(d.Auth, log)
	authHandler := NewAuthHandler(d.Auth, d.Users, log)
	boardHandler := NewBoardHandler(d.Boards, log)
	columnHandler := NewColumnHandler(d.Columns, log)
	taskHandler := NewTaskHandler(d.Tasks, log)
	userHandler := NewUserHandler(d.Users, d.Avatars, log)
	eventsHandler := NewEventsHandler(d.Hub, d.CORSOrigins, log)

	limited := func(name string, h http.HandlerFunc) http.HandlerFunc {
		return RateLimit(d.Limiter, name, log, h)
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if d.Ping != nil {
			if err := d.Ping(r.Context()); err != nil {
				log.Warn("health check failed", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	r.PathPrefix(services.AvatarURLPrefix).Handler(
		http.StripPrefix(services.AvatarURLPrefix, noDirListing(http.FileServer(http.Dir(d.Avatars.Dir())))),
	).Methods("GET", "HEAD")

	api := r.PathPrefix("/api").Subrouter()

	// Auth routes
	api.HandleFunc("/auth/register", limited("register", authHandler.Register)).Methods("POST")
	api.HandleFunc("/auth/login", limited("login", authHandler.Login)).Methods("POST")
	api.HandleFunc("/auth/google", limited("google", authHandler.Google)).Methods("POST")
	api.HandleFunc("/auth/forgot-password", limited("forgot-password", authHandler.ForgotPassword)).Methods("POST")
	api.HandleFunc("/auth/reset-password/{token}", authHandler.ResetPassword).Methods("POST")

	protected := api.NewRoute().Subrouter()
	protected.Use(authMW.Auth)

	protected.HandleFunc("/auth/me", authHandler.Me).Methods("GET")

	// Boards
	protected.HandleFunc("/boards", boardHandler.List).Methods("GET")
	protected.HandleFunc("/boards", boardHandler.Create).Methods("POST")
	protected.HandleFunc("/boards/{id}", boardHandler.Get).Methods("GET")
	protected.HandleFunc("/boards/{id}", boardHandler.Update).Methods("PUT")
	protected.HandleFunc("/boards/{id}", boardHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/boards/{id}/favorite", boardHandler.Favorite).Methods("PUT")

	// Columns
	protected.HandleFunc("/columns/board/{boardId}", columnHandler.ListByBoard).Methods("GET")
	protected.HandleFunc("/columns/board/{boardId}", columnHandler.Create).Methods("POST")
	protected.HandleFunc("/columns/{id}", columnHandler.Get).Methods("GET")
	protected.HandleFunc("/columns/{id}", columnHandler.Update).Methods("PUT")
	protected.HandleFunc("/columns/{id}", columnHandler.Delete).Methods("DELETE")

	// Tasks
	protected.HandleFunc("/tasks/columns/{columnId}", taskHandler.ListByColumn).Methods("GET")
	protected.HandleFunc("/tasks/columns/{columnId}", taskHandler.Create).Methods("POST")
	protected.HandleFunc("/tasks/{id}", taskHandler.Get).Methods("GET")
	protected.HandleFunc("/tasks/{id}", taskHandler.Update).Methods("PUT")
	protected.HandleFunc("/tasks/{id}", taskHandler.SetCompleted).Methods("PATCH")
	protected.HandleFunc("/tasks/{id}", taskHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/tasks/{id}/suggest-importance", taskHandler.SuggestImportance).Methods("POST")

	// Users
	protected.HandleFunc("/users/me", userHandler.Me).Methods("GET")
	protected.HandleFunc("/users/me", userHandler.UpdateMe).Methods("PUT")
	protected.HandleFunc("/users/me", userHandler.DeleteMe).Methods("DELETE")
	protected.HandleFunc("/users/me/avatar", userHandler.UploadAvatar).Methods("PUT")
	protected.HandleFunc("/users/change-password", userHandler.ChangePassword).Methods("PUT")

	// WebSocket route for real-time updates
	protected.Handle("/ws", eventsHandler).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return c.Handler(withLogging(log, withRecover(log, r)))
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			writeMessage(w, http.StatusNotFound, "route not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}
