package handlers

import (
	"net/http"
	"time"

	"chatapp-client/internal/assistant"
	"chatapp-client/internal/conversation"
	"chatapp-client/internal/directory"
	"chatapp-client/internal/hub"
	"chatapp-client/internal/identity"
	"chatapp-client/internal/models"
	"chatapp-client/internal/send"
	"chatapp-client/internal/snowflake"
	"chatapp-client/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the components the local API serves.
type Deps struct {
	Identity      *identity.Provider
	Directory     *directory.Model
	Conversations *conversation.Registry
	Sender        *send.Pipeline
	Uploads       *upload.Storage
	Assistant     *assistant.Client
	Hub           *hub.Hub
	SessionIDs    *snowflake.Generator
}

var sugar *zap.SugaredLogger
var deps Deps

// Setup builds the router of the local presentation API.
func Setup(cfg *models.ConfigFile, _deps Deps, _sugar *zap.SugaredLogger) http.Handler {
	sugar = _sugar
	deps = _deps

	r := chi.NewRouter()
	if cfg.Cors {
		r.Use(AllowCors)
	}
	r.Use(RequestID)
	if cfg.PrintHttpRequests {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(60 * time.Second))

		api.Route("/auth", func(r chi.Router) {
			r.Post("/register", Register)
			r.Post("/login", Login)
			r.Post("/logout", Logout)
			r.With(UserVerifier).Get("/isLoggedIn", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
		})

		api.Route("/user", func(r chi.Router) {
			r.Use(UserVerifier)
			r.Get("/fetch", GetUserInfo)
			r.Post("/update", UpdateUserInfo)
		})

		api.With(UserVerifier).Get("/users", GetUserList)

		api.Route("/server", func(r chi.Router) {
			r.Use(UserVerifier)
			r.Get("/fetch", GetServerList)
			r.Get("/open", OpenServer)
			r.Post("/create", CreateServer)
			r.Post("/resume", ResumeServerCreate)
		})

		api.Route("/channel", func(r chi.Router) {
			r.Use(UserVerifier)
			r.Post("/create", CreateChannel)
		})

		api.Route("/conversation", func(r chi.Router) {
			r.Use(UserVerifier)
			r.Post("/open", OpenConversation)
			r.Get("/view", GetConversationView)
			r.Post("/close", CloseConversation)
		})

		api.Route("/message", func(r chi.Router) {
			r.Use(UserVerifier)
			r.Post("/send", SendMessage)
		})

		api.With(UserVerifier).Post("/upload", Upload)
		api.With(UserVerifier).Post("/assistant", AskAssistant)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Handle(upload.URLPrefix+"*", http.StripPrefix(upload.URLPrefix, http.FileServer(http.Dir(deps.Uploads.Dir()))))
	r.With(UserVerifier).Get("/ws", HandleWebSocket)

	return r
}
