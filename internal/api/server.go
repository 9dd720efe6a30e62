package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/wings-of-wisdom/internal/catalog"
	"github.com/terra-clan/wings-of-wisdom/internal/chat"
	"github.com/terra-clan/wings-of-wisdom/internal/config"
	"github.com/terra-clan/wings-of-wisdom/internal/contact"
	"github.com/terra-clan/wings-of-wisdom/internal/content"
	"github.com/terra-clan/wings-of-wisdom/internal/countdown"
	"github.com/terra-clan/wings-of-wisdom/internal/quiz"
	"github.com/terra-clan/wings-of-wisdom/internal/scheduler"
	"github.com/terra-clan/wings-of-wisdom/internal/services"
)

// Deps are the components the API serves
type Deps struct {
	Catalog   *catalog.Catalog
	Content   *content.Loader
	Quiz      *quiz.Manager
	Chat      *chat.Assistant
	Contact   *contact.Service
	Event     *countdown.Event
	Registry  *services.Registry
	Clients   ClientStore
	Scheduler scheduler.Scheduler
	// SearchDebounce is the quiet period of the live search socket
	SearchDebounce time.Duration
}

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	catalog        *catalog.Catalog
	content        *content.Loader
	quiz           *quiz.Manager
	chat           *chat.Assistant
	contact        *contact.Service
	event          *countdown.Event
	registry       *services.Registry
	scheduler      scheduler.Scheduler
	searchDebounce time.Duration
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	if deps.Scheduler == nil {
		deps.Scheduler = scheduler.NewClock()
	}
	if deps.Registry == nil {
		deps.Registry = services.NewRegistry()
	}

	s := &Server{
		config:         cfg,
		catalog:        deps.Catalog,
		content:        deps.Content,
		quiz:           deps.Quiz,
		chat:           deps.Chat,
		contact:        deps.Contact,
		event:          deps.Event,
		registry:       deps.Registry,
		scheduler:      deps.Scheduler,
		searchDebounce: deps.SearchDebounce,
		authMiddleware: NewAuthMiddleware(deps.Clients),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// Long-lived sockets, no request timeout
	r.Route("/ws", func(r chi.Router) {
		r.Get("/search", s.handleSearchWS)
		r.Get("/chat", s.handleChatWS)
		r.Get("/countdown", s.handleCountdownWS)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		// Catalog
		r.Route("/laureates", func(r chi.Router) {
			r.Get("/", s.handleSearchLaureates)
			r.Get("/filters", s.handleLaureateFilters)
			r.Get("/{name}", s.handleGetLaureate)
		})
		r.Get("/stats", s.handleStats)

		// Modal content
		r.Route("/content/{kind}", func(r chi.Router) {
			r.Get("/", s.handleListContent)
			r.Get("/{id}", s.handleGetContent)
		})
		r.Get("/quotes/random", s.handleRandomQuote)
		r.Get("/events/countdown", s.handleCountdown)

		// Quiz
		r.Route("/quiz", func(r chi.Router) {
			r.Get("/leaderboard", s.handleLeaderboard)
			r.Post("/sessions", s.handleStartQuiz)
			r.Route("/sessions/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetQuiz)
				r.Post("/select", s.handleSelectOption)
				r.Post("/submit", s.handleSubmitAnswer)
				r.Post("/answer", s.handleAnswer)
				r.Post("/restart", s.handleRestartQuiz)
				r.Get("/result", s.handleQuizResult)
			})
		})

		// Chat
		r.Route("/chat", func(r chi.Router) {
			r.Post("/", s.handleChat)
			r.Get("/{id}", s.handleGetConversation)
			r.Post("/{id}/toggle", s.handleToggleChat)
		})

		// Contact
		r.Post("/contact", s.handleContact)

		// Admin (API key auth)
		r.Route("/admin", func(r chi.Router) {
			r.Use(s.authMiddleware.Authenticate)
			r.With(s.authMiddleware.RequirePermission("contact:read")).Get("/contact", s.handleListContact)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
