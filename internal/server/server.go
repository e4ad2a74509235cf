package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"secai/internal/domain"
	"secai/internal/session"
)

// Config holds server configuration.
type Config struct {
	Addr           string
	AllowedOrigins []string
	PageSize       int
	// APIKey is used for sessions created without their own key.
	APIKey string
}

// Source lists companies and filings and decides which document URLs a
// session may load. The EDGAR client satisfies it.
type Source interface {
	domain.FilingSource
	IsArchiveURL(url string) bool
}

// Server exposes filing search, selection and chat over JSON.
type Server struct {
	cfg        Config
	source     Source
	loader     session.Loader
	sessions   *session.Manager
	logger     *slog.Logger
	router     chi.Router
	httpServer *http.Server
}

func New(cfg Config, source Source, loader session.Loader, sessions *session.Manager, logger *slog.Logger) *Server {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 5
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		source:   source,
		loader:   loader,
		sessions: sessions,
		logger:   logger.With("component", "server"),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.Timeout(30*time.Second)).Get("/companies", s.handleSearch)
		r.With(middleware.Timeout(30*time.Second)).Get("/companies/{cik}/filings", s.handleFilings)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/documents", s.handleAddDocument)
			r.Delete("/documents", s.handleRemoveDocument)
			r.Post("/load", s.handleLoad)
			r.Post("/questions", s.handleAsk)
		})
	})
	return r
}

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.logger.Info("listening", "addr", s.cfg.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
