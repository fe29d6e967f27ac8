package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chat-export-bot/internal/pkg/config"
	"chat-export-bot/internal/ports"
	"chat-export-bot/internal/server/usecase"
)

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	sessions   *SessionRegistry
	ingest     *usecase.IngestUseCase
	renderer   ports.SpreadsheetRenderer
	logger     *slog.Logger
}

// New создает новый экземпляр Server
func New(cfg *config.Config, processor ports.DocumentProcessor, renderer ports.SpreadsheetRenderer, sessions *SessionRegistry, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		ingest:   usecase.NewIngestUseCase(processor, logger.With(slog.String("component", "ingest"))),
		renderer: renderer,
		logger:   logger,
	}

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(instrument(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Use(s.sessionCtx)
			r.Get("/", s.handleStats)
			r.Delete("/", s.handleReset)
			r.Post("/files", s.handleUpload)
			r.Get("/export", s.handleExport)
		})
	})

	return r
}

// Handler возвращает корневой обработчик запросов.
func (s *Server) Handler() http.Handler {
	return s.HTTPServer.Handler
}

// StartBackground запускает фоновую очистку простаивающих сессий.
func (s *Server) StartBackground(ctx context.Context) {
	s.sessions.StartJanitor(ctx, s.cfg.Processing.CleanupInterval, s.logger)
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Завершение работы HTTP-сервера")
	return s.HTTPServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
