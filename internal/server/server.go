package server

import (
	"context"
	"net/http"

	"quizrec/internal/configuration"
	"quizrec/internal/metrics"
	"quizrec/internal/service"
)

// Server wraps the HTTP server with controlled startup and shutdown.
type Server struct {
	server *http.Server
}

// ListenAndServe blocks until the server stops. After Shutdown it returns
// http.ErrServerClosed.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections and waits for active ones within ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the routed handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// NewServer configures v1 routes over svc with the timeouts from config.
func NewServer(
	config configuration.ServerConfig,
	quiz configuration.QuizConfig,
	svc *service.Service,
	m *metrics.Metrics,
) *Server {
	router := NewApiV1Router(svc, m, RouterOptions{
		Static:        config.Static,
		SessionCookie: config.SessionCookie,
		Format:        quiz.CatalogFormat,
	})
	return &Server{&http.Server{
		Addr:           config.Address,
		Handler:        router.Mux(),
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		MaxHeaderBytes: 1024 * 10,
	}}
}
