package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gatherhub/gatherly/internal/auth"
	"github.com/gatherhub/gatherly/internal/config"
	"github.com/gatherhub/gatherly/internal/http/handlers"
	"github.com/gatherhub/gatherly/internal/middleware"
	"github.com/gatherhub/gatherly/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store) *Server {
	mux := http.NewServeMux()
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	protect := middleware.RequireAuth(tokenManager)

	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(store, tokenManager).Register(mux, protect)
	handlers.NewEventsHandler(store).Register(mux, protect)
	handlers.NewTicketsHandler(store, store).Register(mux, protect)

	handler := middleware.CORS(cfg.CORSOrigins, middleware.Logging(mux))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
