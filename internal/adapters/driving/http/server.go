package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tkgathr2/bulk/internal/core/ports/driven"
	"github.com/tkgathr2/bulk/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	version    string
	logger     *slog.Logger

	// Services
	searchService     driving.SearchService
	historyService    driving.HistoryService
	connectionService driving.ConnectionService
	oauthService      driving.OAuthService

	// Infrastructure
	sessions *SessionMiddleware
	store    Pinger // backing store health check (optional)
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string

	// WebBaseURL is the only CORS origin allowed to call the API with credentials.
	WebBaseURL string

	// SessionTTL is the sliding lifetime of the session cookie.
	SessionTTL time.Duration

	// CookieSecure marks the session cookie Secure (production over HTTPS).
	CookieSecure bool

	// WriteTimeout bounds one response, including a federated search.
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		Version:      "dev",
		WebBaseURL:   "http://localhost:5173",
		SessionTTL:   DefaultSessionTTL,
		WriteTimeout: 30 * time.Second,
	}
}

// Services groups the driving ports served over HTTP
type Services struct {
	Search      driving.SearchService
	History     driving.HistoryService
	Connections driving.ConnectionService
	OAuth       driving.OAuthService
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	services Services,
	sessionTokens driven.AuthAdapter,
	store Pinger, // can be nil
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}

	s := &Server{
		router:            http.NewServeMux(),
		version:           cfg.Version,
		logger:            logger,
		searchService:     services.Search,
		historyService:    services.History,
		connectionService: services.Connections,
		oauthService:      services.OAuth,
		sessions:          NewSessionMiddleware(sessionTokens, cfg.SessionTTL, cfg.CookieSecure),
		store:             store,
	}

	s.setupRoutes()

	// Outermost first: recover, log, CORS, then the session cookie
	s.handler = NewRecoveryMiddleware(logger).Handler(
		NewLoggingMiddleware(logger).Handler(
			NewCORSMiddleware([]string{cfg.WebBaseURL}).Handler(
				s.sessions.Handler(s.router))))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped root handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Search endpoints
	s.router.HandleFunc("POST /search", s.handleSearch)
	s.router.HandleFunc("GET /search/history", s.handleListHistory)
	s.router.HandleFunc("POST /search/history", s.handleSaveHistory)
	s.router.HandleFunc("DELETE /search/history/{id}", s.handleDeleteHistory)
	s.router.HandleFunc("DELETE /search/history", s.handleClearHistory)

	// Service connection endpoints
	s.router.HandleFunc("GET /services/status", s.handleServicesStatus)
	s.router.HandleFunc("POST /services/{id}/disconnect", s.handleDisconnectService)
	s.router.HandleFunc("POST /auth/{service}/disconnect", s.handleAuthDisconnect)
	s.router.HandleFunc("POST /auth/google/{service}/disconnect", s.handleAuthDisconnect)

	// Google sign-in
	s.router.HandleFunc("GET /auth/google/login", s.handleLogin)
	s.router.HandleFunc("GET /auth/google/login/callback", s.handleLoginCallback)
	s.router.HandleFunc("GET /auth/google/me", s.handleMe)
	s.router.HandleFunc("POST /auth/google/logout", s.handleLogout)

	// Service OAuth flows. Callbacks are public redirects from the provider.
	s.router.HandleFunc("GET /auth/google/{service}/authorize", s.handleGoogleAuthorize)
	s.router.HandleFunc("GET /auth/google/{service}/callback", s.handleGoogleCallback)
	s.router.HandleFunc("GET /auth/slack/authorize", s.handleProviderAuthorize)
	s.router.HandleFunc("GET /auth/slack/callback", s.handleProviderCallback)
	s.router.HandleFunc("GET /auth/dropbox/authorize", s.handleProviderAuthorize)
	s.router.HandleFunc("GET /auth/dropbox/callback", s.handleProviderCallback)
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	s.logger.Info("shutting down server")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
