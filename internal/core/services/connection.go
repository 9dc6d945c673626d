package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
	"github.com/tkgathr2/bulk/internal/core/ports/driving"
)

// Ensure connectionService implements ConnectionService
var _ driving.ConnectionService = (*connectionService)(nil)

// ConnectionServiceConfig holds dependencies for the connection service.
type ConnectionServiceConfig struct {
	Tokens driving.TokenService
	Store  driven.TokenStore

	// APIBaseURL prefixes the authorize paths returned as auth_url.
	APIBaseURL string

	Logger *slog.Logger
}

type connectionService struct {
	tokens     driving.TokenService
	store      driven.TokenStore
	apiBaseURL string
	logger     *slog.Logger
}

// NewConnectionService creates a new ConnectionService
func NewConnectionService(cfg ConnectionServiceConfig) driving.ConnectionService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &connectionService{
		tokens:     cfg.Tokens,
		store:      cfg.Store,
		apiBaseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		logger:     logger,
	}
}

func (s *connectionService) List(ctx context.Context, sessionID string) ([]domain.ServiceConnection, error) {
	services := domain.AllServices()
	out := make([]domain.ServiceConnection, 0, len(services))
	for _, service := range services {
		conn, err := s.Get(ctx, sessionID, service)
		if err != nil {
			return nil, err
		}
		out = append(out, *conn)
	}
	return out, nil
}

func (s *connectionService) Get(ctx context.Context, sessionID string, service domain.ServiceID) (*domain.ServiceConnection, error) {
	if !service.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownService, service)
	}
	status, err := s.tokens.Status(ctx, sessionID, service)
	if err != nil {
		return nil, err
	}
	info := service.Info()
	return &domain.ServiceConnection{
		ID:          service,
		Name:        info.Name,
		Status:      status,
		Description: info.Description,
		AuthURL:     s.apiBaseURL + domain.TargetForService(service).AuthorizePath(),
	}, nil
}

// Disconnect removes the stored token. Disconnecting twice is not an error.
func (s *connectionService) Disconnect(ctx context.Context, sessionID string, service domain.ServiceID) (*domain.ServiceConnection, error) {
	if !service.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownService, service)
	}
	if err := s.store.Remove(ctx, sessionID, service); err != nil {
		return nil, fmt.Errorf("remove %s token: %w", service, err)
	}
	s.logger.Info("service disconnected", "service", service)
	return s.Get(ctx, sessionID, service)
}
