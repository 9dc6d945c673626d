package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
	"github.com/tkgathr2/bulk/internal/core/ports/driving"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

// SearchServiceConfig holds dependencies for the federated search orchestrator.
type SearchServiceConfig struct {
	// Connectors are keyed by their Service(). Services without a connector
	// yield an unknown_error result.
	Connectors []driven.Connector

	// Tokens resolves a fresh access token per service.
	Tokens driving.TokenService

	// Timeout bounds the whole fan-out. Zero means no deadline beyond the caller's.
	Timeout time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

// searchService fans one query out to every requested service
type searchService struct {
	connectors map[domain.ServiceID]driven.Connector
	tokens     driving.TokenService
	timeout    time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewSearchService creates a new SearchService
func NewSearchService(cfg SearchServiceConfig) driving.SearchService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	connectors := make(map[domain.ServiceID]driven.Connector, len(cfg.Connectors))
	for _, c := range cfg.Connectors {
		connectors[c.Service()] = c
	}

	return &searchService{
		connectors: connectors,
		tokens:     cfg.Tokens,
		timeout:    cfg.Timeout,
		logger:     logger,
		now:        now,
	}
}

// Search validates the request, then dispatches every requested service
// concurrently and waits for all of them to settle.
func (s *searchService) Search(ctx context.Context, sessionID string, req domain.SearchRequest) (*domain.SearchResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	requestedAt := s.now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[domain.ServiceID]*domain.ServiceResult, len(req.Services))
	)
	for _, service := range req.Services {
		wg.Add(1)
		go func(service domain.ServiceID) {
			defer wg.Done()
			result := s.dispatch(ctx, sessionID, service, req)
			mu.Lock()
			results[service] = result
			mu.Unlock()
		}(service)
	}
	wg.Wait()

	jobID := newJobID(requestedAt)
	s.logger.Info("federated search completed",
		"job_id", jobID,
		"services", len(results),
		"duration", s.now().Sub(requestedAt))

	return &domain.SearchResponse{
		JobID:       jobID,
		RequestedAt: domain.FormatTimestamp(requestedAt),
		Query:       req.Query,
		Filters:     req.Filters(),
		Services:    results,
	}, nil
}

// dispatch resolves a token and runs one connector. It always returns a
// valid result; panics and malformed results become network_error.
func (s *searchService) dispatch(ctx context.Context, sessionID string, service domain.ServiceID, req domain.SearchRequest) (result *domain.ServiceResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("connector panicked", "service", service, "panic", r)
			result = domain.ErrorResult(domain.ErrorNetwork, fmt.Sprintf("%s search failed unexpectedly", service.Info().Name))
		}
		s.logger.Info("service search finished",
			"service", service,
			"status", result.Status,
			"error_code", result.Code(),
			"duration", time.Since(start))
	}()

	connector, ok := s.connectors[service]
	if !ok {
		return domain.ErrorResult(domain.ErrorUnknown, "service not available")
	}

	accessToken, err := s.tokens.EnsureFreshToken(ctx, sessionID, service)
	if err != nil {
		return tokenErrorResult(service, err)
	}

	result = connector.Search(ctx, accessToken, req)
	if !result.Valid() {
		s.logger.Error("connector returned invalid result", "service", service)
		return domain.ErrorResult(domain.ErrorNetwork, fmt.Sprintf("%s returned an invalid result", service.Info().Name))
	}
	return result
}

func tokenErrorResult(service domain.ServiceID, err error) *domain.ServiceResult {
	name := service.Info().Name
	switch {
	case errors.Is(err, domain.ErrNotConnected):
		return domain.ErrorResult(domain.ErrorAuthRequired, name+"が接続されていません。設定画面で接続してください。")
	case errors.Is(err, domain.ErrNoRefreshToken), errors.Is(err, domain.ErrRefreshFailed):
		return domain.ErrorResult(domain.ErrorAuthRequired, name+"の認証が無効です。設定画面で再接続してください。")
	default:
		return domain.ErrorResult(domain.ErrorUnknown, "failed to load "+name+" credentials")
	}
}

// newJobID combines the request time with a random suffix
func newJobID(t time.Time) string {
	return "job_" + strconv.FormatInt(t.UnixMilli(), 10) + "_" + uuid.NewString()[:8]
}
