package mocks

import (
	"context"
	"sync/atomic"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

// MockConnector is a mock implementation of Connector for testing.
// Calls counts every Search invocation so tests can assert that no
// network call was attempted.
type MockConnector struct {
	ServiceID domain.ServiceID
	SearchFn  func(ctx context.Context, accessToken string, req domain.SearchRequest) *domain.ServiceResult

	calls     atomic.Int32
	lastToken atomic.Value
}

// NewMockConnector creates a connector that returns an empty success result
func NewMockConnector(service domain.ServiceID) *MockConnector {
	return &MockConnector{ServiceID: service}
}

func (m *MockConnector) Service() domain.ServiceID {
	return m.ServiceID
}

func (m *MockConnector) Search(ctx context.Context, accessToken string, req domain.SearchRequest) *domain.ServiceResult {
	m.calls.Add(1)
	m.lastToken.Store(accessToken)
	if m.SearchFn != nil {
		return m.SearchFn(ctx, accessToken, req)
	}
	return domain.SuccessResult(nil, 0, false)
}

// Calls returns how many times Search ran
func (m *MockConnector) Calls() int {
	return int(m.calls.Load())
}

// LastToken returns the access token of the most recent call
func (m *MockConnector) LastToken() string {
	v, _ := m.lastToken.Load().(string)
	return v
}
