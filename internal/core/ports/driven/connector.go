package driven

import (
	"context"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

// Connector searches one third-party service.
// Implementations never return Go errors; every failure is mapped into an
// error ServiceResult with a code from the shared taxonomy.
type Connector interface {
	// Service returns the service this connector searches.
	Service() domain.ServiceID

	// Search runs the normalized request against the provider using accessToken.
	// The result must satisfy ServiceResult.Valid.
	Search(ctx context.Context, accessToken string, req domain.SearchRequest) *domain.ServiceResult
}
