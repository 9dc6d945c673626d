package connectors

import (
	"fmt"
	"sort"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Registry is the closed set of connectors the orchestrator may dispatch to.
// Only services in domain.AllServices can be registered.
type Registry struct {
	connectors map[domain.ServiceID]driven.Connector
}

// NewRegistry creates a registry holding the given connectors.
func NewRegistry(connectors ...driven.Connector) (*Registry, error) {
	r := &Registry{connectors: make(map[domain.ServiceID]driven.Connector)}
	for _, c := range connectors {
		if err := r.register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// register adds a connector, replacing any previous one for the same service.
func (r *Registry) register(c driven.Connector) error {
	if !c.Service().Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownService, c.Service())
	}
	r.connectors[c.Service()] = c
	return nil
}

// All returns every registered connector in catalog order.
func (r *Registry) All() []driven.Connector {
	out := make([]driven.Connector, 0, len(r.connectors))
	for _, svc := range domain.AllServices() {
		if c, ok := r.connectors[svc]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Services returns the registered service ids, sorted.
func (r *Registry) Services() []domain.ServiceID {
	out := make([]domain.ServiceID, 0, len(r.connectors))
	for svc := range r.connectors {
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
