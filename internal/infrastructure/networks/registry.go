package networks

import (
	"fmt"

	"github.com/affstack/backend/internal/domain/network"
)

// Config aggregates the per-network adapter settings.
type Config struct {
	Admitad      AdmitadConfig
	Boostiny     BoostinyConfig
	ArabClicks   ArabClicksConfig
	Optimise     OptimiseConfig
	DCMnetwork   DCMnetworkConfig
	Platformance PlatformanceConfig
}

// AdapterRegistry resolves adapters by network code.
type AdapterRegistry struct {
	adapters map[network.Code]network.Adapter
	order    []network.Code
}

// NewRegistry builds every adapter from the aggregate config and registers
// them.
func NewRegistry(cfg *Config) (*AdapterRegistry, error) {
	admitad, err := NewAdmitadAdapter(&cfg.Admitad)
	if err != nil {
		return nil, fmt.Errorf("networks: admitad: %w", err)
	}
	boostiny, err := NewBoostinyAdapter(&cfg.Boostiny)
	if err != nil {
		return nil, fmt.Errorf("networks: boostiny: %w", err)
	}
	arabclicks, err := NewArabClicksAdapter(&cfg.ArabClicks)
	if err != nil {
		return nil, fmt.Errorf("networks: arabclicks: %w", err)
	}
	optimise, err := NewOptimiseAdapter(&cfg.Optimise)
	if err != nil {
		return nil, fmt.Errorf("networks: optimise: %w", err)
	}
	dcm, err := NewDCMnetworkAdapter(&cfg.DCMnetwork)
	if err != nil {
		return nil, fmt.Errorf("networks: dcmnetwork: %w", err)
	}
	platformance, err := NewPlatformanceAdapter(&cfg.Platformance)
	if err != nil {
		return nil, fmt.Errorf("networks: platformance: %w", err)
	}

	r := &AdapterRegistry{adapters: make(map[network.Code]network.Adapter)}
	for _, adapter := range []network.Adapter{
		admitad, boostiny, arabclicks, optimise, dcm, platformance,
	} {
		r.adapters[adapter.Code()] = adapter
		r.order = append(r.order, adapter.Code())
	}
	return r, nil
}

// Get returns the adapter for a network code.
func (r *AdapterRegistry) Get(code network.Code) (network.Adapter, error) {
	adapter, ok := r.adapters[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", network.ErrUnsupportedNetwork, code)
	}
	return adapter, nil
}

// List returns all registered adapters in registration order.
func (r *AdapterRegistry) List() []network.Adapter {
	out := make([]network.Adapter, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.adapters[code])
	}
	return out
}

// TokenExchangerFor returns the token exchange contract for OAuth networks,
// ErrRefreshNotSupported style handling is left to callers for the rest.
func (r *AdapterRegistry) TokenExchangerFor(code network.Code) (network.TokenExchanger, bool) {
	adapter, ok := r.adapters[code]
	if !ok {
		return nil, false
	}
	exchanger, ok := adapter.(network.TokenExchanger)
	return exchanger, ok
}

// Ensure AdapterRegistry implements the registry port.
var _ network.Registry = (*AdapterRegistry)(nil)
