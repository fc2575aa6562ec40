package networks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affstack/backend/internal/domain/network"
)

func newTestRegistry(t *testing.T) *AdapterRegistry {
	t.Helper()
	registry, err := NewRegistry(&Config{
		Admitad: AdmitadConfig{ClientID: "c", ClientSecret: "s"},
	})
	require.NoError(t, err)
	return registry
}

func TestRegistryGet(t *testing.T) {
	registry := newTestRegistry(t)

	for _, code := range network.AllCodes() {
		adapter, err := registry.Get(code)
		require.NoError(t, err, code)
		assert.Equal(t, code, adapter.Code())
	}
}

func TestRegistryGet_Unsupported(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := registry.Get(network.Code("CJ"))
	assert.ErrorIs(t, err, network.ErrUnsupportedNetwork)
}

func TestRegistryList(t *testing.T) {
	registry := newTestRegistry(t)

	adapters := registry.List()
	require.Len(t, adapters, len(network.AllCodes()))

	seen := make(map[network.Code]bool)
	for _, adapter := range adapters {
		seen[adapter.Code()] = true
	}
	for _, code := range network.AllCodes() {
		assert.True(t, seen[code], code)
	}
}

func TestRegistryTokenExchangerFor(t *testing.T) {
	registry := newTestRegistry(t)

	_, ok := registry.TokenExchangerFor(network.CodeAdmitad)
	assert.True(t, ok, "Admitad speaks OAuth")

	_, ok = registry.TokenExchangerFor(network.CodeBoostiny)
	assert.False(t, ok, "API key networks have no token exchange")
}

func TestRatePacer(t *testing.T) {
	t.Run("first call does not block", func(t *testing.T) {
		pacer := NewRatePacer(time.Hour)
		start := time.Now()
		require.NoError(t, pacer.Wait(context.Background()))
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("spaces subsequent calls", func(t *testing.T) {
		pacer := NewRatePacer(50 * time.Millisecond)
		require.NoError(t, pacer.Wait(context.Background()))
		start := time.Now()
		require.NoError(t, pacer.Wait(context.Background()))
		assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	})

	t.Run("disabled interval never blocks", func(t *testing.T) {
		pacer := NewRatePacer(0)
		for i := 0; i < 10; i++ {
			require.NoError(t, pacer.Wait(context.Background()))
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		pacer := NewRatePacer(time.Hour)
		require.NoError(t, pacer.Wait(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Error(t, pacer.Wait(ctx))
	})
}
