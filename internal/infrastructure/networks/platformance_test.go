package networks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affstack/backend/internal/domain/network"
)

func newPlatformanceTestAdapter(t *testing.T, handler http.Handler) *PlatformanceAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewPlatformanceAdapter(&PlatformanceConfig{BaseURL: server.URL, PageLimit: 20})
	require.NoError(t, err)
	return adapter
}

func TestPlatformanceFetchPage(t *testing.T) {
	adapter := newPlatformanceTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/reports/performance", r.URL.Path)
		assert.Equal(t, "pf_session=xyz", r.Header.Get("Cookie"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"rows":[
			{"id":881,"campaign_id":12,"campaign_name":"Farfetch","code":"FF10","date":"2024-05-10",
			 "conversions":1,"sale_amount":900,"revenue":45,"currency":"usd","country":"",
			 "status":"approved","cpc":0.4,"source":"social"}
		],"has_next":true}`))
	}))

	cred := network.Credential{Method: network.AuthMethodCookie, Cookie: "pf_session=xyz"}
	page, err := adapter.FetchPage(context.Background(), cred, network.DateRange{}, 1)
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)
	assert.True(t, page.HasMore)

	tx := page.Transactions[0]
	assert.Equal(t, "881", tx.NetworkOrderID)
	assert.Equal(t, "US", tx.CountryCode, "missing country defaults to US on this network")
	assert.Equal(t, "APPROVED", tx.Status)
	assert.Equal(t, "0.4", tx.Extras["cpc"])
	assert.Equal(t, "social", tx.Extras["traffic_source"])
}

func TestPlatformanceTestConnection(t *testing.T) {
	t.Run("json means live session", func(t *testing.T) {
		adapter := newPlatformanceTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"rows":[],"has_next":false}`))
		}))
		assert.NoError(t, adapter.TestConnection(context.Background(), network.Credential{Cookie: "pf_session=xyz"}))
	})

	t.Run("html login page means dead session", func(t *testing.T) {
		adapter := newPlatformanceTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><body>Sign in</body></html>`))
		}))
		err := adapter.TestConnection(context.Background(), network.Credential{Cookie: "pf_session=dead"})
		assert.ErrorIs(t, err, network.ErrAuthFailed)
	})
}
