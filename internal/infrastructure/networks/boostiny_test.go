package networks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affstack/backend/internal/domain/network"
)

func newBoostinyTestAdapter(t *testing.T, handler http.Handler) *BoostinyAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewBoostinyAdapter(&BoostinyConfig{APIBaseURL: server.URL, PageLimit: 50})
	require.NoError(t, err)
	return adapter
}

func TestBoostinyConfigDefaults(t *testing.T) {
	cfg := &BoostinyConfig{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://api.boostiny.com", cfg.APIBaseURL)
	assert.Equal(t, defaultTimeoutSeconds, cfg.TimeoutSeconds)
	assert.Equal(t, 100, cfg.PageLimit)
}

func TestBoostinyFetchPage(t *testing.T) {
	adapter := newBoostinyTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/publisher/performance", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("x-api-key"))
		assert.Equal(t, "2024-02-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2024-02-29", r.URL.Query().Get("to"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"payload":[
			{"campaign_id":"55","campaign_name":"Namshi","code":"NS20","date":"2024-02-03",
			 "conversions":4,"sales_amount_usd":320.5,"pending_revenue":6.5,"validated_revenue":10,
			 "rejected_revenue":1.5,"country":"Saudi Arabia","traffic_source":"coupon"},
			{"campaign_id":"55","campaign_name":"Namshi","code":"NS20","date":"2024-02-04",
			 "conversions":1,"sales_amount_usd":50,"pending_revenue":0,"validated_revenue":2.5,
			 "rejected_revenue":0,"country":"United Arab Emirates"},
			{"campaign_id":"60","campaign_name":"Sivvi","code":"SV5","date":"2024-02-04",
			 "conversions":2,"sales_amount_usd":90,"pending_revenue":0,"validated_revenue":0,
			 "rejected_revenue":4,"country":"Kuwait"}
		],"pagination":{"page":1,"totalPages":2}}}`))
	}))

	dateRange, err := network.NewDateRange(
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	page, err := adapter.FetchPage(context.Background(), network.Credential{AccessToken: "key-1"}, dateRange, 1)
	require.NoError(t, err)
	require.Len(t, page.Transactions, 3)
	assert.True(t, page.HasMore)

	mixed := page.Transactions[0]
	assert.Equal(t, "55-NS20-2024-02-03", mixed.NetworkOrderID)
	assert.InDelta(t, 18.0, mixed.Revenue, 1e-9, "pending+validated+rejected must be summed")
	assert.Equal(t, "USD", mixed.Currency)
	assert.Equal(t, "PENDING", mixed.Status, "mixed components stay pending")
	assert.Equal(t, "Saudi Arabia", mixed.CountryName)
	assert.Empty(t, mixed.CountryCode, "Boostiny names countries, resolution happens downstream")
	assert.Equal(t, "coupon", mixed.Extras["traffic_source"])
	assert.Equal(t, "6.5", mixed.Extras["pending_revenue"])
	assert.Equal(t, "1.5", mixed.Extras["rejected_revenue"])

	validatedOnly := page.Transactions[1]
	assert.Equal(t, "APPROVED", validatedOnly.Status)
	assert.InDelta(t, 2.5, validatedOnly.Revenue, 1e-9)

	rejectedOnly := page.Transactions[2]
	assert.Equal(t, "REJECTED", rejectedOnly.Status)
	assert.InDelta(t, 4.0, rejectedOnly.Revenue, 1e-9)
}

func TestBoostinyFetchPage_LastPage(t *testing.T) {
	adapter := newBoostinyTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"payload":[],"pagination":{"page":2,"totalPages":2}}}`))
	}))

	page, err := adapter.FetchPage(context.Background(), network.Credential{AccessToken: "key-1"}, network.DateRange{}, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Transactions)
	assert.False(t, page.HasMore)
}

func TestBoostinyFetchPage_RateLimited(t *testing.T) {
	adapter := newBoostinyTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := adapter.FetchPage(context.Background(), network.Credential{AccessToken: "key-1"}, network.DateRange{}, 1)
	assert.ErrorIs(t, err, network.ErrRateLimited)
}

func TestBoostinyTestConnection_BadKey(t *testing.T) {
	adapter := newBoostinyTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	err := adapter.TestConnection(context.Background(), network.Credential{AccessToken: "bad"})
	assert.ErrorIs(t, err, network.ErrAuthFailed)
}
