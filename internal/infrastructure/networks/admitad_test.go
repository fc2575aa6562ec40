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

func newAdmitadTestAdapter(t *testing.T, handler http.Handler) *AdmitadAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewAdmitadAdapter(&AdmitadConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://app.example.com/callback",
		APIBaseURL:   server.URL,
		PageLimit:    2,
	})
	require.NoError(t, err)
	return adapter
}

func TestAdmitadConfigValidate(t *testing.T) {
	t.Run("missing client id", func(t *testing.T) {
		_, err := NewAdmitadAdapter(&AdmitadConfig{ClientSecret: "s"})
		assert.ErrorIs(t, err, ErrAdmitadConfigMissingClientID)
	})

	t.Run("missing client secret", func(t *testing.T) {
		_, err := NewAdmitadAdapter(&AdmitadConfig{ClientID: "c"})
		assert.ErrorIs(t, err, ErrAdmitadConfigMissingClientSecret)
	})

	t.Run("defaults applied", func(t *testing.T) {
		cfg := &AdmitadConfig{ClientID: "c", ClientSecret: "s"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "https://api.admitad.com", cfg.APIBaseURL)
		assert.Equal(t, "https://api.admitad.com/token/", cfg.TokenURL)
		assert.Equal(t, 100, cfg.PageLimit)
	})
}

func TestAdmitadExchange(t *testing.T) {
	adapter := newAdmitadTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "auth-code", r.PostForm.Get("code"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","expires_in":604800}`))
	}))

	cred, err := adapter.Exchange(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, network.AuthMethodOAuth, cred.Method)
	assert.Equal(t, "at-1", cred.AccessToken)
	assert.Equal(t, "rt-1", cred.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(604800*time.Second), cred.ExpiresAt, 5*time.Second)
}

func TestAdmitadExchange_Denied(t *testing.T) {
	adapter := newAdmitadTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"code expired"}`))
	}))

	_, err := adapter.Exchange(context.Background(), "stale")
	require.ErrorIs(t, err, network.ErrAuthFailed)
	assert.Contains(t, err.Error(), "code expired")
}

func TestAdmitadRefresh_MissingToken(t *testing.T) {
	adapter := newAdmitadTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	_, err := adapter.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, network.ErrCredentialMissing)
}

func TestAdmitadFetchPage(t *testing.T) {
	adapter := newAdmitadTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/statistics/actions/", r.URL.Path)
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("date_start"))
		assert.Equal(t, "2024-01-31", r.URL.Query().Get("date_end"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("offset"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": [
				{"action_id":"A1","advcampaign_id":"C9","advcampaign_name":"Noon","promocode":"SAVE10",
				 "cart":36.7,"payment":36.7,"currency":"AED","action_date":"2024-01-05 13:45:00",
				 "status":"pending","conversions":0,"subid":"s-1","action_country":"ae"},
				{"action_id":9001,"advcampaign_id":12,"promocode":"","cart":100,"payment":5,
				 "currency":"USD","action_date":"2024-01-06","status":"approved","conversions":3}
			],
			"_meta": {"count": 5, "limit": 2, "offset": 0}
		}`))
	}))

	dateRange, err := network.NewDateRange(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	page, err := adapter.FetchPage(context.Background(), network.Credential{AccessToken: "at-1"}, dateRange, 1)
	require.NoError(t, err)
	require.Len(t, page.Transactions, 2)
	assert.True(t, page.HasMore, "offset 0 + 2 rows < count 5")

	first := page.Transactions[0]
	assert.Equal(t, "A1", first.NetworkOrderID)
	assert.Equal(t, "C9", first.CampaignID)
	assert.Equal(t, "Noon", first.CampaignName)
	assert.Equal(t, "SAVE10", first.CouponCode)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), first.OrderDate)
	assert.InDelta(t, 36.7, first.SalesAmount, 1e-9)
	assert.InDelta(t, 36.7, first.Revenue, 1e-9)
	assert.Equal(t, "AED", first.Currency)
	assert.Equal(t, 1, first.Quantity, "absent conversions default to one action")
	assert.Equal(t, "AE", first.CountryCode)
	assert.Equal(t, "PENDING", first.Status)
	assert.Equal(t, "s-1", first.Extras["subid"])

	second := page.Transactions[1]
	assert.Equal(t, "9001", second.NetworkOrderID, "numeric ids survive as strings")
	assert.Equal(t, "12", second.CampaignID)
	assert.Equal(t, 3, second.Quantity)
	assert.Equal(t, "APPROVED", second.Status)
}

func TestAdmitadFetchPage_LastPage(t *testing.T) {
	adapter := newAdmitadTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("offset"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"action_id":"A3","advcampaign_id":"C9","cart":1,"payment":1,"currency":"USD","action_date":"2024-01-07"}],"_meta":{"count":3,"limit":2,"offset":2}}`))
	}))

	page, err := adapter.FetchPage(context.Background(), network.Credential{AccessToken: "at-1"}, network.DateRange{}, 2)
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 1)
	assert.False(t, page.HasMore)
}

func TestAdmitadFetchPage_Unauthorized(t *testing.T) {
	adapter := newAdmitadTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := adapter.FetchPage(context.Background(), network.Credential{AccessToken: "dead"}, network.DateRange{}, 1)
	assert.ErrorIs(t, err, network.ErrAuthFailed)
}

func TestAdmitadTestConnection(t *testing.T) {
	adapter := newAdmitadTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me/", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"username":"publisher"}`))
	}))

	assert.NoError(t, adapter.TestConnection(context.Background(), network.Credential{AccessToken: "good"}))
	assert.ErrorIs(t, adapter.TestConnection(context.Background(), network.Credential{AccessToken: "bad"}), network.ErrAuthFailed)
}
