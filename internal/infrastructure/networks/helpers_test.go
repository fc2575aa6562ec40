package networks

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/affstack/backend/internal/domain/network"
)

func TestSanitizeDecimal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{name: "plain number", input: "36.7", expected: 36.7},
		{name: "currency prefix", input: "$1,234.50", expected: 1234.50},
		{name: "currency suffix", input: "12.5 USD", expected: 12.5},
		{name: "thousands separators", input: "1,000,000", expected: 1000000},
		{name: "negative", input: "-42.1", expected: -42.1},
		{name: "whitespace padding", input: "  7.25  ", expected: 7.25},
		{name: "arabic thousands text", input: "AED 3,670.00", expected: 3670},
		{name: "empty", input: "", expected: 0},
		{name: "no digits", input: "n/a", expected: 0},
		{name: "garbage after strip", input: "--..", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, SanitizeDecimal(tt.input), 1e-9)
		})
	}
}

func TestParseDate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got := parseDate("02/01/2006", "05/01/2024")
		assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("trims whitespace", func(t *testing.T) {
		got := parseDate("2006-01-02", " 2024-03-10 ")
		assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("unparsable yields zero time", func(t *testing.T) {
		assert.True(t, parseDate("2006-01-02", "not-a-date").IsZero())
	})
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		expectedErr error
	}{
		{name: "ok", status: http.StatusOK, expectedErr: nil},
		{name: "created", status: http.StatusCreated, expectedErr: nil},
		{name: "unauthorized", status: http.StatusUnauthorized, expectedErr: network.ErrAuthFailed},
		{name: "forbidden", status: http.StatusForbidden, expectedErr: network.ErrAuthFailed},
		{name: "too many requests", status: http.StatusTooManyRequests, expectedErr: network.ErrRateLimited},
		{name: "not found", status: http.StatusNotFound, expectedErr: network.ErrTransport},
		{name: "server error", status: http.StatusInternalServerError, expectedErr: network.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.status}
			err := checkStatus(resp)
			if tt.expectedErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestBrowserHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://panel.example.com/reports", nil)
	browserHeaders(req, "https://panel.example.com")

	assert.Contains(t, req.Header.Get("User-Agent"), "Mozilla/5.0")
	assert.Equal(t, "https://panel.example.com", req.Header.Get("Origin"))
	assert.Equal(t, "https://panel.example.com/", req.Header.Get("Referer"))
}
