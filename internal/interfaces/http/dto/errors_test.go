package dto

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affstack/backend/internal/application/connector"
	"github.com/affstack/backend/internal/domain/network"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeUnsupportedNetwork, http.StatusNotFound},
		{ErrCodeNotConnected, http.StatusConflict},
		{ErrCodeSyncInProgress, http.StatusConflict},
		{ErrCodeNetworkAuth, http.StatusUnprocessableEntity},
		{ErrCodePartnerUpstream, http.StatusBadGateway},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodePlanLimit, http.StatusForbidden},
		{"ERR_SOMETHING_NEW", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{network.ErrUnsupportedNetwork, ErrCodeUnsupportedNetwork},
		{fmt.Errorf("wrapped: %w", network.ErrNoActiveConnection), ErrCodeNotConnected},
		{network.ErrAuthFailed, ErrCodeNetworkAuth},
		{network.ErrCredentialMissing, ErrCodeNetworkAuth},
		{network.ErrReconnectRequired, ErrCodeReconnectRequired},
		{network.ErrTransport, ErrCodePartnerUpstream},
		{network.ErrRateLimited, ErrCodeRateLimited},
		{connector.ErrSyncInProgress, ErrCodeSyncInProgress},
		{connector.ErrOAuthOnly, ErrCodeInvalidInput},
		{connector.ErrPlanLimit, ErrCodePlanLimit},
		{fmt.Errorf("database is on fire"), ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapError(tt.err))
		})
	}
}

func TestErrorResponseSerialization(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotConnected, "no connection for BOOSTINY", "req-123")

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded Response
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.False(t, decoded.Success)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, ErrCodeNotConnected, decoded.Error.Code)
	assert.Equal(t, "req-123", decoded.Error.RequestID)
	assert.Nil(t, decoded.Data)
}
