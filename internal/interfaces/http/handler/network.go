package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/affstack/backend/internal/application/connector"
	"github.com/affstack/backend/internal/domain/network"
	"github.com/affstack/backend/internal/interfaces/http/dto"
	"github.com/affstack/backend/internal/interfaces/http/middleware"
)

// defaultSyncLogLimit caps the sync-log listing when the caller gives none.
const defaultSyncLogLimit = 20

// NetworkHandler handles partner-network connection and sync endpoints.
type NetworkHandler struct {
	BaseHandler
	connections *connector.ConnectionService
	syncs       *connector.SyncService
	logger      *zap.Logger
}

// NewNetworkHandler creates a NetworkHandler.
func NewNetworkHandler(connections *connector.ConnectionService, syncs *connector.SyncService, logger *zap.Logger) *NetworkHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NetworkHandler{
		connections: connections,
		syncs:       syncs,
		logger:      logger,
	}
}

// RegisterRoutes registers the network routes on the given group.
func (h *NetworkHandler) RegisterRoutes(rg *gin.RouterGroup) {
	networks := rg.Group("/networks")
	{
		networks.GET("", h.List)
		networks.POST("/:code/connect", h.Connect)
		networks.GET("/:code/callback", h.OAuthCallback)
		networks.DELETE("/:code", h.Disconnect)
		networks.GET("/:code/test", h.Test)
		networks.POST("/:code/sync", h.Sync)
		networks.GET("/:code/sync-logs", h.SyncLogs)
	}
}

// networkCode parses the :code path parameter.
func networkCode(c *gin.Context) network.Code {
	return network.Code(c.Param("code"))
}

// List returns every supported network with the caller's connection state.
func (h *NetworkHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}

	overview, err := h.connections.Overview(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	responses := make([]dto.NetworkResponse, 0, len(overview))
	for _, row := range overview {
		responses = append(responses, dto.NewNetworkResponse(row))
	}
	h.Success(c, responses)
}

// Connect stores credentials for a network. OAuth networks get the consent
// URL instead; every other auth method verifies and persists the posted
// material.
func (h *NetworkHandler) Connect(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}
	code := networkCode(c)

	if network.AuthMethodFor(code) == network.AuthMethodOAuth {
		authURL, err := h.connections.BeginOAuth(c.Request.Context(), userID, code)
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
		h.Success(c, dto.OAuthRedirectResponse{AuthorizationURL: authURL})
		return
	}

	var req dto.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+middleware.ValidationErrorMessage(err))
		return
	}
	conn, err := h.connections.Connect(c.Request.Context(), userID, code, req.ToInput())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, dto.NewConnectionResponse(conn))
}

// OAuthCallback finishes the authorization-code flow.
func (h *NetworkHandler) OAuthCallback(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}
	authorizationCode := c.Query("code")
	if authorizationCode == "" {
		h.BadRequest(c, "Missing authorization code")
		return
	}

	conn, err := h.connections.CompleteOAuth(c.Request.Context(), userID, networkCode(c), authorizationCode)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, dto.NewConnectionResponse(conn))
}

// Disconnect clears the stored credential for a network.
func (h *NetworkHandler) Disconnect(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}
	if err := h.connections.Disconnect(c.Request.Context(), userID, networkCode(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.NoContent(c)
}

// Test verifies the stored credential against the partner.
func (h *NetworkHandler) Test(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}
	if err := h.connections.Test(c.Request.Context(), userID, networkCode(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, gin.H{"status": "ok"})
}

// Sync runs a commission sync over the requested date range.
func (h *NetworkHandler) Sync(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}

	// An empty body means the default trailing window.
	var req dto.SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "Invalid request body: "+middleware.ValidationErrorMessage(err))
			return
		}
	}
	dateRange, err := req.ToDateRange()
	if err != nil {
		h.BadRequest(c, "Invalid date range: "+err.Error())
		return
	}

	code := networkCode(c)
	report, err := h.syncs.Sync(c.Request.Context(), userID, code, dateRange)
	if err != nil {
		h.logger.Warn("sync failed",
			zap.String("network", code.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err))
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, dto.NewSyncReportResponse(report))
}

// SyncLogs lists recent sync runs for a network.
func (h *NetworkHandler) SyncLogs(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}
	limit := defaultSyncLogLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			h.BadRequest(c, "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}

	logs, err := h.syncs.RecentLogs(c.Request.Context(), userID, networkCode(c), limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	responses := make([]dto.SyncLogResponse, 0, len(logs))
	for _, log := range logs {
		responses = append(responses, dto.NewSyncLogResponse(log))
	}
	h.Success(c, responses)
}
