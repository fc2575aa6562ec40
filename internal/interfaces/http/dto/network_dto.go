package dto

import (
	"time"

	"github.com/affstack/backend/internal/application/connector"
	"github.com/affstack/backend/internal/domain/network"
)

// apiDateFormat is the wire format for calendar dates.
const apiDateFormat = "2006-01-02"

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

// ConnectRequest carries manually supplied credentials. Which fields are
// required depends on the network's auth method; the service validates
// completeness.
type ConnectRequest struct {
	APIKey    string `json:"api_key" binding:"omitempty,max=4096"`
	Cookie    string `json:"cookie" binding:"omitempty,max=16384"`
	ContactID string `json:"contact_id" binding:"omitempty,max=64"`
	AgencyID  string `json:"agency_id" binding:"omitempty,max=64"`
}

// ToInput converts the request into the application input.
func (r *ConnectRequest) ToInput() connector.ConnectInput {
	return connector.ConnectInput{
		APIKey:    r.APIKey,
		Cookie:    r.Cookie,
		ContactID: r.ContactID,
		AgencyID:  r.AgencyID,
	}
}

// SyncRequest selects the date range to sync. Both dates empty means the
// default trailing window.
type SyncRequest struct {
	StartDate string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

// ToDateRange parses the request dates. A fully empty request yields the
// zero range, which the sync service replaces with its default window.
func (r *SyncRequest) ToDateRange() (network.DateRange, error) {
	if r.StartDate == "" && r.EndDate == "" {
		return network.DateRange{}, nil
	}
	start, err := time.Parse(apiDateFormat, r.StartDate)
	if err != nil {
		return network.DateRange{}, err
	}
	end, err := time.Parse(apiDateFormat, r.EndDate)
	if err != nil {
		return network.DateRange{}, err
	}
	return network.NewDateRange(start, end)
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

// NetworkResponse is one supported network with the caller's connection state
type NetworkResponse struct {
	Code        string  `json:"code"`
	DisplayName string  `json:"display_name"`
	AuthMethod  string  `json:"auth_method"`
	Status      string  `json:"status"`
	LastSyncAt  *string `json:"last_sync_at,omitempty"`
	ExpiresAt   *string `json:"expires_at,omitempty"`
}

// NewNetworkResponse maps an overview row
func NewNetworkResponse(row connector.NetworkOverview) NetworkResponse {
	return NetworkResponse{
		Code:        row.Code.String(),
		DisplayName: row.DisplayName,
		AuthMethod:  row.AuthMethod.String(),
		Status:      row.Status.String(),
		LastSyncAt:  formatTimePtr(row.LastSyncAt),
		ExpiresAt:   formatTimePtr(row.ExpiresAt),
	}
}

// ConnectionResponse is the state of one connection after a mutation
type ConnectionResponse struct {
	NetworkCode string  `json:"network_code"`
	Status      string  `json:"status"`
	ExpiresAt   *string `json:"expires_at,omitempty"`
}

// NewConnectionResponse maps a connection entity
func NewConnectionResponse(conn *network.Connection) ConnectionResponse {
	return ConnectionResponse{
		NetworkCode: conn.NetworkCode.String(),
		Status:      conn.Status.String(),
		ExpiresAt:   formatTimePtr(conn.ExpiresAt),
	}
}

// OAuthRedirectResponse carries the consent URL starting an OAuth flow
type OAuthRedirectResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}

// SyncReportResponse is the aggregate of one finished sync run
type SyncReportResponse struct {
	Success          bool   `json:"success"`
	RecordsProcessed int    `json:"records_processed"`
	RecordsSkipped   int    `json:"records_skipped"`
	TotalRevenue     string `json:"total_revenue"`
	Message          string `json:"message,omitempty"`
}

// NewSyncReportResponse maps a sync report
func NewSyncReportResponse(report *network.Report) SyncReportResponse {
	return SyncReportResponse{
		Success:          report.Success,
		RecordsProcessed: report.RecordsProcessed,
		RecordsSkipped:   report.RecordsSkipped,
		TotalRevenue:     report.TotalRevenue.StringFixed(2),
		Message:          report.Message,
	}
}

// SyncLogResponse is one audit row of a past sync run
type SyncLogResponse struct {
	ID               string  `json:"id"`
	NetworkCode      string  `json:"network_code"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	Status           string  `json:"status"`
	RecordsProcessed int     `json:"records_processed"`
	RecordsSkipped   int     `json:"records_skipped"`
	TotalRevenue     string  `json:"total_revenue"`
	ErrorMessage     string  `json:"error_message,omitempty"`
	StartedAt        string  `json:"started_at"`
	FinishedAt       *string `json:"finished_at,omitempty"`
}

// NewSyncLogResponse maps a sync log entity
func NewSyncLogResponse(log network.SyncLog) SyncLogResponse {
	return SyncLogResponse{
		ID:               log.ID.String(),
		NetworkCode:      log.NetworkCode.String(),
		StartDate:        log.StartDate.Format(apiDateFormat),
		EndDate:          log.EndDate.Format(apiDateFormat),
		Status:           log.Status.String(),
		RecordsProcessed: log.RecordsProcessed,
		RecordsSkipped:   log.RecordsSkipped,
		TotalRevenue:     log.TotalRevenue.StringFixed(2),
		ErrorMessage:     log.ErrorMessage,
		StartedAt:        log.StartedAt.Format(time.RFC3339),
		FinishedAt:       formatTimePtr(log.FinishedAt),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
