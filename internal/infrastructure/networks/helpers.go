// Package networks contains the per-partner adapter implementations of the
// network.Adapter port. Each adapter fixes one partner's endpoints, request
// shape, authentication and response parsing; the orchestrator never sees
// anything but the port.
package networks

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/affstack/backend/internal/domain/network"
)

// maxResponseSize caps partner response bodies (10MB).
const maxResponseSize = 10 * 1024 * 1024

// defaultTimeoutSeconds bounds a single partner request when the adapter
// config does not override it.
const defaultTimeoutSeconds = 30

// readBody drains a response body with the size cap applied.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", network.ErrTransport, err)
	}
	return body, nil
}

// checkStatus converts HTTP error statuses to the domain taxonomy. 401/403
// map to auth failures, 429 to rate limiting, everything else >=400 to a
// transport failure.
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", network.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d", network.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: HTTP %d", network.ErrTransport, resp.StatusCode)
	default:
		return nil
	}
}

// browserHeaders sets the full browser-like header set some partners require
// before they serve API responses.
func browserHeaders(req *http.Request, origin string) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", origin+"/")
}

// SanitizeDecimal parses a numeric-looking text cell. Every character except
// digits, '.' and '-' is stripped before parsing; empty or unparsable input
// yields 0.
func SanitizeDecimal(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseDate tries a layout and returns the zero time on failure; callers
// treat zero dates as a validation problem for the row, not the batch.
func parseDate(layout, value string) time.Time {
	t, err := time.Parse(layout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return t
}

// timeoutOrDefault converts a configured timeout to a duration.
func timeoutOrDefault(seconds int) time.Duration {
	if seconds <= 0 {
		seconds = defaultTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}
