package networks

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/affstack/backend/internal/domain/network"
)

// RatePacer spaces page requests with a token bucket so partner panels are
// not hammered during a full-range sync.
type RatePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer builds a pacer that allows one request per interval. A
// non-positive interval disables pacing.
func NewRatePacer(interval time.Duration) *RatePacer {
	if interval <= 0 {
		return &RatePacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RatePacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (p *RatePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// NopPacer never blocks. Used in tests and for networks without a rate cap.
type NopPacer struct{}

func (NopPacer) Wait(context.Context) error { return nil }

var (
	_ network.Pacer = (*RatePacer)(nil)
	_ network.Pacer = NopPacer{}
)
