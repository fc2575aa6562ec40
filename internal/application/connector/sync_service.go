package connector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/affstack/backend/internal/domain/commission"
	"github.com/affstack/backend/internal/domain/network"
	"github.com/affstack/backend/internal/infrastructure/logger"
	"github.com/affstack/backend/internal/infrastructure/telemetry"
)

// maxSyncPages bounds the pagination loop against partners that never stop
// signalling more pages.
const maxSyncPages = 1000

// SyncOptions are the orchestration knobs, wired from config.
type SyncOptions struct {
	// RunTimeout caps one whole sync run
	RunTimeout time.Duration
	// RequestTimeout caps each page request
	RequestTimeout time.Duration
	// DefaultDaysBack sizes the range when the caller gives none
	DefaultDaysBack int
}

func (o *SyncOptions) applyDefaults() {
	if o.RunTimeout <= 0 {
		o.RunTimeout = 10 * time.Minute
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	if o.DefaultDaysBack <= 0 {
		o.DefaultDaysBack = 30
	}
}

// CredentialResolver resolves a connection's credential, refreshing where the
// network supports it. Satisfied by ConnectionService.
type CredentialResolver interface {
	ResolveCredential(ctx context.Context, conn *network.Connection) (network.Credential, error)
}

// ---------------------------------------------------------------------------
// SyncService
// ---------------------------------------------------------------------------

// SyncService orchestrates one commission sync: resolve the connection,
// page through the partner's report, normalize rows, and replace the date
// range atomically. Runs for the same (user, network) are serialized by the
// run guard.
type SyncService struct {
	connections network.ConnectionRepository
	purchases   commission.PurchaseRepository
	coupons     commission.CouponRepository
	syncLogs    network.SyncLogRepository
	registry    Registry
	resolver    CredentialResolver
	normalizer  *Normalizer
	pacer       network.Pacer
	guard       RunGuard
	plans       PlanLimiter
	opts        SyncOptions
	logger      *zap.Logger
}

// NewSyncService creates a SyncService. A nil plan limiter allows everything.
func NewSyncService(
	connections network.ConnectionRepository,
	purchases commission.PurchaseRepository,
	coupons commission.CouponRepository,
	syncLogs network.SyncLogRepository,
	registry Registry,
	resolver CredentialResolver,
	normalizer *Normalizer,
	pacer network.Pacer,
	guard RunGuard,
	plans PlanLimiter,
	opts SyncOptions,
	logger *zap.Logger,
) *SyncService {
	opts.applyDefaults()
	if plans == nil {
		plans = AllowAllPlanLimiter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		connections: connections,
		purchases:   purchases,
		coupons:     coupons,
		syncLogs:    syncLogs,
		registry:    registry,
		resolver:    resolver,
		normalizer:  normalizer,
		pacer:       pacer,
		guard:       guard,
		plans:       plans,
		opts:        opts,
		logger:      logger,
	}
}

// Sync runs one sync for a user and network over the date range. A zero
// range defaults to the trailing window. The whole range is replaced in one
// transaction, so re-running the same range is idempotent.
func (s *SyncService) Sync(ctx context.Context, userID uuid.UUID, code network.Code, dateRange network.DateRange) (*network.Report, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "network_sync", "run")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrNetworkCode, code.String(),
		telemetry.SpanAttrUserID, userID.String(),
	)

	// Correlate every log line in this run with the span and user.
	ctx = logger.ContextWithUserID(ctx, userID.String())
	log := logger.WithLogger(ctx, s.logger)

	if err := s.plans.AllowSync(ctx, userID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	now := time.Now()
	if dateRange.Start.IsZero() {
		var err error
		dateRange, err = network.NewDateRange(now.AddDate(0, 0, -s.opts.DefaultDaysBack), now)
		if err != nil {
			return nil, err
		}
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrDateFrom, dateRange.Start.Format("2006-01-02"),
		telemetry.SpanAttrDateTo, dateRange.End.Format("2006-01-02"),
	)

	adapter, err := s.registry.Get(code)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// Precondition: a connected, resolvable credential. Fails before any
	// partner traffic.
	conn, err := s.connections.FindByUserAndNetwork(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	cred, err := s.resolver.ResolveCredential(ctx, conn)
	if err != nil {
		return nil, err
	}

	guardKey := fmt.Sprintf("%s:%s", userID, code)
	acquired, err := s.guard.Acquire(ctx, guardKey)
	if err != nil {
		return nil, fmt.Errorf("acquiring sync guard: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %s", ErrSyncInProgress, code)
	}
	defer func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), guardKey); err != nil {
			log.Warn("releasing sync guard", zap.Error(err))
		}
	}()

	syncLog := network.NewSyncLog(userID, code, dateRange)
	if err := s.syncLogs.Save(ctx, syncLog); err != nil {
		return nil, fmt.Errorf("recording sync start: %w", err)
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrSyncID, syncLog.ID.String())

	runCtx, cancel := context.WithTimeout(ctx, s.opts.RunTimeout)
	defer cancel()

	report, runErr := s.run(runCtx, adapter, conn, cred, userID, code, dateRange)
	if runErr != nil {
		telemetry.RecordError(span, runErr)
		syncLog.Fail(runErr.Error(), time.Now())
		if saveErr := s.syncLogs.Save(context.WithoutCancel(ctx), syncLog); saveErr != nil {
			log.Error("recording sync failure", zap.Error(saveErr))
		}
		return report, runErr
	}

	syncLog.Complete(report.RecordsProcessed, report.RecordsSkipped, report.TotalRevenue, time.Now())
	if err := s.syncLogs.Save(ctx, syncLog); err != nil {
		log.Error("recording sync completion", zap.Error(err))
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrRowsFetched, report.RecordsProcessed)
	telemetry.SetOK(span)
	return report, nil
}

// RecentLogs lists the most recent sync runs for a user and network.
func (s *SyncService) RecentLogs(ctx context.Context, userID uuid.UUID, code network.Code, limit int) ([]network.SyncLog, error) {
	if !code.IsValid() {
		return nil, fmt.Errorf("%w: %q", network.ErrUnsupportedNetwork, code)
	}
	return s.syncLogs.FindRecent(ctx, userID, code, limit)
}

// ---------------------------------------------------------------------------
// Run internals
// ---------------------------------------------------------------------------

// run fetches, normalizes and persists the range. Transport and auth errors
// abort; row errors only skip the row.
func (s *SyncService) run(
	ctx context.Context,
	adapter network.Adapter,
	conn *network.Connection,
	cred network.Credential,
	userID uuid.UUID,
	code network.Code,
	dateRange network.DateRange,
) (*network.Report, error) {
	log := logger.WithLogger(ctx, s.logger)
	report := &network.Report{TotalRevenue: decimal.Zero}

	var purchases []*commission.Purchase
	touchedCoupons := make(map[uuid.UUID]struct{})

	for page := 1; page <= maxSyncPages; page++ {
		if err := s.pacer.Wait(ctx); err != nil {
			return report, fmt.Errorf("pacing page %d: %w", page, err)
		}

		fetched, err := s.fetchPage(ctx, adapter, cred, dateRange, page)
		if err != nil {
			if errors.Is(err, network.ErrAuthFailed) {
				conn.Fail(err.Error(), time.Now())
				if saveErr := s.connections.Save(context.WithoutCancel(ctx), conn); saveErr != nil {
					log.Error("saving failed connection state", zap.Error(saveErr))
				}
			}
			report.Message = err.Error()
			return report, err
		}

		for _, tx := range fetched.Transactions {
			purchase, err := s.normalizer.ToCanonical(ctx, userID, code, tx)
			if err != nil {
				report.RecordsSkipped++
				log.Debug("skipping row",
					zap.String("network", code.String()),
					zap.String("network_order_id", tx.NetworkOrderID),
					zap.Error(err))
				continue
			}
			purchases = append(purchases, purchase)
			report.TotalRevenue = report.TotalRevenue.Add(purchase.Revenue)
			if purchase.CouponID != nil {
				touchedCoupons[*purchase.CouponID] = struct{}{}
			}
		}

		if fetched.RateLimited {
			// Partner asked us to back off; take an extra pacing slot.
			if err := s.pacer.Wait(ctx); err != nil {
				return report, fmt.Errorf("pacing after rate limit: %w", err)
			}
		}
		if !fetched.HasMore && len(fetched.Transactions) < adapter.PageSize() {
			break
		}
	}

	// Coupons referenced by the rows about to be deleted need their counters
	// recomputed too, otherwise a re-run leaves stale usage behind.
	if previous, err := s.purchases.FindCouponIDsInRange(ctx, userID, code, dateRange); err != nil {
		log.Warn("listing coupons in range", zap.Error(err))
	} else {
		for _, id := range previous {
			touchedCoupons[id] = struct{}{}
		}
	}

	if err := s.purchases.ReplaceRange(ctx, userID, code, dateRange, purchases); err != nil {
		report.Message = err.Error()
		return report, fmt.Errorf("replacing purchase range: %w", err)
	}
	report.RecordsProcessed = len(purchases)

	if len(touchedCoupons) > 0 {
		ids := make([]uuid.UUID, 0, len(touchedCoupons))
		for id := range touchedCoupons {
			ids = append(ids, id)
		}
		if err := s.coupons.RecalculateUsage(ctx, ids); err != nil {
			log.Warn("recalculating coupon usage", zap.Error(err))
		}
	}

	now := time.Now()
	conn.MarkSynced(now)
	if err := s.connections.Save(ctx, conn); err != nil {
		log.Error("saving last sync time", zap.Error(err))
	}

	report.Success = true
	report.Message = fmt.Sprintf("synced %d records from %s", report.RecordsProcessed, code.DisplayName())
	log.Info("sync completed",
		zap.String("network", code.String()),
		zap.Int("processed", report.RecordsProcessed),
		zap.Int("skipped", report.RecordsSkipped),
		zap.String("revenue_usd", report.TotalRevenue.String()))
	return report, nil
}

// fetchPage runs one page request under its own timeout.
func (s *SyncService) fetchPage(ctx context.Context, adapter network.Adapter, cred network.Credential, dateRange network.DateRange, page int) (*network.Page, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()
	fetched, err := adapter.FetchPage(reqCtx, cred, dateRange, page)
	if err != nil {
		return nil, fmt.Errorf("fetching page %d: %w", page, err)
	}
	return fetched, nil
}
