package fulfillment

import (
	"context"
	"errors"
	"time"

	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ClaimLeaseService sweeps expired claim leases in the background. A worker
// who claims an order and walks away would otherwise block it forever; the
// sweeper returns such orders to the queue. The zero-progress rule still
// applies: an expired claim whose order shows any pick progress is left
// alone - only an explicit operator action moves those.
type ClaimLeaseService struct {
	claimRepo    fulfillment.ClaimRepository
	claimService *ClaimService
	logger       *zap.Logger
}

// NewClaimLeaseService creates a new ClaimLeaseService
func NewClaimLeaseService(
	claimRepo fulfillment.ClaimRepository,
	claimService *ClaimService,
	logger *zap.Logger,
) *ClaimLeaseService {
	return &ClaimLeaseService{
		claimRepo:    claimRepo,
		claimService: claimService,
		logger:       logger,
	}
}

// SweepStats contains statistics about one sweep run
type SweepStats struct {
	TotalExpired int       `json:"total_expired"`
	Released     int       `json:"released"`
	KeptSticky   int       `json:"kept_sticky"`
	Failed       int       `json:"failed"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// SweepExpiredClaims releases every expired, untouched claim through the
// same guarded release path a worker would use
func (s *ClaimLeaseService) SweepExpiredClaims(ctx context.Context) (*SweepStats, error) {
	stats := &SweepStats{ProcessedAt: time.Now()}

	expired, err := s.claimRepo.FindExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("Failed to find expired claims", zap.Error(err))
		return nil, err
	}

	stats.TotalExpired = len(expired)
	if stats.TotalExpired == 0 {
		s.logger.Debug("No expired claims found")
		return stats, nil
	}

	for i := range expired {
		claim := &expired[i]
		_, err := s.claimService.ReleaseOrder(ctx, claim.OrderID, nil)
		switch {
		case err == nil:
			stats.Released++
			s.logger.Info("Released expired claim",
				zap.String("order_id", claim.OrderID.String()),
				zap.String("worker_id", claim.WorkerID.String()),
				zap.Time("lease_expired_at", claim.LeaseExpiresAt),
			)
		case errors.Is(err, shared.ErrReleaseRefused):
			// progress exists, the claim stays sticky
			stats.KeptSticky++
		case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrInvalidState):
			// order completed or already released between read and release
			stats.KeptSticky++
		default:
			stats.Failed++
			s.logger.Error("Failed to release expired claim",
				zap.String("order_id", claim.OrderID.String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Completed claim lease sweep",
		zap.Int("total", stats.TotalExpired),
		zap.Int("released", stats.Released),
		zap.Int("kept_sticky", stats.KeptSticky),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

// Run sweeps on the given interval until the context is cancelled
func (s *ClaimLeaseService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Claim lease sweeper started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Claim lease sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepExpiredClaims(ctx); err != nil {
				s.logger.Error("Claim lease sweep failed", zap.Error(err))
			}
		}
	}
}
