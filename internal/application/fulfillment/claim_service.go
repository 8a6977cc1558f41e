package fulfillment

import (
	"context"
	"time"

	"github.com/google/uuid"
	appinventory "github.com/wms/backend/internal/application/inventory"
	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultClaimLease bounds an untouched claim before the sweeper may
// reclaim it
const DefaultClaimLease = 15 * time.Minute

// ClaimService is the claim arbiter: it grants one worker exclusive rights
// over an order and mediates release. The claim-or-lose race is decided by a
// conditional status update plus the claim row's unique index, both inside
// one transaction - exactly one of two simultaneous claimants wins.
type ClaimService struct {
	txScope        appinventory.TransactionScope
	orderRepo      fulfillment.OrderRepository
	claimRepo      fulfillment.ClaimRepository
	leaseDuration  time.Duration
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewClaimService creates a new ClaimService
func NewClaimService(
	txScope appinventory.TransactionScope,
	orderRepo fulfillment.OrderRepository,
	claimRepo fulfillment.ClaimRepository,
	leaseDuration time.Duration,
	logger *zap.Logger,
) *ClaimService {
	if leaseDuration <= 0 {
		leaseDuration = DefaultClaimLease
	}
	return &ClaimService{
		txScope:       txScope,
		orderRepo:     orderRepo,
		claimRepo:     claimRepo,
		leaseDuration: leaseDuration,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ClaimService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ClaimOrder grants workerID exclusive rights over the order. A lost race
// surfaces as ErrAlreadyClaimed; the caller re-reads the queue rather than
// retrying the same order.
func (s *ClaimService) ClaimOrder(ctx context.Context, orderID, workerID uuid.UUID) (*OrderResponse, error) {
	if workerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WORKER", "Worker ID cannot be empty")
	}

	claim, err := fulfillment.NewClaim(orderID, workerID, s.leaseDuration)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		if err := repos.OrderRepo().Claim(ctx, orderID, workerID, claim.ClaimedAt); err != nil {
			return err
		}
		return repos.ClaimRepo().Create(ctx, claim)
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, fulfillment.NewOrderClaimedEvent(order, workerID))
	s.logger.Info("Order claimed",
		zap.String("order_id", orderID.String()),
		zap.String("worker_id", workerID.String()),
	)

	resp := NewOrderResponse(order)
	return &resp, nil
}

// ReleaseOrder returns a claimed order to the queue. Refused with
// ErrReleaseRefused once any pick progress exists - a claim is sticky after
// work has begun. When workerID is non-nil the release is additionally
// restricted to the claim holder.
func (s *ClaimService) ReleaseOrder(ctx context.Context, orderID uuid.UUID, workerID *uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if workerID != nil {
		claim, err := s.claimRepo.FindByOrderID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if !claim.HeldBy(*workerID) {
			return nil, shared.NewDomainError("NOT_CLAIM_HOLDER", "Order is claimed by another worker")
		}
	}

	// aggregate-level guard: zero progress only
	if err := order.Release(); err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		if err := repos.OrderRepo().Release(ctx, orderID); err != nil {
			return err
		}
		return repos.ClaimRepo().DeleteByOrderID(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, order)
	s.logger.Info("Order released back to queue",
		zap.String("order_id", orderID.String()),
	)

	resp := NewOrderResponse(order)
	return &resp, nil
}

func (s *ClaimService) publish(ctx context.Context, event shared.DomainEvent) {
	if s.eventPublisher == nil {
		return
	}
	_ = s.eventPublisher.Publish(ctx, event)
}

func (s *ClaimService) publishDomainEvents(ctx context.Context, order *fulfillment.Order) {
	if s.eventPublisher == nil {
		return
	}
	events := order.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	order.ClearDomainEvents()
}
