package collections

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/colisnet/colisnet/internal/shared"
)

// AuditPort records domain events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns the collection lifecycle.
type Service struct {
	repo  Repository
	rates Rates
	audit AuditPort
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, rates Rates, audit AuditPort) *Service {
	return &Service{repo: repo, rates: rates, audit: audit, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create records a cash collection against a delivered parcel. The margin
// split, the one-collection-per-parcel rule and the case snapshot refresh all
// happen in one transaction.
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateRequest) (CreateResponse, error) {
	if req.Amount.IsNegative() || req.AmountGiven.IsNegative() {
		return CreateResponse{}, ErrInvalidAmount
	}
	var (
		created Collection
		change  decimal.Decimal
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		parcel, err := tx.ParcelForUpdate(ctx, req.ParcelID)
		if err != nil {
			return err
		}
		if parcel.DeliveredAt == nil {
			return ErrParcelUndelivered
		}
		taken, err := tx.HasCollectionForParcel(ctx, req.ParcelID)
		if err != nil {
			return err
		}
		if taken {
			return ErrParcelCollected
		}
		if req.DriverID != nil && !parcel.IsHomeDelivery() {
			return ErrDriverRequiresHome
		}

		requested := decimal.Zero
		if req.DriverCommission != nil {
			requested = *req.DriverCommission
		}
		margin, driverCommission := s.rates.Split(parcel.DeliveryType, requested)

		created, err = tx.Insert(ctx, Collection{
			ParcelID:         parcel.ID,
			CollectedAt:      s.now(),
			Amount:           req.Amount,
			AmountGiven:      req.AmountGiven,
			Margin:           margin,
			DriverCommission: driverCommission,
			CaseID:           req.CaseID,
			DriverID:         req.DriverID,
			CreatedBy:        actor.UserID,
			ParcelType:       parcel.DeliveryType,
		})
		if err != nil {
			return err
		}
		change = req.AmountGiven.Sub(parcel.CODAmount)
		if req.CaseID != nil {
			return tx.RefreshCaseSnapshot(ctx, *req.CaseID)
		}
		return nil
	})
	if err != nil {
		return CreateResponse{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.UserID,
			Action:   "collection.create",
			Entity:   "collection",
			EntityID: fmt.Sprintf("%d", created.ID),
			Meta:     map[string]any{"parcel_id": created.ParcelID, "amount": created.Amount.String()},
			At:       s.now(),
		})
	}
	return CreateResponse{Collection: created, Change: change}, nil
}

// Reattribute moves an un-recolted collection to another case, refreshing
// the snapshots of both the old and the new case in the same transaction.
func (s *Service) Reattribute(ctx context.Context, id int64, caseID *int64) (Collection, error) {
	var updated Collection
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		recolted, err := tx.IsRecolted(ctx, id)
		if err != nil {
			return err
		}
		if recolted {
			return ErrAlreadyRecolted
		}
		if err := tx.SetCase(ctx, id, caseID); err != nil {
			return err
		}
		if current.CaseID != nil {
			if err := tx.RefreshCaseSnapshot(ctx, *current.CaseID); err != nil {
				return err
			}
		}
		if caseID != nil && (current.CaseID == nil || *caseID != *current.CaseID) {
			if err := tx.RefreshCaseSnapshot(ctx, *caseID); err != nil {
				return err
			}
		}
		updated = current
		updated.CaseID = caseID
		return nil
	})
	if err != nil {
		return Collection{}, err
	}
	return updated, nil
}

// Get returns one collection.
func (s *Service) Get(ctx context.Context, id int64) (Collection, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByCase returns collections attributed to a case, optionally only the
// ones still counted in its live balance.
func (s *Service) ListByCase(ctx context.Context, caseID int64, onlyUnrecolted bool) ([]Collection, error) {
	return s.repo.ListByCase(ctx, caseID, onlyUnrecolted)
}

// Rates exposes the configured commission split, for display.
func (s *Service) Rates() Rates {
	return s.rates
}
