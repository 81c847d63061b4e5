package settlement

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/colisnet/colisnet/internal/collections"
	"github.com/colisnet/colisnet/internal/parcels"
	"github.com/colisnet/colisnet/internal/recoltes"
	"github.com/colisnet/colisnet/internal/shared"
)

// AuditPort records domain events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles settlement imports.
type Service struct {
	repo  Repository
	rates collections.Rates
	audit AuditPort
}

// NewService builds a Service.
func NewService(repo Repository, rates collections.Rates, audit AuditPort) *Service {
	return &Service{repo: repo, rates: rates, audit: audit}
}

// Import settles a driver sheet. Each tracking number that resolves to a
// delivered, uncollected home delivery becomes a collection; every created
// collection lands in one fresh recolte. The whole import is a single
// transaction, so a failure on any created row rolls everything back.
func (s *Service) Import(ctx context.Context, actor shared.Actor, req ImportRequest) (Result, error) {
	if !actor.Role.CanModerate() {
		return Result{}, shared.ErrForbidden
	}
	if len(req.TrackingNumbers) == 0 {
		return Result{}, ErrNoRows
	}
	requested := decimal.Zero
	if req.DriverCommission != "" {
		parsed, err := decimal.NewFromString(req.DriverCommission)
		if err != nil {
			return Result{}, fmt.Errorf("parse driver commission: %w", err)
		}
		requested = parsed
	}

	result := Result{DriverID: req.DriverID}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var created []int64
		total := decimal.Zero
		for _, tracking := range req.TrackingNumbers {
			row := RowResult{TrackingNumber: tracking, Outcome: RowSkipped}
			parcel, err := tx.ParcelByTracking(ctx, tracking)
			switch {
			case errors.Is(err, ErrParcelUnknown):
				row.Reason = "unknown tracking number"
			case err != nil:
				return err
			case parcel.Status != string(parcels.StatusDelivered):
				row.Reason = "parcel is not delivered"
			case parcel.DeliveryType != string(parcels.DeliveryHome):
				row.Reason = "not a home delivery"
			case parcel.Collected:
				row.Reason = "already collected"
			default:
				margin, commission := s.rates.Split(parcels.DeliveryHome, requested)
				id, err := tx.InsertCollection(ctx, parcel.ID, parcel.CODAmount, parcel.CODAmount, margin, commission, req.DriverID, actor.UserID)
				if err != nil {
					return err
				}
				row.Outcome = RowCreated
				row.Reason = ""
				row.CollectionID = id
				created = append(created, id)
				total = total.Add(parcel.CODAmount)
			}
			result.Rows = append(result.Rows, row)
		}
		if len(created) == 0 {
			return ErrNothingImported
		}
		code, err := recoltes.GenerateUniqueCode(ctx, tx.CodeExists)
		if err != nil {
			return err
		}
		note := fmt.Sprintf("driver settlement #%d", req.DriverID)
		recolteID, err := tx.InsertRecolte(ctx, code, note, actor.UserID)
		if err != nil {
			return err
		}
		if err := tx.AttachCollections(ctx, recolteID, created); err != nil {
			return err
		}
		result.RecolteID = recolteID
		result.RecolteCode = code
		result.Total = total
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNothingImported) {
			// keep the per-row skip reasons so the caller can see why
			return result, err
		}
		return Result{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.UserID,
			Action:   "settlement.import",
			Entity:   "recolte",
			EntityID: strconv.FormatInt(result.RecolteID, 10),
			Meta: map[string]any{
				"driver_id": req.DriverID,
				"rows":      len(result.Rows),
			},
		})
	}
	return result, nil
}
