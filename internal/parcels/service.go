package parcels

import (
	"context"
	"errors"
	"fmt"
)

// Service owns parcel business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Intake registers one parcel in pending state.
func (s *Service) Intake(ctx context.Context, req IntakeRequest) (Parcel, error) {
	if !req.DeliveryType.IsValid() {
		return Parcel{}, fmt.Errorf("parcels: invalid delivery type %q", req.DeliveryType)
	}
	if req.CODAmount.IsNegative() {
		return Parcel{}, ErrInvalidAmount
	}
	return s.repo.Insert(ctx, Parcel{
		TrackingNumber: req.TrackingNumber,
		CODAmount:      req.CODAmount,
		Status:         StatusPending,
		DeliveryType:   req.DeliveryType,
	})
}

// BulkIntake registers imported rows one by one, reporting per-row outcomes.
// A duplicate tracking number skips the row without failing the batch.
func (s *Service) BulkIntake(ctx context.Context, req BulkIntakeRequest) []BulkRowResult {
	results := make([]BulkRowResult, 0, len(req.Rows))
	for _, row := range req.Rows {
		p, err := s.Intake(ctx, row)
		if err != nil {
			results = append(results, BulkRowResult{TrackingNumber: row.TrackingNumber, Error: err.Error()})
			continue
		}
		results = append(results, BulkRowResult{TrackingNumber: row.TrackingNumber, ParcelID: p.ID})
	}
	return results
}

// Get returns one parcel.
func (s *Service) Get(ctx context.Context, id int64) (Parcel, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByTracking returns one parcel by its tracking number.
func (s *Service) GetByTracking(ctx context.Context, tracking string) (Parcel, error) {
	return s.repo.GetByTracking(ctx, tracking)
}

// List returns parcels matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Parcel, int, error) {
	return s.repo.List(ctx, filter)
}

// AssignDriver hands a pending parcel to a driver.
func (s *Service) AssignDriver(ctx context.Context, id, driverID int64) (Parcel, error) {
	if driverID <= 0 {
		return Parcel{}, errors.New("parcels: driver id required")
	}
	if err := s.repo.AssignDriver(ctx, id, driverID); err != nil {
		return Parcel{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// Dispatch sends an assigned parcel out for delivery.
func (s *Service) Dispatch(ctx context.Context, id int64) (Parcel, error) {
	ok, err := s.repo.SetStatus(ctx, id, StatusAssigned, StatusDispatched)
	if err != nil {
		return Parcel{}, err
	}
	if !ok {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return Parcel{}, err
		}
		return Parcel{}, ErrCannotDispatch
	}
	return s.repo.GetByID(ctx, id)
}

// MarkDelivered transitions the parcel to delivered. The delivered_at stamp
// is written at most once; a second attempt is rejected.
func (s *Service) MarkDelivered(ctx context.Context, id int64) (Parcel, error) {
	ok, err := s.repo.MarkDelivered(ctx, id)
	if err != nil {
		return Parcel{}, err
	}
	if !ok {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return Parcel{}, err
		}
		if current.DeliveredAt != nil {
			return Parcel{}, ErrAlreadyDelivered
		}
		return Parcel{}, ErrCannotDeliver
	}
	return s.repo.GetByID(ctx, id)
}

// MarkReturned records a failed hand-off coming back to the hub.
func (s *Service) MarkReturned(ctx context.Context, id int64) (Parcel, error) {
	ok, err := s.repo.SetStatus(ctx, id, StatusDispatched, StatusReturned)
	if err != nil {
		return Parcel{}, err
	}
	if !ok {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return Parcel{}, err
		}
		return Parcel{}, ErrCannotDeliver
	}
	return s.repo.GetByID(ctx, id)
}
