package parcels

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	seq     int64
	parcels map[int64]*Parcel
}

func newMockRepository() *mockRepository {
	return &mockRepository{parcels: make(map[int64]*Parcel)}
}

func (m *mockRepository) Insert(ctx context.Context, p Parcel) (Parcel, error) {
	for _, existing := range m.parcels {
		if existing.TrackingNumber == p.TrackingNumber {
			return Parcel{}, ErrTrackingTaken
		}
	}
	m.seq++
	p.ID = m.seq
	m.parcels[p.ID] = &p
	return p, nil
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (Parcel, error) {
	p, ok := m.parcels[id]
	if !ok {
		return Parcel{}, ErrNotFound
	}
	return *p, nil
}

func (m *mockRepository) GetByTracking(ctx context.Context, tracking string) (Parcel, error) {
	for _, p := range m.parcels {
		if p.TrackingNumber == tracking {
			return *p, nil
		}
	}
	return Parcel{}, ErrNotFound
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]Parcel, int, error) {
	var out []Parcel
	for _, p := range m.parcels {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.DriverID != nil && (p.DriverID == nil || *p.DriverID != *filter.DriverID) {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockRepository) AssignDriver(ctx context.Context, id, driverID int64) error {
	p, ok := m.parcels[id]
	if !ok {
		return ErrNotFound
	}
	if !p.Status.CanAssign() {
		return ErrCannotAssign
	}
	p.DriverID = &driverID
	p.Status = StatusAssigned
	return nil
}

func (m *mockRepository) SetStatus(ctx context.Context, id int64, from, to Status) (bool, error) {
	p, ok := m.parcels[id]
	if !ok {
		return false, nil
	}
	if p.Status != from {
		return false, nil
	}
	p.Status = to
	return true, nil
}

func (m *mockRepository) MarkDelivered(ctx context.Context, id int64) (bool, error) {
	p, ok := m.parcels[id]
	if !ok {
		return false, nil
	}
	if p.DeliveredAt != nil || !p.Status.CanDeliver() {
		return false, nil
	}
	now := time.Now()
	p.Status = StatusDelivered
	p.DeliveredAt = &now
	return true, nil
}

func intake(t *testing.T, svc *Service, tracking string) Parcel {
	t.Helper()
	p, err := svc.Intake(context.Background(), IntakeRequest{
		TrackingNumber: tracking,
		CODAmount:      decimal.NewFromInt(1500),
		DeliveryType:   DeliveryHome,
	})
	require.NoError(t, err)
	return p
}

func TestIntake(t *testing.T) {
	svc := NewService(newMockRepository())

	p := intake(t, svc, "CN-0001")
	assert.Equal(t, StatusPending, p.Status)
	assert.Nil(t, p.DeliveredAt)

	_, err := svc.Intake(context.Background(), IntakeRequest{
		TrackingNumber: "CN-0002", CODAmount: decimal.NewFromInt(-5), DeliveryType: DeliveryHome,
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Intake(context.Background(), IntakeRequest{
		TrackingNumber: "CN-0003", CODAmount: decimal.NewFromInt(10), DeliveryType: "pigeon",
	})
	assert.Error(t, err)
}

func TestBulkIntakeSkipsDuplicates(t *testing.T) {
	svc := NewService(newMockRepository())

	results := svc.BulkIntake(context.Background(), BulkIntakeRequest{Rows: []IntakeRequest{
		{TrackingNumber: "CN-0001", CODAmount: decimal.NewFromInt(100), DeliveryType: DeliveryHome},
		{TrackingNumber: "CN-0001", CODAmount: decimal.NewFromInt(200), DeliveryType: DeliveryHome},
		{TrackingNumber: "CN-0002", CODAmount: decimal.NewFromInt(300), DeliveryType: DeliveryStopdesk},
	}})

	require.Len(t, results, 3)
	assert.NotZero(t, results[0].ParcelID)
	assert.Empty(t, results[0].Error)
	assert.Zero(t, results[1].ParcelID)
	assert.Equal(t, ErrTrackingTaken.Error(), results[1].Error)
	assert.NotZero(t, results[2].ParcelID)
}

func TestDeliveryLifecycle(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	p := intake(t, svc, "CN-0001")

	p, err := svc.AssignDriver(ctx, p.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, StatusAssigned, p.Status)

	p, err = svc.Dispatch(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDispatched, p.Status)

	p, err = svc.MarkDelivered(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, p.Status)
	assert.NotNil(t, p.DeliveredAt)
}

func TestMarkDeliveredAtMostOnce(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	p := intake(t, svc, "CN-0001")
	_, err := svc.AssignDriver(ctx, p.ID, 12)
	require.NoError(t, err)

	first, err := svc.MarkDelivered(ctx, p.ID)
	require.NoError(t, err)
	stamp := *first.DeliveredAt

	_, err = svc.MarkDelivered(ctx, p.ID)
	assert.ErrorIs(t, err, ErrAlreadyDelivered)

	current, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, current.DeliveredAt.Equal(stamp), "delivered_at must not move")
}

func TestDispatchRequiresAssigned(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	p := intake(t, svc, "CN-0001")
	_, err := svc.Dispatch(ctx, p.ID)
	assert.ErrorIs(t, err, ErrCannotDispatch)

	_, err = svc.Dispatch(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkReturned(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	p := intake(t, svc, "CN-0001")
	_, err := svc.AssignDriver(ctx, p.ID, 12)
	require.NoError(t, err)
	_, err = svc.Dispatch(ctx, p.ID)
	require.NoError(t, err)

	p, err = svc.MarkReturned(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReturned, p.Status)

	_, err = svc.MarkDelivered(ctx, p.ID)
	assert.ErrorIs(t, err, ErrCannotDeliver)
}
