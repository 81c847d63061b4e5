package collections

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colisnet/colisnet/internal/parcels"
	"github.com/colisnet/colisnet/internal/shared"
)

// mockRepository keeps parcels and collections in memory and doubles as the
// TxRepository so WithTx runs the callback against itself.
type mockRepository struct {
	seq         int64
	parcels     map[int64]parcels.Parcel
	collections map[int64]*Collection
	recolted    map[int64]bool
	refreshed   []int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		parcels:     make(map[int64]parcels.Parcel),
		collections: make(map[int64]*Collection),
		recolted:    make(map[int64]bool),
	}
}

func (m *mockRepository) addParcel(id int64, cod string, dt parcels.DeliveryType, delivered bool) {
	p := parcels.Parcel{ID: id, CODAmount: decimal.RequireFromString(cod), Status: parcels.StatusDispatched, DeliveryType: dt}
	if delivered {
		now := time.Now()
		p.Status = parcels.StatusDelivered
		p.DeliveredAt = &now
	}
	m.parcels[id] = p
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (Collection, error) {
	c, ok := m.collections[id]
	if !ok {
		return Collection{}, ErrNotFound
	}
	return *c, nil
}

func (m *mockRepository) ListByCase(ctx context.Context, caseID int64, onlyUnrecolted bool) ([]Collection, error) {
	var out []Collection
	for _, c := range m.collections {
		if c.CaseID == nil || *c.CaseID != caseID {
			continue
		}
		if onlyUnrecolted && m.recolted[c.ID] {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) ParcelForUpdate(ctx context.Context, parcelID int64) (parcels.Parcel, error) {
	p, ok := m.parcels[parcelID]
	if !ok {
		return parcels.Parcel{}, ErrParcelNotFound
	}
	return p, nil
}

func (m *mockRepository) HasCollectionForParcel(ctx context.Context, parcelID int64) (bool, error) {
	for _, c := range m.collections {
		if c.ParcelID == parcelID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) Insert(ctx context.Context, c Collection) (Collection, error) {
	m.seq++
	c.ID = m.seq
	m.collections[c.ID] = &c
	return c, nil
}

func (m *mockRepository) GetForUpdate(ctx context.Context, id int64) (Collection, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRepository) IsRecolted(ctx context.Context, id int64) (bool, error) {
	return m.recolted[id], nil
}

func (m *mockRepository) SetCase(ctx context.Context, id int64, caseID *int64) error {
	c, ok := m.collections[id]
	if !ok {
		return ErrNotFound
	}
	c.CaseID = caseID
	return nil
}

func (m *mockRepository) RefreshCaseSnapshot(ctx context.Context, caseID int64) error {
	m.refreshed = append(m.refreshed, caseID)
	return nil
}

func testRates() Rates {
	return Rates{Stopdesk: decimal.RequireFromString("50"), HomeDelivery: decimal.RequireFromString("100")}
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(v int64) *int64 { return &v }

func TestCreateHomeDeliverySplit(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, testRates(), nil)
	ctx := context.Background()

	repo.addParcel(1, "2500", parcels.DeliveryHome, true)
	commission := amt("40")
	resp, err := svc.Create(ctx, shared.Actor{UserID: 7}, CreateRequest{
		ParcelID:         1,
		Amount:           amt("2500"),
		AmountGiven:      amt("2500"),
		CaseID:           ptr(3),
		DriverID:         ptr(12),
		DriverCommission: &commission,
	})
	require.NoError(t, err)

	// company keeps the home delivery rate minus the driver share
	assert.True(t, resp.Collection.Margin.Equal(amt("60")))
	require.NotNil(t, resp.Collection.DriverCommission)
	assert.True(t, resp.Collection.DriverCommission.Equal(amt("40")))
	assert.True(t, resp.Change.IsZero())
	assert.Contains(t, repo.refreshed, int64(3))
}

func TestCreateStopdeskFlatRate(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, testRates(), nil)
	ctx := context.Background()

	repo.addParcel(1, "1000", parcels.DeliveryStopdesk, true)
	resp, err := svc.Create(ctx, shared.Actor{UserID: 7}, CreateRequest{
		ParcelID: 1, Amount: amt("1000"), AmountGiven: amt("1200"),
	})
	require.NoError(t, err)

	assert.True(t, resp.Collection.Margin.Equal(amt("50")))
	assert.Nil(t, resp.Collection.DriverCommission)
	assert.True(t, resp.Change.Equal(amt("200")))
}

func TestCreateMarginFlooredAtZero(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, testRates(), nil)
	ctx := context.Background()

	repo.addParcel(1, "500", parcels.DeliveryHome, true)
	commission := amt("150")
	resp, err := svc.Create(ctx, shared.Actor{UserID: 7}, CreateRequest{
		ParcelID: 1, Amount: amt("500"), AmountGiven: amt("500"), DriverCommission: &commission,
	})
	require.NoError(t, err)

	assert.True(t, resp.Collection.Margin.IsZero())
	require.NotNil(t, resp.Collection.DriverCommission)
	assert.True(t, resp.Collection.DriverCommission.Equal(amt("150")))
}

func TestCreateRejectsUndeliveredParcel(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, testRates(), nil)

	repo.addParcel(1, "500", parcels.DeliveryHome, false)
	_, err := svc.Create(context.Background(), shared.Actor{UserID: 7}, CreateRequest{
		ParcelID: 1, Amount: amt("500"), AmountGiven: amt("500"),
	})
	assert.ErrorIs(t, err, ErrParcelUndelivered)
}

func TestCreateOnePerParcel(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, testRates(), nil)
	ctx := context.Background()

	repo.addParcel(1, "500", parcels.DeliveryHome, true)
	req := CreateRequest{ParcelID: 1, Amount: amt("500"), AmountGiven: amt("500")}

	_, err := svc.Create(ctx, shared.Actor{UserID: 7}, req)
	require.NoError(t, err)
	_, err = svc.Create(ctx, shared.Actor{UserID: 7}, req)
	assert.ErrorIs(t, err, ErrParcelCollected)
}

func TestCreateDriverRequiresHomeDelivery(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, testRates(), nil)

	repo.addParcel(1, "500", parcels.DeliveryStopdesk, true)
	_, err := svc.Create(context.Background(), shared.Actor{UserID: 7}, CreateRequest{
		ParcelID: 1, Amount: amt("500"), AmountGiven: amt("500"), DriverID: ptr(12),
	})
	assert.ErrorIs(t, err, ErrDriverRequiresHome)
}

func TestCreateRejectsNegativeAmounts(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, testRates(), nil)

	_, err := svc.Create(context.Background(), shared.Actor{UserID: 7}, CreateRequest{
		ParcelID: 1, Amount: amt("-1"), AmountGiven: amt("0"),
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestReattribute(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, testRates(), nil)
	ctx := context.Background()

	repo.addParcel(1, "500", parcels.DeliveryHome, true)
	resp, err := svc.Create(ctx, shared.Actor{UserID: 7}, CreateRequest{
		ParcelID: 1, Amount: amt("500"), AmountGiven: amt("500"), CaseID: ptr(3),
	})
	require.NoError(t, err)
	repo.refreshed = nil

	moved, err := svc.Reattribute(ctx, resp.Collection.ID, ptr(4))
	require.NoError(t, err)
	require.NotNil(t, moved.CaseID)
	assert.Equal(t, int64(4), *moved.CaseID)
	assert.ElementsMatch(t, []int64{3, 4}, repo.refreshed)
}

func TestReattributeRecoltedFails(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, testRates(), nil)
	ctx := context.Background()

	repo.addParcel(1, "500", parcels.DeliveryHome, true)
	resp, err := svc.Create(ctx, shared.Actor{UserID: 7}, CreateRequest{
		ParcelID: 1, Amount: amt("500"), AmountGiven: amt("500"), CaseID: ptr(3),
	})
	require.NoError(t, err)
	repo.recolted[resp.Collection.ID] = true

	_, err = svc.Reattribute(ctx, resp.Collection.ID, ptr(4))
	assert.ErrorIs(t, err, ErrAlreadyRecolted)
}

func TestRatesSplit(t *testing.T) {
	rates := testRates()

	margin, commission := rates.Split(parcels.DeliveryStopdesk, amt("999"))
	assert.True(t, margin.Equal(amt("50")))
	assert.Nil(t, commission, "stop-desk never grants a driver share")

	margin, commission = rates.Split(parcels.DeliveryHome, amt("40"))
	assert.True(t, margin.Equal(amt("60")))
	require.NotNil(t, commission)
	assert.True(t, commission.Equal(amt("40")))
}
