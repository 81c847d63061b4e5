package cases

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colisnet/colisnet/internal/shared"
)

type ledgerEntry struct {
	caseID   int64
	amount   decimal.Decimal
	recolted bool
	rejected bool
}

// mockRepository keeps cases and a tiny ledger in memory so the balance
// identity can be exercised without SQL.
type mockRepository struct {
	mu          sync.Mutex
	seq         int64
	cases       map[int64]*MoneyCase
	collections []ledgerEntry
	expenses    []ledgerEntry
	activity    map[int64]bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{cases: make(map[int64]*MoneyCase), activity: make(map[int64]bool)}
}

func (m *mockRepository) Create(ctx context.Context, name string) (MoneyCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cases {
		if c.Name == name {
			return MoneyCase{}, ErrNameTaken
		}
	}
	m.seq++
	c := MoneyCase{ID: m.seq, Name: name, Status: StatusActive, Balance: decimal.Zero}
	m.cases[c.ID] = &c
	return c, nil
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (MoneyCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return MoneyCase{}, ErrNotFound
	}
	return *c, nil
}

func (m *mockRepository) List(ctx context.Context) ([]MoneyCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MoneyCase, 0, len(m.cases))
	for _, c := range m.cases {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockRepository) ListActive(ctx context.Context) ([]MoneyCase, error) {
	all, _ := m.List(ctx)
	var out []MoneyCase
	for _, c := range all {
		if c.Status == StatusActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockRepository) SetStatus(ctx context.Context, id int64, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cases[id]; !ok {
		return ErrNotFound
	}
	delete(m.cases, id)
	return nil
}

func (m *mockRepository) HasActivity(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activity[id], nil
}

func (m *mockRepository) Activate(ctx context.Context, id, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return false, nil
	}
	if c.Status != StatusActive {
		return false, nil
	}
	if c.LastActiveBy != nil && *c.LastActiveBy != userID {
		return false, nil
	}
	now := time.Now()
	c.LastActiveBy = &userID
	c.LastActivatedAt = &now
	return true, nil
}

func (m *mockRepository) Release(ctx context.Context, id, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return false, nil
	}
	if c.LastActiveBy == nil || *c.LastActiveBy != userID {
		return false, nil
	}
	c.LastActiveBy = nil
	return true, nil
}

func (m *mockRepository) CalculateBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(id), nil
}

func (m *mockRepository) balanceLocked(id int64) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range m.collections {
		if e.caseID == id && !e.recolted {
			balance = balance.Add(e.amount)
		}
	}
	for _, e := range m.expenses {
		if e.caseID == id && !e.rejected {
			balance = balance.Sub(e.amount)
		}
	}
	return balance
}

func (m *mockRepository) RefreshBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return decimal.Zero, ErrNotFound
	}
	c.Balance = m.balanceLocked(id)
	return c.Balance, nil
}

func (m *mockRepository) ListIDs(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, 0, len(m.cases))
	for id := range m.cases {
		out = append(out, id)
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	return NewService(repo, nil, nil), repo
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBalanceIdentity(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "front desk")
	require.NoError(t, err)

	repo.collections = append(repo.collections,
		ledgerEntry{caseID: c.ID, amount: amt("500")},
		ledgerEntry{caseID: c.ID, amount: amt("250"), recolted: true},
	)
	repo.expenses = append(repo.expenses,
		ledgerEntry{caseID: c.ID, amount: amt("200")},
		ledgerEntry{caseID: c.ID, amount: amt("999"), rejected: true},
	)

	balance, err := svc.Balance(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(amt("300")), "recolted collections and rejected expenses stay out: got %s", balance)
}

func TestBalanceCanGoNegative(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "petty cash")
	require.NoError(t, err)
	repo.expenses = append(repo.expenses, ledgerEntry{caseID: c.ID, amount: amt("75")})

	balance, err := svc.Balance(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(amt("-75")))
}

func TestActivateExclusive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "counter")
	require.NoError(t, err)

	alice := shared.Actor{UserID: 10, Role: shared.RoleAgent}
	bob := shared.Actor{UserID: 20, Role: shared.RoleAgent}

	claimed, err := svc.Activate(ctx, c.ID, alice)
	require.NoError(t, err)
	require.NotNil(t, claimed.LastActiveBy)
	assert.Equal(t, int64(10), *claimed.LastActiveBy)

	_, err = svc.Activate(ctx, c.ID, bob)
	assert.ErrorIs(t, err, ErrClaimedByOther)

	// re-activation by the holder is an idempotent success
	again, err := svc.Activate(ctx, c.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(10), *again.LastActiveBy)
}

func TestActivateInactiveCase(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "retired")
	require.NoError(t, err)
	require.NoError(t, svc.SetStatus(ctx, c.ID, StatusInactive))

	_, err = svc.Activate(ctx, c.ID, shared.Actor{UserID: 10, Role: shared.RoleAgent})
	assert.ErrorIs(t, err, ErrCaseInactive)
}

func TestReleaseSemantics(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "drawer")
	require.NoError(t, err)

	alice := shared.Actor{UserID: 10, Role: shared.RoleAgent}
	bob := shared.Actor{UserID: 20, Role: shared.RoleAgent}

	// releasing a free drawer is a no-op
	require.NoError(t, svc.Release(ctx, c.ID, alice))

	_, err = svc.Activate(ctx, c.ID, alice)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Release(ctx, c.ID, bob), ErrNotHolder)
	require.NoError(t, svc.Release(ctx, c.ID, alice))

	freed, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, freed.LastActiveBy)
}

func TestDeleteGuardedByActivity(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	used, err := svc.Create(ctx, "used")
	require.NoError(t, err)
	repo.activity[used.ID] = true
	assert.ErrorIs(t, svc.Delete(ctx, used.ID), ErrCaseInUse)

	fresh, err := svc.Create(ctx, "fresh")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, fresh.ID))
	_, err = svc.Get(ctx, fresh.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefreshAllUpdatesSnapshots(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "a")
	require.NoError(t, err)
	b, err := svc.Create(ctx, "b")
	require.NoError(t, err)

	repo.collections = append(repo.collections,
		ledgerEntry{caseID: a.ID, amount: amt("120")},
		ledgerEntry{caseID: b.ID, amount: amt("80")},
	)

	require.NoError(t, svc.RefreshAll(ctx, 2))

	refreshedA, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	refreshedB, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, refreshedA.Balance.Equal(amt("120")))
	assert.True(t, refreshedB.Balance.Equal(amt("80")))
}

func TestDuplicateName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "main")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "main")
	assert.ErrorIs(t, err, ErrNameTaken)
}
