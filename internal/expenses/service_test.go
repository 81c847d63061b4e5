package expenses

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colisnet/colisnet/internal/shared"
)

type mockRepository struct {
	seq        int64
	catSeq     int64
	expenses   map[int64]*Expense
	categories map[int64]ExpenseCategory
	refreshed  []int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{expenses: make(map[int64]*Expense), categories: make(map[int64]ExpenseCategory)}
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return Expense{}, ErrNotFound
	}
	return *e, nil
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]Expense, error) {
	var out []Expense
	for _, e := range m.expenses {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.CaseID != nil && (e.CaseID == nil || *e.CaseID != *filter.CaseID) {
			continue
		}
		if filter.CreatedBy != nil && e.CreatedBy != *filter.CreatedBy {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockRepository) CreateCategory(ctx context.Context, name string) (ExpenseCategory, error) {
	for _, c := range m.categories {
		if c.Name == name {
			return ExpenseCategory{}, ErrCategoryTaken
		}
	}
	m.catSeq++
	c := ExpenseCategory{ID: m.catSeq, Name: name, CreatedAt: time.Now()}
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockRepository) ListCategories(ctx context.Context) ([]ExpenseCategory, error) {
	out := make([]ExpenseCategory, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) GetForUpdate(ctx context.Context, id int64) (Expense, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRepository) Insert(ctx context.Context, e Expense) (Expense, error) {
	m.seq++
	e.ID = m.seq
	e.CreatedAt = time.Now()
	m.expenses[e.ID] = &e
	return e, nil
}

func (m *mockRepository) UpdateFields(ctx context.Context, e Expense) error {
	current, ok := m.expenses[e.ID]
	if !ok {
		return ErrNotFound
	}
	current.Title = e.Title
	current.Amount = e.Amount
	current.Currency = e.Currency
	current.CategoryID = e.CategoryID
	current.CaseID = e.CaseID
	current.RecolteID = e.RecolteID
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.expenses[id]; !ok {
		return ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *mockRepository) Transition(ctx context.Context, id int64, from, to Status, by int64, at time.Time, method *string, date *time.Time) (bool, error) {
	e, ok := m.expenses[id]
	if !ok || e.Status != from {
		return false, nil
	}
	e.Status = to
	switch to {
	case StatusApproved:
		e.ApprovedBy = &by
		e.ApprovedAt = &at
	case StatusPaid:
		e.PaidBy = &by
		e.PaidAt = &at
		e.PaymentMethod = method
		e.PaymentDate = date
	case StatusRejected:
		e.RejectedBy = &by
		e.RejectedAt = &at
	}
	return true, nil
}

func (m *mockRepository) RefreshCaseSnapshot(ctx context.Context, caseID int64) error {
	m.refreshed = append(m.refreshed, caseID)
	return nil
}

var (
	agent      = shared.Actor{UserID: 10, Role: shared.RoleAgent}
	otherAgent = shared.Actor{UserID: 11, Role: shared.RoleAgent}
	supervisor = shared.Actor{UserID: 20, Role: shared.RoleSupervisor}
)

func ptr(v int64) *int64 { return &v }

func createExpense(t *testing.T, svc *Service, actor shared.Actor, caseID *int64) Expense {
	t.Helper()
	e, err := svc.Create(context.Background(), actor, CreateRequest{
		Title:  "fuel",
		Amount: decimal.NewFromInt(200),
		CaseID: caseID,
	})
	require.NoError(t, err)
	return e
}

func TestCreateDefaults(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	e := createExpense(t, svc, agent, ptr(3))
	assert.Equal(t, StatusPending, e.Status)
	assert.Equal(t, "DZD", e.Currency)
	assert.Contains(t, repo.refreshed, int64(3))

	_, err := svc.Create(context.Background(), agent, CreateRequest{Title: "x", Amount: decimal.Zero})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestApprovalWorkflow(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	e := createExpense(t, svc, agent, nil)

	// pending cannot be paid
	_, err := svc.MarkPaid(ctx, supervisor, e.ID, PayRequest{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, ErrCannotPay)

	approved, err := svc.Approve(ctx, supervisor, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, supervisor.UserID, *approved.ApprovedBy)

	// approved cannot be approved or rejected again
	_, err = svc.Approve(ctx, supervisor, e.ID)
	assert.ErrorIs(t, err, ErrCannotApprove)
	_, err = svc.Reject(ctx, supervisor, e.ID)
	assert.ErrorIs(t, err, ErrCannotReject)

	paid, err := svc.MarkPaid(ctx, supervisor, e.ID, PayRequest{PaymentMethod: "cash"})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaymentMethod)
	assert.Equal(t, "cash", *paid.PaymentMethod)
	assert.NotNil(t, paid.PaymentDate)

	// paid is terminal
	_, err = svc.MarkPaid(ctx, supervisor, e.ID, PayRequest{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, ErrCannotPay)
	_, err = svc.Approve(ctx, supervisor, e.ID)
	assert.ErrorIs(t, err, ErrCannotApprove)
}

func TestRejectRefreshesSnapshot(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	e := createExpense(t, svc, agent, ptr(5))
	repo.refreshed = nil

	rejected, err := svc.Reject(ctx, supervisor, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Contains(t, repo.refreshed, int64(5), "earmarked cash returns to the drawer")
}

func TestTransitionsRequireModerator(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	e := createExpense(t, svc, agent, nil)

	_, err := svc.Approve(ctx, agent, e.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = svc.Reject(ctx, agent, e.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = svc.MarkPaid(ctx, agent, e.ID, PayRequest{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestAgentVisibility(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	mine := createExpense(t, svc, agent, nil)
	createExpense(t, svc, otherAgent, nil)

	_, err := svc.Get(ctx, agent, mine.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, otherAgent, mine.ID)
	assert.ErrorIs(t, err, ErrNotVisible)
	_, err = svc.Get(ctx, supervisor, mine.ID)
	assert.NoError(t, err)

	listed, err := svc.List(ctx, agent, ListFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, mine.ID, listed[0].ID)

	all, err := svc.List(ctx, supervisor, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateOnlyPending(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	e := createExpense(t, svc, agent, ptr(3))

	updated, err := svc.Update(ctx, agent, e.ID, UpdateRequest{
		Title: "fuel refill", Amount: decimal.NewFromInt(250), CaseID: ptr(4),
	})
	require.NoError(t, err)
	assert.Equal(t, "fuel refill", updated.Title)
	assert.ElementsMatch(t, []int64{3, 3, 4}, repo.refreshed)

	_, err = svc.Approve(ctx, supervisor, e.ID)
	require.NoError(t, err)
	_, err = svc.Update(ctx, agent, e.ID, UpdateRequest{Title: "late", Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrCannotEdit)
}

func TestDeleteStatusGuard(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	e := createExpense(t, svc, agent, nil)
	_, err := svc.Approve(ctx, supervisor, e.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Delete(ctx, agent, e.ID), ErrCannotDelete)

	pending := createExpense(t, svc, agent, nil)
	require.NoError(t, svc.Delete(ctx, agent, pending.ID))

	rejectable := createExpense(t, svc, agent, nil)
	_, err = svc.Reject(ctx, supervisor, rejectable.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, agent, rejectable.ID))
}

func TestMirroredExpensesAreReadOnly(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	mirrored, err := repo.Insert(ctx, Expense{
		Title:     "Salary 2026-08 Amine",
		Amount:    decimal.NewFromInt(45000),
		Currency:  "DZD",
		Status:    StatusApproved,
		Ref:       &PaymentRef{Kind: RefSalary, ID: 14},
		CreatedBy: 0,
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, supervisor, mirrored.ID, UpdateRequest{Title: "x", Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrMirrored)
	assert.ErrorIs(t, svc.Delete(ctx, supervisor, mirrored.ID), ErrMirrored)
}

func TestCategories(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, "fuel")
	require.NoError(t, err)
	assert.Equal(t, "fuel", c.Name)

	_, err = svc.CreateCategory(ctx, "fuel")
	assert.ErrorIs(t, err, ErrCategoryTaken)

	all, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
