package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colisnet/colisnet/internal/expenses"
	"github.com/colisnet/colisnet/internal/shared"
)

type mockUser struct {
	name   string
	salary decimal.Decimal
	active bool
}

type mirrorExpense struct {
	title     string
	amount    decimal.Decimal
	paid      bool
	createdBy int64
}

type mockRepository struct {
	seq         int64
	users       map[int64]mockUser
	commissions map[int64]CommissionCandidate
	salaries    map[int64]*SalaryPayment
	payouts     map[int64]*CommissionPayment
	mirrors     map[expenses.PaymentRef]*mirrorExpense
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:       make(map[int64]mockUser),
		commissions: make(map[int64]CommissionCandidate),
		salaries:    make(map[int64]*SalaryPayment),
		payouts:     make(map[int64]*CommissionPayment),
		mirrors:     make(map[expenses.PaymentRef]*mirrorExpense),
	}
}

func (m *mockRepository) GetSalary(ctx context.Context, id int64) (SalaryPayment, error) {
	p, ok := m.salaries[id]
	if !ok {
		return SalaryPayment{}, ErrNotFound
	}
	return *p, nil
}

func (m *mockRepository) ListSalaries(ctx context.Context, period string) ([]SalaryPayment, error) {
	var out []SalaryPayment
	for _, p := range m.salaries {
		if period != "" && p.Period != period {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockRepository) GetCommission(ctx context.Context, id int64) (CommissionPayment, error) {
	p, ok := m.payouts[id]
	if !ok {
		return CommissionPayment{}, ErrNotFound
	}
	return *p, nil
}

func (m *mockRepository) ListCommissions(ctx context.Context, driverID *int64) ([]CommissionPayment, error) {
	var out []CommissionPayment
	for _, p := range m.payouts {
		if driverID != nil && p.DriverID != *driverID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) GetSalaryForUpdate(ctx context.Context, id int64) (SalaryPayment, error) {
	return m.GetSalary(ctx, id)
}

func (m *mockRepository) GetCommissionForUpdate(ctx context.Context, id int64) (CommissionPayment, error) {
	return m.GetCommission(ctx, id)
}

func (m *mockRepository) InsertSalary(ctx context.Context, userID int64, period string, amount decimal.Decimal) (SalaryPayment, error) {
	for _, p := range m.salaries {
		if p.UserID == userID && p.Period == period {
			return SalaryPayment{}, ErrDuplicatePeriod
		}
	}
	m.seq++
	p := SalaryPayment{ID: m.seq, UserID: userID, Period: period, Amount: amount, Status: StatusPending, CreatedAt: time.Now()}
	m.salaries[p.ID] = &p
	return p, nil
}

func (m *mockRepository) InsertCommission(ctx context.Context, collectionID, driverID int64, amount decimal.Decimal) (CommissionPayment, error) {
	for _, p := range m.payouts {
		if p.CollectionID == collectionID {
			return CommissionPayment{}, ErrDuplicateCommission
		}
	}
	m.seq++
	p := CommissionPayment{ID: m.seq, CollectionID: collectionID, DriverID: driverID, Amount: amount, Status: StatusPending, CreatedAt: time.Now()}
	m.payouts[p.ID] = &p
	return p, nil
}

func (m *mockRepository) DeleteSalary(ctx context.Context, id int64) error {
	delete(m.salaries, id)
	return nil
}

func (m *mockRepository) DeleteCommission(ctx context.Context, id int64) error {
	delete(m.payouts, id)
	return nil
}

func (m *mockRepository) MarkSalaryPaid(ctx context.Context, id int64, at time.Time) (bool, error) {
	p, ok := m.salaries[id]
	if !ok || p.Status != StatusPending {
		return false, nil
	}
	p.Status = StatusPaid
	p.PaidAt = &at
	return true, nil
}

func (m *mockRepository) MarkCommissionPaid(ctx context.Context, id int64, at time.Time) (bool, error) {
	p, ok := m.payouts[id]
	if !ok || p.Status != StatusPending {
		return false, nil
	}
	p.Status = StatusPaid
	p.PaidAt = &at
	return true, nil
}

func (m *mockRepository) EnsurePayrollCategory(ctx context.Context) (int64, error) {
	return 1, nil
}

func (m *mockRepository) InsertMirrorExpense(ctx context.Context, title string, amount decimal.Decimal, categoryID int64, ref expenses.PaymentRef, createdBy int64) (int64, error) {
	m.mirrors[ref] = &mirrorExpense{title: title, amount: amount, createdBy: createdBy}
	return int64(len(m.mirrors)), nil
}

func (m *mockRepository) DeleteMirrorExpense(ctx context.Context, ref expenses.PaymentRef) error {
	delete(m.mirrors, ref)
	return nil
}

func (m *mockRepository) MarkMirrorPaid(ctx context.Context, ref expenses.PaymentRef, by int64, at time.Time) error {
	e, ok := m.mirrors[ref]
	if !ok {
		return ErrNotFound
	}
	e.paid = true
	return nil
}

func (m *mockRepository) UserForSalary(ctx context.Context, userID int64) (SalaryCandidate, bool, error) {
	u, ok := m.users[userID]
	if !ok {
		return SalaryCandidate{}, false, ErrNotFound
	}
	return SalaryCandidate{UserID: userID, Name: u.name, Salary: u.salary}, u.active, nil
}

func (m *mockRepository) ListSalaryCandidates(ctx context.Context, period string) ([]SalaryCandidate, error) {
	var out []SalaryCandidate
	for id, u := range m.users {
		if !u.active || !u.salary.IsPositive() {
			continue
		}
		owed := true
		for _, p := range m.salaries {
			if p.UserID == id && p.Period == period {
				owed = false
				break
			}
		}
		if owed {
			out = append(out, SalaryCandidate{UserID: id, Name: u.name, Salary: u.salary})
		}
	}
	return out, nil
}

func (m *mockRepository) CollectionCommission(ctx context.Context, collectionID int64) (CommissionCandidate, error) {
	c, ok := m.commissions[collectionID]
	if !ok {
		return CommissionCandidate{}, ErrNoCommissionDue
	}
	return c, nil
}

func (m *mockRepository) ListCommissionCandidates(ctx context.Context) ([]CommissionCandidate, error) {
	var out []CommissionCandidate
	for id, c := range m.commissions {
		paid := false
		for _, p := range m.payouts {
			if p.CollectionID == id {
				paid = true
				break
			}
		}
		if !paid {
			out = append(out, c)
		}
	}
	return out, nil
}

var supervisor = shared.Actor{UserID: 20, Role: shared.RoleSupervisor}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestValidatePeriod(t *testing.T) {
	assert.NoError(t, ValidatePeriod("2026-08"))
	assert.NoError(t, ValidatePeriod("2026-12"))
	for _, bad := range []string{"2026-13", "2026-0", "08-2026", "2026/08", "202608", ""} {
		assert.ErrorIs(t, ValidatePeriod(bad), ErrInvalidPeriod, "period %q", bad)
	}
}

func TestCreateSalaryMirrorsExpense(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	repo.users[5] = mockUser{name: "Amine", salary: amt("45000"), active: true}

	p, err := svc.CreateSalary(ctx, supervisor, CreateSalaryRequest{UserID: 5, Period: "2026-08"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.True(t, p.Amount.Equal(amt("45000")), "amount defaults to the base salary")

	mirror := repo.mirrors[expenses.PaymentRef{Kind: expenses.RefSalary, ID: p.ID}]
	require.NotNil(t, mirror)
	assert.Equal(t, "Salary 2026-08 Amine", mirror.title)
	assert.True(t, mirror.amount.Equal(p.Amount))
}

func TestCreateSalaryOverrideAmount(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	repo.users[5] = mockUser{name: "Amine", salary: amt("45000"), active: true}
	p, err := svc.CreateSalary(context.Background(), supervisor, CreateSalaryRequest{UserID: 5, Period: "2026-08", Amount: "47500"})
	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(amt("47500")))
}

func TestCreateSalaryGuards(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	repo.users[5] = mockUser{name: "Amine", salary: amt("45000"), active: true}
	repo.users[6] = mockUser{name: "Karim", salary: amt("40000"), active: false}

	_, err := svc.CreateSalary(ctx, shared.Actor{UserID: 10, Role: shared.RoleAgent}, CreateSalaryRequest{UserID: 5, Period: "2026-08"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.CreateSalary(ctx, supervisor, CreateSalaryRequest{UserID: 5, Period: "aug-26"})
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = svc.CreateSalary(ctx, supervisor, CreateSalaryRequest{UserID: 6, Period: "2026-08"})
	assert.ErrorIs(t, err, ErrUserInactive)

	_, err = svc.CreateSalary(ctx, supervisor, CreateSalaryRequest{UserID: 5, Period: "2026-08"})
	require.NoError(t, err)
	_, err = svc.CreateSalary(ctx, supervisor, CreateSalaryRequest{UserID: 5, Period: "2026-08"})
	assert.ErrorIs(t, err, ErrDuplicatePeriod)
}

func TestCreateCommission(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	repo.commissions[40] = CommissionCandidate{CollectionID: 40, DriverID: 12, Amount: amt("40")}

	p, err := svc.CreateCommission(ctx, supervisor, CreateCommissionRequest{CollectionID: 40})
	require.NoError(t, err)
	assert.Equal(t, int64(12), p.DriverID)
	assert.True(t, p.Amount.Equal(amt("40")))

	mirror := repo.mirrors[expenses.PaymentRef{Kind: expenses.RefCommission, ID: p.ID}]
	require.NotNil(t, mirror)
	assert.Equal(t, "Driver commission collection #40", mirror.title)

	_, err = svc.CreateCommission(ctx, supervisor, CreateCommissionRequest{CollectionID: 40})
	assert.ErrorIs(t, err, ErrDuplicateCommission)

	_, err = svc.CreateCommission(ctx, supervisor, CreateCommissionRequest{CollectionID: 99})
	assert.ErrorIs(t, err, ErrNoCommissionDue)
}

func TestMarkSalaryPaidFlipsMirror(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	repo.users[5] = mockUser{name: "Amine", salary: amt("45000"), active: true}
	p, err := svc.CreateSalary(ctx, supervisor, CreateSalaryRequest{UserID: 5, Period: "2026-08"})
	require.NoError(t, err)

	paid, err := svc.MarkSalaryPaid(ctx, supervisor, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)
	assert.True(t, repo.mirrors[expenses.PaymentRef{Kind: expenses.RefSalary, ID: p.ID}].paid)

	_, err = svc.MarkSalaryPaid(ctx, supervisor, p.ID)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestDeleteCascadesToMirror(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	repo.users[5] = mockUser{name: "Amine", salary: amt("45000"), active: true}
	p, err := svc.CreateSalary(ctx, supervisor, CreateSalaryRequest{UserID: 5, Period: "2026-08"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSalary(ctx, supervisor, p.ID))
	assert.Empty(t, repo.mirrors)
	_, err = svc.GetSalary(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePaidSalaryRefused(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	repo.users[5] = mockUser{name: "Amine", salary: amt("45000"), active: true}
	p, err := svc.CreateSalary(ctx, supervisor, CreateSalaryRequest{UserID: 5, Period: "2026-08"})
	require.NoError(t, err)
	_, err = svc.MarkSalaryPaid(ctx, supervisor, p.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteSalary(ctx, supervisor, p.ID), ErrAlreadyPaid)
	assert.NotEmpty(t, repo.mirrors, "the paid mirror stays")
}

func TestMarkCommissionPaid(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	repo.commissions[40] = CommissionCandidate{CollectionID: 40, DriverID: 12, Amount: amt("40")}
	p, err := svc.CreateCommission(ctx, supervisor, CreateCommissionRequest{CollectionID: 40})
	require.NoError(t, err)

	paid, err := svc.MarkCommissionPaid(ctx, supervisor, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	assert.True(t, repo.mirrors[expenses.PaymentRef{Kind: expenses.RefCommission, ID: p.ID}].paid)

	_, err = svc.MarkCommissionPaid(ctx, supervisor, p.ID)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestGenerateMonthly(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	repo.users[5] = mockUser{name: "Amine", salary: amt("45000"), active: true}
	repo.users[6] = mockUser{name: "Karim", salary: amt("40000"), active: true}
	repo.users[7] = mockUser{name: "Sofia", salary: amt("0"), active: true}
	repo.users[8] = mockUser{name: "Leila", salary: amt("38000"), active: false}
	repo.commissions[40] = CommissionCandidate{CollectionID: 40, DriverID: 12, Amount: amt("40")}
	repo.commissions[41] = CommissionCandidate{CollectionID: 41, DriverID: 12, Amount: amt("60")}

	result, err := svc.GenerateMonthly(ctx, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 2, result.SalariesCreated, "zero-salary and inactive users are skipped")
	assert.Equal(t, 2, result.CommissionsCreated)
	assert.Len(t, repo.mirrors, 4)

	// a re-run finds nothing left to pay
	again, err := svc.GenerateMonthly(ctx, "2026-08")
	require.NoError(t, err)
	assert.Zero(t, again.SalariesCreated)
	assert.Zero(t, again.CommissionsCreated)

	_, err = svc.GenerateMonthly(ctx, "bad")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}
