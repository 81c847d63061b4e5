package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/colisnet/colisnet/internal/expenses"
	"github.com/colisnet/colisnet/internal/platform/db"
)

// Repository encapsulates DB operations for payroll records. The mirrored
// expense for a payment is located through its (ref_kind, ref_id) pair, so
// the payment row itself carries no expense foreign key.
type Repository interface {
	GetSalary(ctx context.Context, id int64) (SalaryPayment, error)
	ListSalaries(ctx context.Context, period string) ([]SalaryPayment, error)
	GetCommission(ctx context.Context, id int64) (CommissionPayment, error)
	ListCommissions(ctx context.Context, driverID *int64) ([]CommissionPayment, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// SalaryCandidate is an active user owed a salary for a period.
type SalaryCandidate struct {
	UserID int64
	Name   string
	Salary decimal.Decimal
}

// CommissionCandidate is a home-delivery collection whose driver commission
// has not been paid out yet.
type CommissionCandidate struct {
	CollectionID int64
	DriverID     int64
	Amount       decimal.Decimal
}

// TxRepository exposes methods available within a transaction. Mirrored
// expense rows are written here directly so the payment and its expense
// commit or roll back together.
type TxRepository interface {
	GetSalaryForUpdate(ctx context.Context, id int64) (SalaryPayment, error)
	GetCommissionForUpdate(ctx context.Context, id int64) (CommissionPayment, error)
	InsertSalary(ctx context.Context, userID int64, period string, amount decimal.Decimal) (SalaryPayment, error)
	InsertCommission(ctx context.Context, collectionID, driverID int64, amount decimal.Decimal) (CommissionPayment, error)
	DeleteSalary(ctx context.Context, id int64) error
	DeleteCommission(ctx context.Context, id int64) error
	// MarkSalaryPaid and MarkCommissionPaid guard on the pending status in
	// the statement itself and report whether a row changed.
	MarkSalaryPaid(ctx context.Context, id int64, at time.Time) (bool, error)
	MarkCommissionPaid(ctx context.Context, id int64, at time.Time) (bool, error)

	EnsurePayrollCategory(ctx context.Context) (int64, error)
	InsertMirrorExpense(ctx context.Context, title string, amount decimal.Decimal, categoryID int64, ref expenses.PaymentRef, createdBy int64) (int64, error)
	DeleteMirrorExpense(ctx context.Context, ref expenses.PaymentRef) error
	MarkMirrorPaid(ctx context.Context, ref expenses.PaymentRef, by int64, at time.Time) error

	UserForSalary(ctx context.Context, userID int64) (SalaryCandidate, bool, error)
	ListSalaryCandidates(ctx context.Context, period string) ([]SalaryCandidate, error)
	CollectionCommission(ctx context.Context, collectionID int64) (CommissionCandidate, error)
	ListCommissionCandidates(ctx context.Context) ([]CommissionCandidate, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const salaryColumns = `id, user_id, period, amount, status, paid_at, created_at, updated_at`
const commissionColumns = `id, collection_id, driver_id, amount, status, paid_at, created_at, updated_at`

func scanSalary(row pgx.Row) (SalaryPayment, error) {
	var p SalaryPayment
	err := row.Scan(&p.ID, &p.UserID, &p.Period, &p.Amount, &p.Status, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SalaryPayment{}, ErrNotFound
		}
		return SalaryPayment{}, err
	}
	return p, nil
}

func scanCommission(row pgx.Row) (CommissionPayment, error) {
	var p CommissionPayment
	err := row.Scan(&p.ID, &p.CollectionID, &p.DriverID, &p.Amount, &p.Status, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CommissionPayment{}, ErrNotFound
		}
		return CommissionPayment{}, err
	}
	return p, nil
}

func (r *repository) GetSalary(ctx context.Context, id int64) (SalaryPayment, error) {
	return scanSalary(r.db.QueryRow(ctx, `SELECT `+salaryColumns+` FROM salary_payments WHERE id=$1`, id))
}

func (r *repository) ListSalaries(ctx context.Context, period string) ([]SalaryPayment, error) {
	query := `SELECT ` + salaryColumns + ` FROM salary_payments ORDER BY period DESC, user_id ASC`
	args := []any{}
	if period != "" {
		query = `SELECT ` + salaryColumns + ` FROM salary_payments WHERE period=$1 ORDER BY user_id ASC`
		args = append(args, period)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SalaryPayment
	for rows.Next() {
		p, err := scanSalary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) GetCommission(ctx context.Context, id int64) (CommissionPayment, error) {
	return scanCommission(r.db.QueryRow(ctx, `SELECT `+commissionColumns+` FROM commission_payments WHERE id=$1`, id))
}

func (r *repository) ListCommissions(ctx context.Context, driverID *int64) ([]CommissionPayment, error) {
	query := `SELECT ` + commissionColumns + ` FROM commission_payments ORDER BY id DESC`
	args := []any{}
	if driverID != nil {
		query = `SELECT ` + commissionColumns + ` FROM commission_payments WHERE driver_id=$1 ORDER BY id DESC`
		args = append(args, *driverID)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CommissionPayment
	for rows.Next() {
		p, err := scanCommission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) GetSalaryForUpdate(ctx context.Context, id int64) (SalaryPayment, error) {
	return scanSalary(t.tx.QueryRow(ctx, `SELECT `+salaryColumns+` FROM salary_payments WHERE id=$1 FOR UPDATE`, id))
}

func (t *txRepository) GetCommissionForUpdate(ctx context.Context, id int64) (CommissionPayment, error) {
	return scanCommission(t.tx.QueryRow(ctx, `SELECT `+commissionColumns+` FROM commission_payments WHERE id=$1 FOR UPDATE`, id))
}

func (t *txRepository) InsertSalary(ctx context.Context, userID int64, period string, amount decimal.Decimal) (SalaryPayment, error) {
	row := t.tx.QueryRow(ctx, `
		INSERT INTO salary_payments (user_id, period, amount, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING `+salaryColumns, userID, period, amount)
	p, err := scanSalary(row)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return SalaryPayment{}, ErrDuplicatePeriod
		}
		return SalaryPayment{}, err
	}
	return p, nil
}

func (t *txRepository) InsertCommission(ctx context.Context, collectionID, driverID int64, amount decimal.Decimal) (CommissionPayment, error) {
	row := t.tx.QueryRow(ctx, `
		INSERT INTO commission_payments (collection_id, driver_id, amount, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING `+commissionColumns, collectionID, driverID, amount)
	p, err := scanCommission(row)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return CommissionPayment{}, ErrDuplicateCommission
		}
		return CommissionPayment{}, err
	}
	return p, nil
}

func (t *txRepository) DeleteSalary(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM salary_payments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) DeleteCommission(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM commission_payments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) MarkSalaryPaid(ctx context.Context, id int64, at time.Time) (bool, error) {
	tag, err := t.tx.Exec(ctx, `UPDATE salary_payments SET status='paid', paid_at=$2, updated_at=NOW() WHERE id=$1 AND status='pending'`, id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (t *txRepository) MarkCommissionPaid(ctx context.Context, id int64, at time.Time) (bool, error) {
	tag, err := t.tx.Exec(ctx, `UPDATE commission_payments SET status='paid', paid_at=$2, updated_at=NOW() WHERE id=$1 AND status='pending'`, id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const payrollCategoryName = "payroll"

func (t *txRepository) EnsurePayrollCategory(ctx context.Context) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO expense_categories (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, payrollCategoryName).Scan(&id)
	return id, err
}

func (t *txRepository) InsertMirrorExpense(ctx context.Context, title string, amount decimal.Decimal, categoryID int64, ref expenses.PaymentRef, createdBy int64) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO expenses (title, amount, currency, category_id, status, ref_kind, ref_id, created_by)
		VALUES ($1, $2, 'DZD', $3, 'approved', $4, $5, $6)
		RETURNING id`, title, amount, categoryID, ref.Kind, ref.ID, createdBy).Scan(&id)
	return id, err
}

func (t *txRepository) DeleteMirrorExpense(ctx context.Context, ref expenses.PaymentRef) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM expenses WHERE ref_kind=$1 AND ref_id=$2`, ref.Kind, ref.ID)
	return err
}

func (t *txRepository) MarkMirrorPaid(ctx context.Context, ref expenses.PaymentRef, by int64, at time.Time) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE expenses SET status='paid', paid_by=$3, paid_at=$4, payment_date=$4, updated_at=NOW()
		WHERE ref_kind=$1 AND ref_id=$2 AND status='approved'`, ref.Kind, ref.ID, by, at)
	return err
}

func (t *txRepository) UserForSalary(ctx context.Context, userID int64) (SalaryCandidate, bool, error) {
	var c SalaryCandidate
	var active bool
	err := t.tx.QueryRow(ctx, `SELECT id, name, base_salary, active FROM users WHERE id=$1`, userID).
		Scan(&c.UserID, &c.Name, &c.Salary, &active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SalaryCandidate{}, false, ErrNotFound
		}
		return SalaryCandidate{}, false, err
	}
	return c, active, nil
}

func (t *txRepository) ListSalaryCandidates(ctx context.Context, period string) ([]SalaryCandidate, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT u.id, u.name, u.base_salary
		FROM users u
		WHERE u.active
		  AND u.base_salary > 0
		  AND NOT EXISTS (SELECT 1 FROM salary_payments sp WHERE sp.user_id = u.id AND sp.period = $1)
		ORDER BY u.id`, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SalaryCandidate
	for rows.Next() {
		var c SalaryCandidate
		if err := rows.Scan(&c.UserID, &c.Name, &c.Salary); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *txRepository) CollectionCommission(ctx context.Context, collectionID int64) (CommissionCandidate, error) {
	var c CommissionCandidate
	var driverID *int64
	var amount *decimal.Decimal
	err := t.tx.QueryRow(ctx, `SELECT id, driver_id, driver_commission FROM collections WHERE id=$1`, collectionID).
		Scan(&c.CollectionID, &driverID, &amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CommissionCandidate{}, ErrNotFound
		}
		return CommissionCandidate{}, err
	}
	if driverID == nil || amount == nil || amount.IsZero() {
		return CommissionCandidate{}, ErrNoCommissionDue
	}
	c.DriverID = *driverID
	c.Amount = *amount
	return c, nil
}

func (t *txRepository) ListCommissionCandidates(ctx context.Context) ([]CommissionCandidate, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT c.id, c.driver_id, c.driver_commission
		FROM collections c
		WHERE c.driver_id IS NOT NULL
		  AND c.driver_commission IS NOT NULL
		  AND c.driver_commission > 0
		  AND NOT EXISTS (SELECT 1 FROM commission_payments cp WHERE cp.collection_id = c.id)
		ORDER BY c.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CommissionCandidate
	for rows.Next() {
		var c CommissionCandidate
		if err := rows.Scan(&c.CollectionID, &c.DriverID, &c.Amount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
