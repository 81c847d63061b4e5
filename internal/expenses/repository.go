package expenses

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/colisnet/colisnet/internal/cases"
	"github.com/colisnet/colisnet/internal/platform/db"
)

// Repository encapsulates DB operations for expenses.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Expense, error)
	List(ctx context.Context, filter ListFilter) ([]Expense, error)
	CreateCategory(ctx context.Context, name string) (ExpenseCategory, error)
	ListCategories(ctx context.Context) ([]ExpenseCategory, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// ListFilter narrows expense listings.
type ListFilter struct {
	Status    Status
	CaseID    *int64
	CreatedBy *int64
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (Expense, error)
	Insert(ctx context.Context, e Expense) (Expense, error)
	UpdateFields(ctx context.Context, e Expense) error
	Delete(ctx context.Context, id int64) error
	// Transition flips status with an in-database guard on the prior state.
	Transition(ctx context.Context, id int64, from, to Status, by int64, at time.Time, method *string, date *time.Time) (bool, error)
	RefreshCaseSnapshot(ctx context.Context, caseID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const expenseColumns = `id, title, amount, currency, category_id, status, payment_method, payment_date, case_id, recolte_id, ref_kind, ref_id, created_by, approved_by, approved_at, paid_by, paid_at, rejected_by, rejected_at, created_at, updated_at`

func scanExpense(row pgx.Row) (Expense, error) {
	var (
		e       Expense
		refKind *string
		refID   *int64
	)
	err := row.Scan(&e.ID, &e.Title, &e.Amount, &e.Currency, &e.CategoryID, &e.Status,
		&e.PaymentMethod, &e.PaymentDate, &e.CaseID, &e.RecolteID, &refKind, &refID,
		&e.CreatedBy, &e.ApprovedBy, &e.ApprovedAt, &e.PaidBy, &e.PaidAt, &e.RejectedBy, &e.RejectedAt,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Expense{}, ErrNotFound
		}
		return Expense{}, err
	}
	if refKind != nil && refID != nil {
		e.Ref = &PaymentRef{Kind: RefKind(*refKind), ID: *refID}
	}
	return e, nil
}

func refColumns(ref *PaymentRef) (kind *string, id *int64) {
	if ref == nil {
		return nil, nil
	}
	k := string(ref.Kind)
	return &k, &ref.ID
}

func (r *repository) GetByID(ctx context.Context, id int64) (Expense, error) {
	return scanExpense(r.db.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id=$1`, id))
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Expense, error) {
	rows, err := r.db.Query(ctx, `SELECT `+expenseColumns+` FROM expenses
WHERE ($1 = '' OR status = $1)
  AND ($2::bigint IS NULL OR case_id = $2)
  AND ($3::bigint IS NULL OR created_by = $3)
ORDER BY created_at DESC`, string(filter.Status), filter.CaseID, filter.CreatedBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repository) CreateCategory(ctx context.Context, name string) (ExpenseCategory, error) {
	var c ExpenseCategory
	err := r.db.QueryRow(ctx, `INSERT INTO expense_categories (name) VALUES ($1) RETURNING id, name, created_at`, name).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return ExpenseCategory{}, ErrCategoryTaken
		}
		return ExpenseCategory{}, err
	}
	return c, nil
}

func (r *repository) ListCategories(ctx context.Context) ([]ExpenseCategory, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM expense_categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ExpenseCategory
	for rows.Next() {
		var c ExpenseCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
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

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Expense, error) {
	return scanExpense(r.tx.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) Insert(ctx context.Context, e Expense) (Expense, error) {
	refKind, refID := refColumns(e.Ref)
	row := r.tx.QueryRow(ctx, `INSERT INTO expenses
(title, amount, currency, category_id, status, payment_method, payment_date, case_id, recolte_id, ref_kind, ref_id, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING `+expenseColumns,
		e.Title, e.Amount, e.Currency, e.CategoryID, e.Status, e.PaymentMethod, e.PaymentDate,
		e.CaseID, e.RecolteID, refKind, refID, e.CreatedBy)
	return scanExpense(row)
}

func (r *txRepository) UpdateFields(ctx context.Context, e Expense) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE expenses
SET title=$2, amount=$3, currency=$4, category_id=$5, case_id=$6, recolte_id=$7, updated_at=NOW()
WHERE id=$1`, e.ID, e.Title, e.Amount, e.Currency, e.CategoryID, e.CaseID, e.RecolteID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM expenses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) Transition(ctx context.Context, id int64, from, to Status, by int64, at time.Time, method *string, date *time.Time) (bool, error) {
	var query string
	switch to {
	case StatusApproved:
		query = `UPDATE expenses SET status=$3, approved_by=$4, approved_at=$5, updated_at=NOW() WHERE id=$1 AND status=$2`
	case StatusPaid:
		query = `UPDATE expenses SET status=$3, paid_by=$4, paid_at=$5, payment_method=$6, payment_date=$7, updated_at=NOW() WHERE id=$1 AND status=$2`
	case StatusRejected:
		query = `UPDATE expenses SET status=$3, rejected_by=$4, rejected_at=$5, updated_at=NOW() WHERE id=$1 AND status=$2`
	default:
		return false, errors.New("expenses: unsupported transition target")
	}
	var (
		cmd pgconn.CommandTag
		err error
	)
	if to == StatusPaid {
		cmd, err = r.tx.Exec(ctx, query, id, from, to, by, at, method, date)
	} else {
		cmd, err = r.tx.Exec(ctx, query, id, from, to, by, at)
	}
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *txRepository) RefreshCaseSnapshot(ctx context.Context, caseID int64) error {
	var balance decimal.Decimal
	return r.tx.QueryRow(ctx, cases.SnapshotUpdateSQL, caseID).Scan(&balance)
}
