package cases

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository encapsulates DB operations for money cases.
type Repository interface {
	Create(ctx context.Context, name string) (MoneyCase, error)
	GetByID(ctx context.Context, id int64) (MoneyCase, error)
	List(ctx context.Context) ([]MoneyCase, error)
	ListActive(ctx context.Context) ([]MoneyCase, error)
	SetStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
	HasActivity(ctx context.Context, id int64) (bool, error)

	// Activate performs the atomic conditional claim. It reports whether a
	// row was updated; the caller resolves why when it was not.
	Activate(ctx context.Context, id, userID int64) (bool, error)
	Release(ctx context.Context, id, userID int64) (bool, error)

	CalculateBalance(ctx context.Context, id int64) (decimal.Decimal, error)
	RefreshBalance(ctx context.Context, id int64) (decimal.Decimal, error)
	ListIDs(ctx context.Context) ([]int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const caseColumns = `id, name, status, balance, last_active_by, last_activated_at, created_at, updated_at`

func scanCase(row pgx.Row) (MoneyCase, error) {
	var c MoneyCase
	err := row.Scan(&c.ID, &c.Name, &c.Status, &c.Balance, &c.LastActiveBy, &c.LastActivatedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MoneyCase{}, ErrNotFound
		}
		return MoneyCase{}, err
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, name string) (MoneyCase, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO money_cases (name, status, balance) VALUES ($1, 'active', 0) RETURNING `+caseColumns, name)
	c, err := scanCase(row)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return MoneyCase{}, ErrNameTaken
		}
		return MoneyCase{}, err
	}
	return c, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (MoneyCase, error) {
	return scanCase(r.db.QueryRow(ctx, `SELECT `+caseColumns+` FROM money_cases WHERE id=$1`, id))
}

func (r *repository) List(ctx context.Context) ([]MoneyCase, error) {
	return r.list(ctx, `SELECT `+caseColumns+` FROM money_cases ORDER BY name ASC`)
}

func (r *repository) ListActive(ctx context.Context) ([]MoneyCase, error) {
	return r.list(ctx, `SELECT `+caseColumns+` FROM money_cases WHERE status='active' ORDER BY name ASC`)
}

func (r *repository) list(ctx context.Context, query string) ([]MoneyCase, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MoneyCase
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) SetStatus(ctx context.Context, id int64, status Status) error {
	cmd, err := r.db.Exec(ctx, `UPDATE money_cases SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM money_cases WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) HasActivity(ctx context.Context, id int64) (bool, error) {
	var active bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM collections WHERE case_id=$1) OR EXISTS (SELECT 1 FROM expenses WHERE case_id=$1)`, id).Scan(&active)
	return active, err
}

// Activate claims the drawer in a single conditional update so that two
// concurrent requests can never both observe an unclaimed case.
func (r *repository) Activate(ctx context.Context, id, userID int64) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE money_cases
SET last_active_by=$2, last_activated_at=NOW(), updated_at=NOW()
WHERE id=$1 AND status='active' AND (last_active_by IS NULL OR last_active_by=$2)`, id, userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *repository) Release(ctx context.Context, id, userID int64) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE money_cases
SET last_active_by=NULL, updated_at=NOW()
WHERE id=$1 AND last_active_by=$2`, id, userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *repository) CalculateBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	if err := r.db.QueryRow(ctx, BalanceSelectSQL, id).Scan(&balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (r *repository) RefreshBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	if err := r.db.QueryRow(ctx, SnapshotUpdateSQL, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}
	return balance, nil
}

func (r *repository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM money_cases ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
