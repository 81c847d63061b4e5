package transfers

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/colisnet/colisnet/internal/platform/db"
)

// Repository encapsulates DB operations for transfer requests.
type Repository interface {
	GetByID(ctx context.Context, id int64) (TransferRequest, error)
	List(ctx context.Context, status Status) ([]TransferRequest, error)
	RecolteIDs(ctx context.Context, transferID int64) ([]int64, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	// LockUnclaimedRecoltes row-locks recoltes without a transfer so a
	// concurrent create cannot bundle the same ones.
	LockUnclaimedRecoltes(ctx context.Context, ids []int64) ([]int64, error)
	AdminExists(ctx context.Context, userID int64) (bool, error)
	Insert(ctx context.Context, supervisorID, adminID int64, code string) (TransferRequest, error)
	ClaimRecoltes(ctx context.Context, transferID int64, recolteIDs []int64) error
	GetForUpdate(ctx context.Context, id int64) (TransferRequest, error)
	MarkVerified(ctx context.Context, id int64, at time.Time) error
	MarkRejected(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const transferColumns = `id, supervisor_id, admin_id, status, verification_code, verified_at, created_at, updated_at`

func scanTransfer(row pgx.Row) (TransferRequest, error) {
	var t TransferRequest
	err := row.Scan(&t.ID, &t.SupervisorID, &t.AdminID, &t.Status, &t.VerificationCode, &t.VerifiedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TransferRequest{}, ErrNotFound
		}
		return TransferRequest{}, err
	}
	return t, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (TransferRequest, error) {
	return scanTransfer(r.db.QueryRow(ctx, `SELECT `+transferColumns+` FROM transfer_requests WHERE id=$1`, id))
}

func (r *repository) List(ctx context.Context, status Status) ([]TransferRequest, error) {
	query := `SELECT ` + transferColumns + ` FROM transfer_requests ORDER BY id DESC`
	args := []any{}
	if status != "" {
		query = `SELECT ` + transferColumns + ` FROM transfer_requests WHERE status=$1 ORDER BY id DESC`
		args = append(args, status)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TransferRequest
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) RecolteIDs(ctx context.Context, transferID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM recoltes WHERE transfer_request_id=$1 ORDER BY id`, transferID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
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

func (t *txRepository) LockUnclaimedRecoltes(ctx context.Context, ids []int64) ([]int64, error) {
	query := `SELECT id FROM recoltes WHERE transfer_request_id IS NULL ORDER BY id FOR UPDATE`
	args := []any{}
	if len(ids) > 0 {
		query = `SELECT id FROM recoltes WHERE transfer_request_id IS NULL AND id = ANY($1) ORDER BY id FOR UPDATE`
		args = append(args, ids)
	}
	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (t *txRepository) AdminExists(ctx context.Context, userID int64) (bool, error) {
	var ok bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id=$1 AND role='admin' AND active)`, userID).Scan(&ok)
	return ok, err
}

func (t *txRepository) Insert(ctx context.Context, supervisorID, adminID int64, code string) (TransferRequest, error) {
	row := t.tx.QueryRow(ctx, `
		INSERT INTO transfer_requests (supervisor_id, admin_id, status, verification_code)
		VALUES ($1, $2, 'pending', $3)
		RETURNING `+transferColumns, supervisorID, adminID, code)
	return scanTransfer(row)
}

func (t *txRepository) ClaimRecoltes(ctx context.Context, transferID int64, recolteIDs []int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE recoltes SET transfer_request_id=$1, updated_at=NOW() WHERE id = ANY($2)`, transferID, recolteIDs)
	return err
}

func (t *txRepository) GetForUpdate(ctx context.Context, id int64) (TransferRequest, error) {
	return scanTransfer(t.tx.QueryRow(ctx, `SELECT `+transferColumns+` FROM transfer_requests WHERE id=$1 FOR UPDATE`, id))
}

func (t *txRepository) MarkVerified(ctx context.Context, id int64, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE transfer_requests SET status='success', verified_at=$2, updated_at=NOW()
		WHERE id=$1 AND status='pending'`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

func (t *txRepository) MarkRejected(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE transfer_requests SET status='rejected', updated_at=NOW()
		WHERE id=$1 AND status='pending'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}
