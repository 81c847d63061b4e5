package recoltes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/colisnet/colisnet/internal/cases"
	"github.com/colisnet/colisnet/internal/platform/db"
)

// Repository encapsulates DB operations for recoltes.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Recolte, error)
	List(ctx context.Context, onlyUnclaimed bool) ([]Recolte, error)
	Summary(ctx context.Context, id int64) (Summary, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a batching transaction.
// Money case updates run here too because they must commit atomically with
// the attach.
type TxRepository interface {
	LockCollections(ctx context.Context, ids []int64) ([]LockedCollection, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	InsertRecolte(ctx context.Context, r Recolte) (Recolte, error)
	AttachCollections(ctx context.Context, recolteID int64, collectionIDs []int64) error
	DetachCollections(ctx context.Context, recolteID int64, collectionIDs []int64) error
	AttachedCollectionIDs(ctx context.Context, recolteID int64) ([]int64, error)
	GetForUpdate(ctx context.Context, id int64) (Recolte, error)
	UpdateDetails(ctx context.Context, id int64, note string, manualAmount *decimal.Decimal, discrepancyNote string) error
	ReassignCollectionsCase(ctx context.Context, collectionIDs []int64, caseID int64) error
	ClearCaseHolders(ctx context.Context, caseIDs []int64) error
	RefreshCaseSnapshots(ctx context.Context, caseIDs []int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const recolteColumns = `id, code, note, manual_amount, amount_discrepancy_note, transfer_request_id, created_by, created_at, updated_at`

func scanRecolte(row pgx.Row) (Recolte, error) {
	var rec Recolte
	err := row.Scan(&rec.ID, &rec.Code, &rec.Note, &rec.ManualAmount, &rec.AmountDiscrepancyNote,
		&rec.TransferRequestID, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Recolte{}, ErrNotFound
		}
		return Recolte{}, err
	}
	return rec, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (Recolte, error) {
	return scanRecolte(r.db.QueryRow(ctx, `SELECT `+recolteColumns+` FROM recoltes WHERE id=$1`, id))
}

func (r *repository) List(ctx context.Context, onlyUnclaimed bool) ([]Recolte, error) {
	query := `SELECT ` + recolteColumns + ` FROM recoltes`
	if onlyUnclaimed {
		query += ` WHERE transfer_request_id IS NULL`
	}
	query += ` ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Recolte
	for rows.Next() {
		rec, err := scanRecolte(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repository) Summary(ctx context.Context, id int64) (Summary, error) {
	rec, err := r.GetByID(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	var (
		count int
		total decimal.Decimal
	)
	err = r.db.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(c.amount), 0)
FROM recolte_collections rc JOIN collections c ON c.id = rc.collection_id
WHERE rc.recolte_id = $1`, id).Scan(&count, &total)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{
		RecolteID:       rec.ID,
		Code:            rec.Code,
		CollectionCount: count,
		ComputedTotal:   total,
		ManualAmount:    rec.ManualAmount,
		DiscrepancyNote: rec.AmountDiscrepancyNote,
	}
	if rec.ManualAmount != nil {
		d := rec.ManualAmount.Sub(total)
		summary.Discrepancy = &d
	}
	return summary, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) LockCollections(ctx context.Context, ids []int64) ([]LockedCollection, error) {
	rows, err := r.tx.Query(ctx, `SELECT c.id, c.case_id,
EXISTS (SELECT 1 FROM recolte_collections rc WHERE rc.collection_id = c.id) AS recolted
FROM collections c WHERE c.id = ANY($1) ORDER BY c.id FOR UPDATE OF c`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LockedCollection
	for rows.Next() {
		var lc LockedCollection
		if err := rows.Scan(&lc.ID, &lc.CaseID, &lc.Recolted); err != nil {
			return nil, err
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

func (r *txRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM recoltes WHERE code=$1)`, code).Scan(&exists)
	return exists, err
}

func (r *txRepository) InsertRecolte(ctx context.Context, rec Recolte) (Recolte, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO recoltes (code, note, manual_amount, amount_discrepancy_note, created_by)
VALUES ($1,$2,$3,$4,$5) RETURNING `+recolteColumns,
		rec.Code, rec.Note, rec.ManualAmount, rec.AmountDiscrepancyNote, rec.CreatedBy)
	return scanRecolte(row)
}

func (r *txRepository) AttachCollections(ctx context.Context, recolteID int64, collectionIDs []int64) error {
	for _, id := range collectionIDs {
		if _, err := r.tx.Exec(ctx, `INSERT INTO recolte_collections (recolte_id, collection_id) VALUES ($1,$2)`, recolteID, id); err != nil {
			if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
				return ErrCollectionRecolted
			}
			return err
		}
	}
	return nil
}

func (r *txRepository) DetachCollections(ctx context.Context, recolteID int64, collectionIDs []int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM recolte_collections WHERE recolte_id=$1 AND collection_id = ANY($2)`, recolteID, collectionIDs)
	return err
}

func (r *txRepository) AttachedCollectionIDs(ctx context.Context, recolteID int64) ([]int64, error) {
	rows, err := r.tx.Query(ctx, `SELECT collection_id FROM recolte_collections WHERE recolte_id=$1 ORDER BY collection_id`, recolteID)
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

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Recolte, error) {
	return scanRecolte(r.tx.QueryRow(ctx, `SELECT `+recolteColumns+` FROM recoltes WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) UpdateDetails(ctx context.Context, id int64, note string, manualAmount *decimal.Decimal, discrepancyNote string) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE recoltes SET note=$2, manual_amount=$3, amount_discrepancy_note=$4, updated_at=NOW() WHERE id=$1`,
		id, note, manualAmount, discrepancyNote)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) ReassignCollectionsCase(ctx context.Context, collectionIDs []int64, caseID int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE collections SET case_id=$2 WHERE id = ANY($1)`, collectionIDs, caseID)
	return err
}

func (r *txRepository) ClearCaseHolders(ctx context.Context, caseIDs []int64) error {
	if len(caseIDs) == 0 {
		return nil
	}
	_, err := r.tx.Exec(ctx, `UPDATE money_cases SET last_active_by=NULL, updated_at=NOW() WHERE id = ANY($1)`, caseIDs)
	return err
}

func (r *txRepository) RefreshCaseSnapshots(ctx context.Context, caseIDs []int64) error {
	for _, id := range caseIDs {
		var balance decimal.Decimal
		if err := r.tx.QueryRow(ctx, cases.SnapshotUpdateSQL, id).Scan(&balance); err != nil {
			return err
		}
	}
	return nil
}
