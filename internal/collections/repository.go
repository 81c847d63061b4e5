package collections

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/colisnet/colisnet/internal/cases"
	"github.com/colisnet/colisnet/internal/parcels"
	"github.com/colisnet/colisnet/internal/platform/db"
)

// Repository encapsulates DB operations for collections.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Collection, error)
	ListByCase(ctx context.Context, caseID int64, onlyUnrecolted bool) ([]Collection, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction. Parcel and
// money case rows are touched here too; the queries are duplicated from
// their packages because they must run in this transaction context.
type TxRepository interface {
	ParcelForUpdate(ctx context.Context, parcelID int64) (parcels.Parcel, error)
	HasCollectionForParcel(ctx context.Context, parcelID int64) (bool, error)
	Insert(ctx context.Context, c Collection) (Collection, error)
	GetForUpdate(ctx context.Context, id int64) (Collection, error)
	IsRecolted(ctx context.Context, id int64) (bool, error)
	SetCase(ctx context.Context, id int64, caseID *int64) error
	RefreshCaseSnapshot(ctx context.Context, caseID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const collectionColumns = `id, parcel_id, collected_at, amount, amount_given, margin, driver_commission, case_id, driver_id, created_by, parcel_type, created_at`

func scanCollection(row pgx.Row) (Collection, error) {
	var c Collection
	err := row.Scan(&c.ID, &c.ParcelID, &c.CollectedAt, &c.Amount, &c.AmountGiven, &c.Margin,
		&c.DriverCommission, &c.CaseID, &c.DriverID, &c.CreatedBy, &c.ParcelType, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Collection{}, ErrNotFound
		}
		return Collection{}, err
	}
	return c, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (Collection, error) {
	return scanCollection(r.db.QueryRow(ctx, `SELECT `+collectionColumns+` FROM collections WHERE id=$1`, id))
}

func (r *repository) ListByCase(ctx context.Context, caseID int64, onlyUnrecolted bool) ([]Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE case_id=$1`
	if onlyUnrecolted {
		query += ` AND NOT EXISTS (SELECT 1 FROM recolte_collections rc WHERE rc.collection_id = collections.id)`
	}
	query += ` ORDER BY collected_at DESC`
	rows, err := r.db.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
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

func (r *txRepository) ParcelForUpdate(ctx context.Context, parcelID int64) (parcels.Parcel, error) {
	var p parcels.Parcel
	err := r.tx.QueryRow(ctx, `SELECT id, tracking_number, cod_amount, status, delivery_type, driver_id, delivered_at, created_at, updated_at
FROM parcels WHERE id=$1 FOR UPDATE`, parcelID).
		Scan(&p.ID, &p.TrackingNumber, &p.CODAmount, &p.Status, &p.DeliveryType, &p.DriverID, &p.DeliveredAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return parcels.Parcel{}, ErrParcelNotFound
		}
		return parcels.Parcel{}, err
	}
	return p, nil
}

func (r *txRepository) HasCollectionForParcel(ctx context.Context, parcelID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM collections WHERE parcel_id=$1)`, parcelID).Scan(&exists)
	return exists, err
}

func (r *txRepository) Insert(ctx context.Context, c Collection) (Collection, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO collections
(parcel_id, collected_at, amount, amount_given, margin, driver_commission, case_id, driver_id, created_by, parcel_type)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING `+collectionColumns,
		c.ParcelID, c.CollectedAt, c.Amount, c.AmountGiven, c.Margin, c.DriverCommission, c.CaseID, c.DriverID, c.CreatedBy, c.ParcelType)
	return scanCollection(row)
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Collection, error) {
	return scanCollection(r.tx.QueryRow(ctx, `SELECT `+collectionColumns+` FROM collections WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) IsRecolted(ctx context.Context, id int64) (bool, error) {
	var recolted bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM recolte_collections WHERE collection_id=$1)`, id).Scan(&recolted)
	return recolted, err
}

func (r *txRepository) SetCase(ctx context.Context, id int64, caseID *int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE collections SET case_id=$2 WHERE id=$1`, id, caseID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) RefreshCaseSnapshot(ctx context.Context, caseID int64) error {
	var balance any
	return r.tx.QueryRow(ctx, cases.SnapshotUpdateSQL, caseID).Scan(&balance)
}
