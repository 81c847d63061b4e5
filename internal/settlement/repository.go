package settlement

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/colisnet/colisnet/internal/platform/db"
)

// ParcelRow is what an import needs to know about one tracking number.
type ParcelRow struct {
	ID           int64
	CODAmount    decimal.Decimal
	Status       string
	DeliveryType string
	Collected    bool
}

// Repository encapsulates DB operations for settlement imports.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within the import transaction.
type TxRepository interface {
	// ParcelByTracking row-locks the parcel so a concurrent collection
	// cannot slip in between the check and the insert.
	ParcelByTracking(ctx context.Context, trackingNumber string) (ParcelRow, error)
	InsertCollection(ctx context.Context, parcelID int64, amount, given, margin decimal.Decimal, commission *decimal.Decimal, driverID, createdBy int64) (int64, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	InsertRecolte(ctx context.Context, code, note string, createdBy int64) (int64, error)
	AttachCollections(ctx context.Context, recolteID int64, collectionIDs []int64) error
}

// ErrParcelUnknown marks a tracking number with no matching parcel.
var ErrParcelUnknown = errors.New("unknown tracking number")

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) ParcelByTracking(ctx context.Context, trackingNumber string) (ParcelRow, error) {
	var p ParcelRow
	err := t.tx.QueryRow(ctx, `
		SELECT p.id, p.cod_amount, p.status, p.delivery_type,
		       EXISTS (SELECT 1 FROM collections c WHERE c.parcel_id = p.id)
		FROM parcels p
		WHERE p.tracking_number = $1
		FOR UPDATE OF p`, trackingNumber).
		Scan(&p.ID, &p.CODAmount, &p.Status, &p.DeliveryType, &p.Collected)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ParcelRow{}, ErrParcelUnknown
		}
		return ParcelRow{}, err
	}
	return p, nil
}

func (t *txRepository) InsertCollection(ctx context.Context, parcelID int64, amount, given, margin decimal.Decimal, commission *decimal.Decimal, driverID, createdBy int64) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO collections (parcel_id, collected_at, amount, amount_given, margin, driver_commission, driver_id, parcel_type, created_by)
		VALUES ($1, NOW(), $2, $3, $4, $5, $6, 'home_delivery', $7)
		RETURNING id`, parcelID, amount, given, margin, commission, driverID, createdBy).Scan(&id)
	return id, err
}

func (t *txRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM recoltes WHERE code=$1)`, code).Scan(&exists)
	return exists, err
}

func (t *txRepository) InsertRecolte(ctx context.Context, code, note string, createdBy int64) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO recoltes (code, note, created_by) VALUES ($1, $2, $3) RETURNING id`,
		code, note, createdBy).Scan(&id)
	return id, err
}

func (t *txRepository) AttachCollections(ctx context.Context, recolteID int64, collectionIDs []int64) error {
	rows := make([][]any, 0, len(collectionIDs))
	for _, id := range collectionIDs {
		rows = append(rows, []any{recolteID, id})
	}
	_, err := t.tx.CopyFrom(ctx, pgx.Identifier{"recolte_collections"}, []string{"recolte_id", "collection_id"}, pgx.CopyFromRows(rows))
	return err
}
