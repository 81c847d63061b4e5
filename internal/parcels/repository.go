package parcels

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository encapsulates DB operations for parcels.
type Repository interface {
	Insert(ctx context.Context, p Parcel) (Parcel, error)
	GetByID(ctx context.Context, id int64) (Parcel, error)
	GetByTracking(ctx context.Context, tracking string) (Parcel, error)
	List(ctx context.Context, filter ListFilter) ([]Parcel, int, error)
	AssignDriver(ctx context.Context, id, driverID int64) error
	SetStatus(ctx context.Context, id int64, from, to Status) (bool, error)

	// MarkDelivered writes delivered_at at most once; re-delivery attempts
	// match zero rows.
	MarkDelivered(ctx context.Context, id int64) (bool, error)
}

// ListFilter narrows parcel listings.
type ListFilter struct {
	Status   Status
	DriverID *int64
	Page     int
	PerPage  int
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const parcelColumns = `id, tracking_number, cod_amount, status, delivery_type, driver_id, delivered_at, created_at, updated_at`

func scanParcel(row pgx.Row) (Parcel, error) {
	var p Parcel
	err := row.Scan(&p.ID, &p.TrackingNumber, &p.CODAmount, &p.Status, &p.DeliveryType, &p.DriverID, &p.DeliveredAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Parcel{}, ErrNotFound
		}
		return Parcel{}, err
	}
	return p, nil
}

func (r *repository) Insert(ctx context.Context, p Parcel) (Parcel, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO parcels (tracking_number, cod_amount, status, delivery_type, driver_id)
VALUES ($1, $2, $3, $4, $5) RETURNING `+parcelColumns,
		p.TrackingNumber, p.CODAmount, p.Status, p.DeliveryType, p.DriverID)
	inserted, err := scanParcel(row)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return Parcel{}, ErrTrackingTaken
		}
		return Parcel{}, err
	}
	return inserted, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (Parcel, error) {
	return scanParcel(r.db.QueryRow(ctx, `SELECT `+parcelColumns+` FROM parcels WHERE id=$1`, id))
}

func (r *repository) GetByTracking(ctx context.Context, tracking string) (Parcel, error) {
	return scanParcel(r.db.QueryRow(ctx, `SELECT `+parcelColumns+` FROM parcels WHERE tracking_number=$1`, tracking))
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Parcel, int, error) {
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	where := ` WHERE ($1 = '' OR status = $1) AND ($2::bigint IS NULL OR driver_id = $2)`
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM parcels`+where, string(filter.Status), filter.DriverID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+parcelColumns+` FROM parcels`+where+` ORDER BY id DESC LIMIT $3 OFFSET $4`,
		string(filter.Status), filter.DriverID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Parcel
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) AssignDriver(ctx context.Context, id, driverID int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE parcels SET driver_id=$2, status='assigned', updated_at=NOW()
WHERE id=$1 AND status='pending'`, id, driverID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCannotAssign
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, id int64, from, to Status) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE parcels SET status=$3, updated_at=NOW() WHERE id=$1 AND status=$2`, id, from, to)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *repository) MarkDelivered(ctx context.Context, id int64) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE parcels SET status='delivered', delivered_at=NOW(), updated_at=NOW()
WHERE id=$1 AND delivered_at IS NULL`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
