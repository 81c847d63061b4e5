package reports

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/colisnet/colisnet/internal/cases"
)

// ErrNotFound marks a missing case or recolte.
var ErrNotFound = errors.New("report subject not found")

// Repository runs the read-only report queries.
type Repository interface {
	CaseStatement(ctx context.Context, caseID int64) (CaseStatement, error)
	RecolteStatement(ctx context.Context, recolteID int64) (RecolteStatement, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) CaseStatement(ctx context.Context, caseID int64) (CaseStatement, error) {
	var s CaseStatement
	err := r.db.QueryRow(ctx, `
		SELECT mc.id, mc.name, mc.status,
		       COALESCE((SELECT SUM(c.amount) FROM collections c WHERE c.case_id = mc.id
		                   AND NOT EXISTS (SELECT 1 FROM recolte_collections rc WHERE rc.collection_id = c.id)), 0),
		       COALESCE((SELECT COUNT(*) FROM collections c WHERE c.case_id = mc.id
		                   AND NOT EXISTS (SELECT 1 FROM recolte_collections rc WHERE rc.collection_id = c.id)), 0),
		       COALESCE((SELECT SUM(e.amount) FROM expenses e WHERE e.case_id = mc.id AND e.status <> 'rejected'), 0),
		       COALESCE((SELECT COUNT(*) FROM expenses e WHERE e.case_id = mc.id AND e.status <> 'rejected'), 0),
		       (`+cases.BalanceSelectSQL+`)
		FROM money_cases mc
		WHERE mc.id = $1`, caseID).
		Scan(&s.CaseID, &s.CaseName, &s.Status,
			&s.CollectionsTotal, &s.CollectionsCount,
			&s.ExpensesTotal, &s.ExpensesCount, &s.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CaseStatement{}, ErrNotFound
		}
		return CaseStatement{}, err
	}
	return s, nil
}

func (r *repository) RecolteStatement(ctx context.Context, recolteID int64) (RecolteStatement, error) {
	var s RecolteStatement
	err := r.db.QueryRow(ctx, `
		SELECT r.id, r.code, r.manual_amount,
		       COALESCE((SELECT COUNT(*) FROM recolte_collections rc WHERE rc.recolte_id = r.id), 0),
		       COALESCE((SELECT SUM(c.amount) FROM collections c
		                   JOIN recolte_collections rc ON rc.collection_id = c.id
		                  WHERE rc.recolte_id = r.id), 0)
		FROM recoltes r
		WHERE r.id = $1`, recolteID).
		Scan(&s.RecolteID, &s.Code, &s.ManualAmount, &s.CollectionsCount, &s.ComputedTotal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RecolteStatement{}, ErrNotFound
		}
		return RecolteStatement{}, err
	}
	return s, nil
}
