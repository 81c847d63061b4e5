package recoltes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/colisnet/colisnet/internal/shared"
)

// AuditPort records domain events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards against double-submitted batches.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

const idempotencyModule = "recoltes"

// Service owns the batching rules.
type Service struct {
	repo        Repository
	audit       AuditPort
	idempotency IdempotencyPort
	now         func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, audit AuditPort, idempotency IdempotencyPort) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idempotency, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create freezes the selected collections into a new recolte. In one
// transaction it optionally reassigns them to a target case, frees every
// drawer they previously pointed at, attaches them to the batch and
// refreshes the snapshot of every case touched. Any failure rolls the whole
// batch back.
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateRequest, idempotencyKey string) (Recolte, error) {
	if len(req.CollectionIDs) == 0 {
		return Recolte{}, ErrNoCollections
	}
	if s.idempotency != nil && idempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, idempotencyModule); err != nil {
			return Recolte{}, err
		}
	}
	var created Recolte
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockCollections(ctx, req.CollectionIDs)
		if err != nil {
			return err
		}
		if len(locked) != len(req.CollectionIDs) {
			return ErrCollectionNotFound
		}
		priorCases := make(map[int64]struct{})
		for _, lc := range locked {
			if lc.Recolted {
				return ErrCollectionRecolted
			}
			if lc.CaseID != nil {
				priorCases[*lc.CaseID] = struct{}{}
			}
		}

		if req.CaseID != nil {
			if err := tx.ReassignCollectionsCase(ctx, req.CollectionIDs, *req.CaseID); err != nil {
				return err
			}
		}

		// Drawers previously holding this cash are freed even when the
		// batch is re-attributed elsewhere: the money has left them.
		prior := make([]int64, 0, len(priorCases))
		for id := range priorCases {
			prior = append(prior, id)
		}
		if err := tx.ClearCaseHolders(ctx, prior); err != nil {
			return err
		}

		code, err := GenerateUniqueCode(ctx, tx.CodeExists)
		if err != nil {
			return err
		}
		created, err = tx.InsertRecolte(ctx, Recolte{
			Code:                  code,
			Note:                  req.Note,
			ManualAmount:          req.ManualAmount,
			AmountDiscrepancyNote: req.AmountDiscrepancyNote,
			CreatedBy:             actor.UserID,
		})
		if err != nil {
			return err
		}
		if err := tx.AttachCollections(ctx, created.ID, req.CollectionIDs); err != nil {
			return err
		}

		touched := prior
		if req.CaseID != nil {
			touched = append(touched, *req.CaseID)
		}
		return tx.RefreshCaseSnapshots(ctx, touched)
	})
	if err != nil {
		if s.idempotency != nil && idempotencyKey != "" && !errors.Is(err, shared.ErrIdempotencyConflict) {
			_ = s.idempotency.Delete(ctx, idempotencyKey)
		}
		return Recolte{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.UserID,
			Action:   "recolte.create",
			Entity:   "recolte",
			EntityID: fmt.Sprintf("%d", created.ID),
			Meta:     map[string]any{"code": created.Code, "collections": len(req.CollectionIDs)},
			At:       s.now(),
		})
	}
	return created, nil
}

// Update replaces the collection set via sync. Unlike Create it does not
// free drawers or reassign cases; only the balance snapshots of the cases on
// either side of the sync are recomputed. The ownership asymmetry mirrors
// the behaviour the back office depends on.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Recolte, error) {
	if len(req.CollectionIDs) == 0 {
		return Recolte{}, ErrNoCollections
	}
	var updated Recolte
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.TransferRequestID != nil {
			return ErrRecolteTransferred
		}

		attached, err := tx.AttachedCollectionIDs(ctx, id)
		if err != nil {
			return err
		}
		attachedSet := make(map[int64]struct{}, len(attached))
		for _, cid := range attached {
			attachedSet[cid] = struct{}{}
		}
		wantedSet := make(map[int64]struct{}, len(req.CollectionIDs))
		for _, cid := range req.CollectionIDs {
			wantedSet[cid] = struct{}{}
		}

		var toAdd, toRemove []int64
		for cid := range wantedSet {
			if _, ok := attachedSet[cid]; !ok {
				toAdd = append(toAdd, cid)
			}
		}
		for cid := range attachedSet {
			if _, ok := wantedSet[cid]; !ok {
				toRemove = append(toRemove, cid)
			}
		}

		touched := make(map[int64]struct{})
		if len(toAdd) > 0 {
			locked, err := tx.LockCollections(ctx, toAdd)
			if err != nil {
				return err
			}
			if len(locked) != len(toAdd) {
				return ErrCollectionNotFound
			}
			for _, lc := range locked {
				if lc.Recolted {
					return ErrCollectionRecolted
				}
				if lc.CaseID != nil {
					touched[*lc.CaseID] = struct{}{}
				}
			}
		}
		if len(toRemove) > 0 {
			locked, err := tx.LockCollections(ctx, toRemove)
			if err != nil {
				return err
			}
			for _, lc := range locked {
				if lc.CaseID != nil {
					touched[*lc.CaseID] = struct{}{}
				}
			}
			if err := tx.DetachCollections(ctx, id, toRemove); err != nil {
				return err
			}
		}
		if len(toAdd) > 0 {
			if err := tx.AttachCollections(ctx, id, toAdd); err != nil {
				return err
			}
		}
		if err := tx.UpdateDetails(ctx, id, req.Note, req.ManualAmount, req.AmountDiscrepancyNote); err != nil {
			return err
		}

		caseIDs := make([]int64, 0, len(touched))
		for cid := range touched {
			caseIDs = append(caseIDs, cid)
		}
		if err := tx.RefreshCaseSnapshots(ctx, caseIDs); err != nil {
			return err
		}
		updated = current
		updated.Note = req.Note
		updated.ManualAmount = req.ManualAmount
		updated.AmountDiscrepancyNote = req.AmountDiscrepancyNote
		return nil
	})
	if err != nil {
		return Recolte{}, err
	}
	return updated, nil
}

// Get returns one recolte.
func (s *Service) Get(ctx context.Context, id int64) (Recolte, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns recoltes, optionally only those not yet claimed by a
// transfer request.
func (s *Service) List(ctx context.Context, onlyUnclaimed bool) ([]Recolte, error) {
	return s.repo.List(ctx, onlyUnclaimed)
}

// Summary reports computed totals against the physical count.
func (s *Service) Summary(ctx context.Context, id int64) (Summary, error) {
	return s.repo.Summary(ctx, id)
}
