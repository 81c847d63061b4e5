package expenses

import (
	"context"
	"fmt"
	"time"

	"github.com/colisnet/colisnet/internal/shared"
)

// AuditPort records domain events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns the expense workflow rules.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func defaultCurrency(c string) string {
	if c == "" {
		return "DZD"
	}
	return c
}

// canSee applies the visibility rule: agents only see their own expenses.
func canSee(actor shared.Actor, e Expense) bool {
	return actor.Role.CanModerate() || e.CreatedBy == actor.UserID
}

// Create records a manual expense in pending state, refreshing the attributed
// case snapshot in the same transaction.
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateRequest) (Expense, error) {
	if !req.Amount.IsPositive() {
		return Expense{}, ErrInvalidAmount
	}
	var created Expense
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = tx.Insert(ctx, Expense{
			Title:      req.Title,
			Amount:     req.Amount,
			Currency:   defaultCurrency(req.Currency),
			CategoryID: req.CategoryID,
			Status:     StatusPending,
			CaseID:     req.CaseID,
			RecolteID:  req.RecolteID,
			CreatedBy:  actor.UserID,
		})
		if err != nil {
			return err
		}
		if req.CaseID != nil {
			return tx.RefreshCaseSnapshot(ctx, *req.CaseID)
		}
		return nil
	})
	if err != nil {
		return Expense{}, err
	}
	return created, nil
}

// Get returns one expense, subject to visibility.
func (s *Service) Get(ctx context.Context, actor shared.Actor, id int64) (Expense, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	if !canSee(actor, e) {
		return Expense{}, ErrNotVisible
	}
	return e, nil
}

// List returns expenses; agents are restricted to their own.
func (s *Service) List(ctx context.Context, actor shared.Actor, filter ListFilter) ([]Expense, error) {
	if !actor.Role.CanModerate() {
		filter.CreatedBy = &actor.UserID
	}
	return s.repo.List(ctx, filter)
}

// Update edits a pending expense. Mirrored payroll expenses cannot be edited
// directly; both the old and the new case snapshots are refreshed.
func (s *Service) Update(ctx context.Context, actor shared.Actor, id int64, req UpdateRequest) (Expense, error) {
	if !req.Amount.IsPositive() {
		return Expense{}, ErrInvalidAmount
	}
	var updated Expense
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !canSee(actor, current) {
			return ErrNotVisible
		}
		if current.Ref != nil {
			return ErrMirrored
		}
		if !current.Status.CanEdit() {
			return ErrCannotEdit
		}
		updated = current
		updated.Title = req.Title
		updated.Amount = req.Amount
		updated.Currency = defaultCurrency(req.Currency)
		updated.CategoryID = req.CategoryID
		updated.CaseID = req.CaseID
		updated.RecolteID = req.RecolteID
		if err := tx.UpdateFields(ctx, updated); err != nil {
			return err
		}
		return refreshBoth(ctx, tx, current.CaseID, req.CaseID)
	})
	if err != nil {
		return Expense{}, err
	}
	return updated, nil
}

// Delete removes a pending or rejected expense and restores the case balance.
func (s *Service) Delete(ctx context.Context, actor shared.Actor, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !canSee(actor, current) {
			return ErrNotVisible
		}
		if current.Ref != nil {
			return ErrMirrored
		}
		if !current.Status.CanDelete() {
			return ErrCannotDelete
		}
		if err := tx.Delete(ctx, id); err != nil {
			return err
		}
		if current.CaseID != nil {
			return tx.RefreshCaseSnapshot(ctx, *current.CaseID)
		}
		return nil
	})
}

// Approve moves a pending expense to approved. Supervisor or admin only.
func (s *Service) Approve(ctx context.Context, actor shared.Actor, id int64) (Expense, error) {
	return s.transition(ctx, actor, id, StatusPending, StatusApproved, ErrCannotApprove, nil, nil, "expense.approve")
}

// MarkPaid moves an approved expense to paid, stamping the payment details.
func (s *Service) MarkPaid(ctx context.Context, actor shared.Actor, id int64, req PayRequest) (Expense, error) {
	date := req.PaymentDate
	if date == nil {
		n := s.now()
		date = &n
	}
	return s.transition(ctx, actor, id, StatusApproved, StatusPaid, ErrCannotPay, &req.PaymentMethod, date, "expense.pay")
}

// Reject terminates a pending expense; the case snapshot is refreshed so the
// earmarked amount reappears in the drawer's balance.
func (s *Service) Reject(ctx context.Context, actor shared.Actor, id int64) (Expense, error) {
	return s.transition(ctx, actor, id, StatusPending, StatusRejected, ErrCannotReject, nil, nil, "expense.reject")
}

func (s *Service) transition(ctx context.Context, actor shared.Actor, id int64, from, to Status, guardErr error, method *string, date *time.Time, action string) (Expense, error) {
	if !actor.Role.CanModerate() {
		return Expense{}, shared.ErrForbidden
	}
	var result Expense
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		ok, err := tx.Transition(ctx, id, from, to, actor.UserID, s.now(), method, date)
		if err != nil {
			return err
		}
		if !ok {
			return guardErr
		}
		if to == StatusRejected && current.CaseID != nil {
			if err := tx.RefreshCaseSnapshot(ctx, *current.CaseID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Expense{}, err
	}
	result, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.UserID,
			Action:   action,
			Entity:   "expense",
			EntityID: fmt.Sprintf("%d", id),
			Meta:     map[string]any{"amount": result.Amount.String()},
			At:       s.now(),
		})
	}
	return result, nil
}

// CreateCategory registers a category.
func (s *Service) CreateCategory(ctx context.Context, name string) (ExpenseCategory, error) {
	return s.repo.CreateCategory(ctx, name)
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]ExpenseCategory, error) {
	return s.repo.ListCategories(ctx)
}

func refreshBoth(ctx context.Context, tx TxRepository, oldCase, newCase *int64) error {
	if oldCase != nil {
		if err := tx.RefreshCaseSnapshot(ctx, *oldCase); err != nil {
			return err
		}
	}
	if newCase != nil && (oldCase == nil || *newCase != *oldCase) {
		return tx.RefreshCaseSnapshot(ctx, *newCase)
	}
	return nil
}
