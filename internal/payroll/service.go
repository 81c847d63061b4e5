package payroll

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/colisnet/colisnet/internal/expenses"
	"github.com/colisnet/colisnet/internal/shared"
)

// AuditPort records domain events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles payroll business logic.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService builds a Service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	s.now = now
}

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidatePeriod checks the YYYY-MM shape.
func ValidatePeriod(period string) error {
	if !periodPattern.MatchString(period) {
		return ErrInvalidPeriod
	}
	return nil
}

// CreateSalary records one salary payment and its mirrored expense in a
// single transaction.
func (s *Service) CreateSalary(ctx context.Context, actor shared.Actor, req CreateSalaryRequest) (SalaryPayment, error) {
	if !actor.Role.CanModerate() {
		return SalaryPayment{}, shared.ErrForbidden
	}
	if err := ValidatePeriod(req.Period); err != nil {
		return SalaryPayment{}, err
	}
	var created SalaryPayment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		candidate, active, err := tx.UserForSalary(ctx, req.UserID)
		if err != nil {
			return err
		}
		if !active {
			return ErrUserInactive
		}
		amount := candidate.Salary
		if req.Amount != "" {
			parsed, err := decimal.NewFromString(req.Amount)
			if err != nil {
				return fmt.Errorf("parse amount: %w", err)
			}
			amount = parsed
		}
		created, err = tx.InsertSalary(ctx, req.UserID, req.Period, amount)
		if err != nil {
			return err
		}
		return s.mirrorSalary(ctx, tx, created, candidate.Name, actor.UserID)
	})
	if err != nil {
		return SalaryPayment{}, err
	}
	return created, nil
}

// CreateCommission records one commission payment and its mirrored expense
// in a single transaction.
func (s *Service) CreateCommission(ctx context.Context, actor shared.Actor, req CreateCommissionRequest) (CommissionPayment, error) {
	if !actor.Role.CanModerate() {
		return CommissionPayment{}, shared.ErrForbidden
	}
	var created CommissionPayment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		candidate, err := tx.CollectionCommission(ctx, req.CollectionID)
		if err != nil {
			return err
		}
		created, err = tx.InsertCommission(ctx, candidate.CollectionID, candidate.DriverID, candidate.Amount)
		if err != nil {
			return err
		}
		return s.mirrorCommission(ctx, tx, created, actor.UserID)
	})
	if err != nil {
		return CommissionPayment{}, err
	}
	return created, nil
}

func (s *Service) mirrorSalary(ctx context.Context, tx TxRepository, p SalaryPayment, userName string, createdBy int64) error {
	categoryID, err := tx.EnsurePayrollCategory(ctx)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("Salary %s %s", p.Period, userName)
	ref := expenses.PaymentRef{Kind: expenses.RefSalary, ID: p.ID}
	_, err = tx.InsertMirrorExpense(ctx, title, p.Amount, categoryID, ref, createdBy)
	return err
}

func (s *Service) mirrorCommission(ctx context.Context, tx TxRepository, p CommissionPayment, createdBy int64) error {
	categoryID, err := tx.EnsurePayrollCategory(ctx)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("Driver commission collection #%d", p.CollectionID)
	ref := expenses.PaymentRef{Kind: expenses.RefCommission, ID: p.ID}
	_, err = tx.InsertMirrorExpense(ctx, title, p.Amount, categoryID, ref, createdBy)
	return err
}

// GetSalary returns one salary payment.
func (s *Service) GetSalary(ctx context.Context, id int64) (SalaryPayment, error) {
	return s.repo.GetSalary(ctx, id)
}

// ListSalaries returns salary payments, optionally narrowed to a period.
func (s *Service) ListSalaries(ctx context.Context, period string) ([]SalaryPayment, error) {
	if period != "" {
		if err := ValidatePeriod(period); err != nil {
			return nil, err
		}
	}
	return s.repo.ListSalaries(ctx, period)
}

// GetCommission returns one commission payment.
func (s *Service) GetCommission(ctx context.Context, id int64) (CommissionPayment, error) {
	return s.repo.GetCommission(ctx, id)
}

// ListCommissions returns commission payments, optionally for one driver.
func (s *Service) ListCommissions(ctx context.Context, driverID *int64) ([]CommissionPayment, error) {
	return s.repo.ListCommissions(ctx, driverID)
}

// DeleteSalary removes a pending salary payment and its mirrored expense.
func (s *Service) DeleteSalary(ctx context.Context, actor shared.Actor, id int64) error {
	if !actor.Role.CanModerate() {
		return shared.ErrForbidden
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetSalaryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p.Status == StatusPaid {
			return ErrAlreadyPaid
		}
		if err := tx.DeleteMirrorExpense(ctx, expenses.PaymentRef{Kind: expenses.RefSalary, ID: p.ID}); err != nil {
			return err
		}
		return tx.DeleteSalary(ctx, p.ID)
	})
}

// DeleteCommission removes a pending commission payment and its mirrored
// expense.
func (s *Service) DeleteCommission(ctx context.Context, actor shared.Actor, id int64) error {
	if !actor.Role.CanModerate() {
		return shared.ErrForbidden
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetCommissionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p.Status == StatusPaid {
			return ErrAlreadyPaid
		}
		if err := tx.DeleteMirrorExpense(ctx, expenses.PaymentRef{Kind: expenses.RefCommission, ID: p.ID}); err != nil {
			return err
		}
		return tx.DeleteCommission(ctx, p.ID)
	})
}

// MarkSalaryPaid flips a pending salary payment and its mirrored expense to
// paid together.
func (s *Service) MarkSalaryPaid(ctx context.Context, actor shared.Actor, id int64) (SalaryPayment, error) {
	if !actor.Role.CanModerate() {
		return SalaryPayment{}, shared.ErrForbidden
	}
	at := s.now()
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetSalaryForUpdate(ctx, id); err != nil {
			return err
		}
		ok, err := tx.MarkSalaryPaid(ctx, id, at)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyPaid
		}
		return tx.MarkMirrorPaid(ctx, expenses.PaymentRef{Kind: expenses.RefSalary, ID: id}, actor.UserID, at)
	})
	if err != nil {
		return SalaryPayment{}, err
	}
	p, err := s.repo.GetSalary(ctx, id)
	if err != nil {
		return SalaryPayment{}, err
	}
	s.record(ctx, actor, "payroll.salary.pay", "salary_payment", p.ID)
	return p, nil
}

// MarkCommissionPaid flips a pending commission payment and its mirrored
// expense to paid together.
func (s *Service) MarkCommissionPaid(ctx context.Context, actor shared.Actor, id int64) (CommissionPayment, error) {
	if !actor.Role.CanModerate() {
		return CommissionPayment{}, shared.ErrForbidden
	}
	at := s.now()
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetCommissionForUpdate(ctx, id); err != nil {
			return err
		}
		ok, err := tx.MarkCommissionPaid(ctx, id, at)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyPaid
		}
		return tx.MarkMirrorPaid(ctx, expenses.PaymentRef{Kind: expenses.RefCommission, ID: id}, actor.UserID, at)
	})
	if err != nil {
		return CommissionPayment{}, err
	}
	p, err := s.repo.GetCommission(ctx, id)
	if err != nil {
		return CommissionPayment{}, err
	}
	s.record(ctx, actor, "payroll.commission.pay", "commission_payment", p.ID)
	return p, nil
}

// GenerateMonthly creates one salary payment per active user missing one for
// the period, plus commission payments for every home-delivery collection
// whose commission is still unpaid. Safe to re-run; earlier rows are skipped
// by the candidate queries.
func (s *Service) GenerateMonthly(ctx context.Context, period string) (GenerateResult, error) {
	if err := ValidatePeriod(period); err != nil {
		return GenerateResult{}, err
	}
	result := GenerateResult{Period: period}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		salaries, err := tx.ListSalaryCandidates(ctx, period)
		if err != nil {
			return err
		}
		for _, c := range salaries {
			p, err := tx.InsertSalary(ctx, c.UserID, period, c.Salary)
			if err != nil {
				return err
			}
			if err := s.mirrorSalary(ctx, tx, p, c.Name, systemActorID); err != nil {
				return err
			}
			result.SalariesCreated++
		}
		commissions, err := tx.ListCommissionCandidates(ctx)
		if err != nil {
			return err
		}
		for _, c := range commissions {
			p, err := tx.InsertCommission(ctx, c.CollectionID, c.DriverID, c.Amount)
			if err != nil {
				return err
			}
			if err := s.mirrorCommission(ctx, tx, p, systemActorID); err != nil {
				return err
			}
			result.CommissionsCreated++
		}
		return nil
	})
	if err != nil {
		return GenerateResult{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  systemActorID,
			Action:   "payroll.generate",
			Entity:   "payroll_run",
			EntityID: period,
			Meta: map[string]any{
				"salaries":    result.SalariesCreated,
				"commissions": result.CommissionsCreated,
			},
		})
	}
	return result, nil
}

// systemActorID marks rows written by scheduled jobs rather than a request.
const systemActorID int64 = 0

func (s *Service) record(ctx context.Context, actor shared.Actor, action, entity string, id int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(id, 10),
	})
}
