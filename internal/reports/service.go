package reports

import (
	"context"
	"time"
)

// Service assembles report statements.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) { s.now = now }

// CaseStatement renders the statement of one money case.
func (s *Service) CaseStatement(ctx context.Context, caseID int64, locale Locale) (CaseStatement, error) {
	st, err := s.repo.CaseStatement(ctx, caseID)
	if err != nil {
		return CaseStatement{}, err
	}
	st.BalanceDisplay = formatAmount(locale, st.Balance)
	st.GeneratedAt = s.now()
	return st, nil
}

// RecolteStatement renders the summary of one recolte, including the
// discrepancy between the counted and the computed total when a manual
// amount was recorded.
func (s *Service) RecolteStatement(ctx context.Context, recolteID int64, locale Locale) (RecolteStatement, error) {
	st, err := s.repo.RecolteStatement(ctx, recolteID)
	if err != nil {
		return RecolteStatement{}, err
	}
	st.TotalDisplay = formatAmount(locale, st.ComputedTotal)
	if st.ManualAmount != nil {
		d := st.ManualAmount.Sub(st.ComputedTotal)
		st.Discrepancy = &d
		st.DiscrepancyDisplay = formatAmount(locale, d)
	}
	st.GeneratedAt = s.now()
	return st, nil
}
