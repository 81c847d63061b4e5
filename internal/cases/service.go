package cases

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/colisnet/colisnet/internal/shared"
)

// AuditPort records domain events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns money case business rules.
type Service struct {
	repo  Repository
	cache *BalanceCache
	audit AuditPort
	group singleflight.Group
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, cache *BalanceCache, audit AuditPort) *Service {
	return &Service{repo: repo, cache: cache, audit: audit, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create registers a new drawer.
func (s *Service) Create(ctx context.Context, name string) (MoneyCase, error) {
	if name == "" {
		return MoneyCase{}, errors.New("cases: name required")
	}
	return s.repo.Create(ctx, name)
}

// Get returns one case.
func (s *Service) Get(ctx context.Context, id int64) (MoneyCase, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all cases.
func (s *Service) List(ctx context.Context) ([]MoneyCase, error) {
	return s.repo.List(ctx)
}

// Balance returns the derived balance. Reads are served from the short-lived
// cache when possible; concurrent misses for the same case share one SQL
// computation.
func (s *Service) Balance(ctx context.Context, id int64) (decimal.Decimal, error) {
	if balance, ok := s.cache.Get(ctx, id); ok {
		return balance, nil
	}
	v, err, _ := s.group.Do(strconv.FormatInt(id, 10), func() (any, error) {
		balance, err := s.repo.CalculateBalance(ctx, id)
		if err != nil {
			return decimal.Zero, err
		}
		s.cache.Set(ctx, id, balance)
		return balance, nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return v.(decimal.Decimal), nil
}

// RefreshBalance recomputes and persists the snapshot column.
func (s *Service) RefreshBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	balance, err := s.repo.RefreshBalance(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	s.cache.Invalidate(ctx, id)
	s.cache.Set(ctx, id, balance)
	return balance, nil
}

// RefreshAll recomputes every snapshot, bounding the fan-out. Used by the
// nightly job.
func (s *Service) RefreshAll(ctx context.Context, concurrency int) error {
	ids, err := s.repo.ListIDs(ctx)
	if err != nil {
		return err
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, id := range ids {
		g.Go(func() error {
			_, err := s.RefreshBalance(ctx, id)
			return err
		})
	}
	return g.Wait()
}

// Activate claims the drawer for a user. The claim is a single conditional
// update; when no row matches, the current state decides which rule was
// violated. Re-activation by the current holder succeeds.
func (s *Service) Activate(ctx context.Context, id int64, actor shared.Actor) (MoneyCase, error) {
	ok, err := s.repo.Activate(ctx, id, actor.UserID)
	if err != nil {
		return MoneyCase{}, err
	}
	if !ok {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return MoneyCase{}, err
		}
		if current.Status != StatusActive {
			return MoneyCase{}, ErrCaseInactive
		}
		return MoneyCase{}, ErrClaimedByOther
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.UserID,
			Action:   "case.activate",
			Entity:   "money_case",
			EntityID: fmt.Sprintf("%d", id),
			At:       s.now(),
		})
	}
	return s.repo.GetByID(ctx, id)
}

// Release frees the drawer. Releasing an already-free case is a no-op;
// releasing a case held by someone else fails.
func (s *Service) Release(ctx context.Context, id int64, actor shared.Actor) error {
	ok, err := s.repo.Release(ctx, id, actor.UserID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.LastActiveBy == nil {
		return nil
	}
	return ErrNotHolder
}

// SetStatus activates or retires a drawer.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status) error {
	if !status.IsValid() {
		return fmt.Errorf("cases: invalid status %q", status)
	}
	return s.repo.SetStatus(ctx, id, status)
}

// Delete removes a drawer that never saw activity. Cases with attributed
// collections or expenses are kept for the ledger.
func (s *Service) Delete(ctx context.Context, id int64) error {
	active, err := s.repo.HasActivity(ctx, id)
	if err != nil {
		return err
	}
	if active {
		return ErrCaseInUse
	}
	return s.repo.Delete(ctx, id)
}
