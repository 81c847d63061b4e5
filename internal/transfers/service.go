package transfers

import (
	"context"
	"crypto/subtle"
	"strconv"
	"time"

	"github.com/colisnet/colisnet/internal/shared"
)

// AuditPort records domain events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles transfer business logic.
type Service struct {
	repo    Repository
	audit   AuditPort
	now     func() time.Time
	genCode func() (string, error)
}

// NewService builds a Service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now, genCode: generateCode}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) { s.now = now }

// WithCodeGenerator overrides code generation, for tests.
func (s *Service) WithCodeGenerator(gen func() (string, error)) { s.genCode = gen }

// Create claims unclaimed recoltes under a new pending transfer. The
// selection and the claim happen under row locks in one transaction.
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateRequest) (Response, error) {
	if !actor.Role.CanModerate() {
		return Response{}, shared.ErrForbidden
	}
	code, err := s.genCode()
	if err != nil {
		return Response{}, err
	}
	var out Response
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.AdminExists(ctx, req.AdminID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAdminNotFound
		}
		claimed, err := tx.LockUnclaimedRecoltes(ctx, req.RecolteIDs)
		if err != nil {
			return err
		}
		if len(claimed) == 0 {
			return ErrNoRecoltes
		}
		created, err := tx.Insert(ctx, actor.UserID, req.AdminID, code)
		if err != nil {
			return err
		}
		if err := tx.ClaimRecoltes(ctx, created.ID, claimed); err != nil {
			return err
		}
		out = Response{TransferRequest: created, RecolteIDs: claimed}
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	s.record(ctx, actor, "transfer.create", out.ID, map[string]any{"recoltes": len(out.RecolteIDs)})
	return out, nil
}

// Get returns a transfer with its claimed recoltes. The verification code
// stays hidden regardless of the caller.
func (s *Service) Get(ctx context.Context, id int64) (Response, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Response{}, err
	}
	ids, err := s.repo.RecolteIDs(ctx, id)
	if err != nil {
		return Response{}, err
	}
	return Response{TransferRequest: t, RecolteIDs: ids}, nil
}

// List returns transfers, optionally filtered by status.
func (s *Service) List(ctx context.Context, status Status) ([]TransferRequest, error) {
	if status != "" && !status.IsValid() {
		return nil, ErrNotFound
	}
	return s.repo.List(ctx, status)
}

// RevealCode returns the verification code to the receiving admin and to
// nobody else; supervisors hand the physical money over without ever seeing
// the code they would confirm themselves.
func (s *Service) RevealCode(ctx context.Context, actor shared.Actor, id int64) (CodeResponse, error) {
	if actor.Role != shared.RoleAdmin {
		return CodeResponse{}, shared.ErrForbidden
	}
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return CodeResponse{}, err
	}
	if t.AdminID != actor.UserID {
		return CodeResponse{}, ErrNotTargetAdmin
	}
	return CodeResponse{ID: t.ID, VerificationCode: t.VerificationCode}, nil
}

// Verify confirms receipt of the transferred money. Only the addressed
// admin may verify, only a pending transfer can verify, the comparison is
// constant time, and success is terminal; a second verification of the same
// transfer fails the status guard.
func (s *Service) Verify(ctx context.Context, actor shared.Actor, id int64, code string) (TransferRequest, error) {
	if actor.Role != shared.RoleAdmin {
		return TransferRequest{}, shared.ErrForbidden
	}
	at := s.now()
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		t, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if t.AdminID != actor.UserID {
			return ErrNotTargetAdmin
		}
		if t.Status != StatusPending {
			return ErrNotPending
		}
		if subtle.ConstantTimeCompare([]byte(t.VerificationCode), []byte(code)) != 1 {
			return ErrCodeMismatch
		}
		return tx.MarkVerified(ctx, id, at)
	})
	if err != nil {
		return TransferRequest{}, err
	}
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return TransferRequest{}, err
	}
	s.record(ctx, actor, "transfer.verify", id, nil)
	return t, nil
}

// Reject declines a pending transfer. The claimed recoltes stay attached so
// the paper trail survives.
func (s *Service) Reject(ctx context.Context, actor shared.Actor, id int64) (TransferRequest, error) {
	if !actor.Role.CanModerate() {
		return TransferRequest{}, shared.ErrForbidden
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetForUpdate(ctx, id); err != nil {
			return err
		}
		return tx.MarkRejected(ctx, id)
	})
	if err != nil {
		return TransferRequest{}, err
	}
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return TransferRequest{}, err
	}
	s.record(ctx, actor, "transfer.reject", id, nil)
	return t, nil
}

func (s *Service) record(ctx context.Context, actor shared.Actor, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "transfer_request",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
