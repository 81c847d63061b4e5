package users

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/colisnet/colisnet/internal/shared"
)

// Service handles account business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers an account with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, req CreateRequest) (User, error) {
	role := shared.Role(req.Role)
	if !role.IsValid() {
		return User{}, ErrInvalidRole
	}
	salary := decimal.Zero
	if req.BaseSalary != "" {
		parsed, err := decimal.NewFromString(req.BaseSalary)
		if err != nil {
			return User{}, fmt.Errorf("parse base salary: %w", err)
		}
		salary = parsed
	}
	rate := decimal.Zero
	if req.MonthlyCommissionRate != "" {
		parsed, err := decimal.NewFromString(req.MonthlyCommissionRate)
		if err != nil {
			return User{}, fmt.Errorf("parse commission rate: %w", err)
		}
		rate = parsed
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.Create(ctx, User{
		Name:                  req.Name,
		Email:                 req.Email,
		PasswordHash:          string(hash),
		Role:                  role,
		BaseSalary:            salary,
		MonthlyCommissionRate: rate,
	})
}

// Get returns a single account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns every account.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// SetPassword replaces the stored hash.
func (s *Service) SetPassword(ctx context.Context, id int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.SetPasswordHash(ctx, id, string(hash))
}

// Deactivate disables an account. Disabled accounts stop appearing in
// payroll generation.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}

// VerifyPassword checks a candidate password against the stored hash.
func (s *Service) VerifyPassword(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if !u.Active {
		return User{}, ErrInactive
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrNotFound
	}
	return u, nil
}
