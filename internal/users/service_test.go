package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colisnet/colisnet/internal/shared"
)

type mockRepository struct {
	seq   int64
	users map[int64]*User
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[int64]*User)}
}

func (m *mockRepository) Create(ctx context.Context, u User) (User, error) {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return User{}, ErrEmailTaken
		}
	}
	m.seq++
	u.ID = m.seq
	u.Active = true
	m.users[u.ID] = &u
	return u, nil
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return *u, nil
}

func (m *mockRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *mockRepository) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockRepository) ListActive(ctx context.Context) ([]User, error) {
	var out []User
	for _, u := range m.users {
		if u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockRepository) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockRepository) SetActive(ctx context.Context, id int64, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Active = active
	return nil
}

func createUser(t *testing.T, svc *Service, email string) User {
	t.Helper()
	u, err := svc.Create(context.Background(), CreateRequest{
		Name:       "Amine",
		Email:      email,
		Password:   "s3cret-pass",
		Role:       "agent",
		BaseSalary: "45000",
	})
	require.NoError(t, err)
	return u
}

func TestCreate(t *testing.T) {
	svc := NewService(newMockRepository())

	u := createUser(t, svc, "amine@colisnet.local")
	assert.Equal(t, shared.RoleAgent, u.Role)
	assert.True(t, u.Active)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash, "password must be hashed")
	assert.Equal(t, "45000", u.BaseSalary.String())

	_, err := svc.Create(context.Background(), CreateRequest{Name: "x", Email: "amine@colisnet.local", Password: "p", Role: "agent"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Create(context.Background(), CreateRequest{Name: "x", Email: "y@colisnet.local", Password: "p", Role: "janitor"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.Create(context.Background(), CreateRequest{Name: "x", Email: "z@colisnet.local", Password: "p", Role: "agent", BaseSalary: "lots"})
	assert.Error(t, err)
}

func TestVerifyPassword(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	u := createUser(t, svc, "amine@colisnet.local")

	verified, err := svc.VerifyPassword(ctx, "amine@colisnet.local", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, verified.ID)

	_, err = svc.VerifyPassword(ctx, "amine@colisnet.local", "wrong")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.VerifyPassword(ctx, "nobody@colisnet.local", "s3cret-pass")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyPasswordInactive(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	u := createUser(t, svc, "amine@colisnet.local")
	require.NoError(t, svc.Deactivate(ctx, u.ID))

	_, err := svc.VerifyPassword(ctx, "amine@colisnet.local", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInactive)
}

func TestSetPassword(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	u := createUser(t, svc, "amine@colisnet.local")
	require.NoError(t, svc.SetPassword(ctx, u.ID, "new-pass-123"))

	_, err := svc.VerifyPassword(ctx, "amine@colisnet.local", "s3cret-pass")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.VerifyPassword(ctx, "amine@colisnet.local", "new-pass-123")
	assert.NoError(t, err)
}
