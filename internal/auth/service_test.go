package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"kasu/internal/domain"
	kasuerrors "kasu/pkg/errors"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

const testSecret = "test-secret"

func newTestService(repo *MockRepository) *Service {
	return NewService(repo, testSecret, 15*time.Minute)
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestRegister_Success(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "jane@example.com" && u.Role == domain.RoleVendor && u.IsActive
	})).Return(nil)

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "  Jane@Example.com ",
		Password: "password123",
		Role:     domain.RoleVendor,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "jane@example.com", resp.User.Email)

	token, err := jwt.Parse(resp.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "vendor", claims["role"])
	assert.Equal(t, resp.User.ID.String(), claims["user_id"])
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("Create", mock.Anything, mock.Anything).Return(&pq.Error{Code: "23505"})

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "jane@example.com",
		Password: "password123",
		Role:     domain.RoleVendor,
	})

	require.Error(t, err)
	assert.True(t, kasuerrors.IsValidationError(err))
}

func TestLogin_Success(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	user := &domain.User{
		ID:           uuid.New(),
		Email:        "jane@example.com",
		PasswordHash: hashOf(t, "password123"),
		Role:         domain.RoleVendor,
		IsActive:     true,
	}
	repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.LastLogin != nil
	})).Return(nil)

	resp, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "jane@example.com",
		Password: "password123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	user := &domain.User{
		ID:           uuid.New(),
		Email:        "jane@example.com",
		PasswordHash: hashOf(t, "password123"),
		IsActive:     true,
	}
	repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "jane@example.com",
		Password: "wrong-password",
	})

	assert.ErrorIs(t, err, kasuerrors.ErrInvalidCredentials)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestLogin_UnknownEmailMasked(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, kasuerrors.ErrUserNotFound)

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})

	// Unknown account and bad password are indistinguishable to the caller.
	assert.ErrorIs(t, err, kasuerrors.ErrInvalidCredentials)
}

func TestLogin_InactiveAccount(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	user := &domain.User{
		ID:           uuid.New(),
		Email:        "jane@example.com",
		PasswordHash: hashOf(t, "password123"),
		IsActive:     false,
	}
	repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "jane@example.com",
		Password: "password123",
	})

	assert.ErrorIs(t, err, kasuerrors.ErrInvalidCredentials)
}
