package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
)

// =====================
// Mock: UserRepository
// =====================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) IncrementTokenVersion(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type staticID string

func (s staticID) NewID() string { return string(s) }

var now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// =====================
// Register
// =====================

func TestRegister_OK(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

	uc := NewRegisterUserUsecase(repo, NewBcryptPasswordHasher(bcrypt.MinCost), staticID("user-1"), fixedClock{now})
	out, err := uc.Execute(context.Background(), RegisterUserInput{Email: " New@Example.com ", Password: "correct-horse-battery"})
	require.NoError(t, err)

	assert.Equal(t, "user-1", out.User.ID)
	assert.Equal(t, "new@example.com", out.User.Email)
	assert.Equal(t, model.RoleCustomer, out.User.Role)
	assert.True(t, out.User.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(out.User.PasswordHash), []byte("correct-horse-battery")))
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"bad email", "not-an-email", "correct-horse-battery", ErrInvalidEmailFormat},
		{"short password", "a@b.com", "short", ErrPasswordTooShort},
		{"weak password", "a@b.com", "123456789012", ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			uc := NewRegisterUserUsecase(repo, NewBcryptPasswordHasher(bcrypt.MinCost), staticID("x"), fixedClock{now})

			_, err := uc.Execute(context.Background(), RegisterUserInput{Email: tt.email, Password: tt.password})
			assert.ErrorIs(t, err, tt.want)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByEmail", mock.Anything, "a@b.com").Return(&model.User{ID: "u-0"}, nil)
	uc := NewRegisterUserUsecase(repo, NewBcryptPasswordHasher(bcrypt.MinCost), staticID("x"), fixedClock{now})

	_, err := uc.Execute(context.Background(), RegisterUserInput{Email: "a@b.com", Password: "correct-horse-battery"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestRegister_ConcurrentConflict(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByEmail", mock.Anything, "a@b.com").Return(nil, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrConflict)
	uc := NewRegisterUserUsecase(repo, NewBcryptPasswordHasher(bcrypt.MinCost), staticID("x"), fixedClock{now})

	_, err := uc.Execute(context.Background(), RegisterUserInput{Email: "a@b.com", Password: "correct-horse-battery"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

// =====================
// Login
// =====================

func hashed(t *testing.T, plain string) string {
	t.Helper()
	h, err := NewBcryptPasswordHasher(bcrypt.MinCost).Hash(plain)
	require.NoError(t, err)
	return h
}

func TestLogin_OK(t *testing.T) {
	repo := new(MockUserRepository)
	user := &model.User{ID: "u-1", Email: "a@b.com", PasswordHash: hashed(t, "correct-horse-battery"), Role: model.RoleStaff, TokenVersion: 2, IsActive: true}
	repo.On("FindByEmail", mock.Anything, "a@b.com").Return(user, nil)
	repo.On("Update", mock.Anything, user).Return(nil)

	uc := NewLoginUsecase(repo, NewBcryptPasswordVerifier(), NewJWTIssuer("secret", 0), fixedClock{now})
	out, err := uc.Execute(context.Background(), LoginInput{Email: "A@B.com", Password: "correct-horse-battery"})
	require.NoError(t, err)

	assert.Equal(t, int(AccessTokenTTL.Seconds()), out.Token.ExpiresIn)
	assert.Equal(t, 2, out.Token.TokenVersion)
	require.NotNil(t, out.User.LastLoginAt)
	assert.Equal(t, now, *out.User.LastLoginAt)
	assert.NotEmpty(t, out.Token.AccessToken)
}

func TestLogin_Failures(t *testing.T) {
	active := &model.User{ID: "u-1", PasswordHash: hashed(t, "correct-horse-battery"), IsActive: true}
	inactive := &model.User{ID: "u-2", PasswordHash: hashed(t, "correct-horse-battery"), IsActive: false}

	tests := []struct {
		name     string
		user     *model.User
		findErr  error
		password string
		want     error
	}{
		{"unknown email", nil, nil, "correct-horse-battery", ErrInvalidCredentials},
		{"wrong password", active, nil, "wrong-password-123", ErrInvalidCredentials},
		{"inactive", inactive, nil, "correct-horse-battery", ErrUserInactive},
		{"db error", nil, errors.New("db down"), "x", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			repo.On("FindByEmail", mock.Anything, "a@b.com").Return(tt.user, tt.findErr)
			uc := NewLoginUsecase(repo, NewBcryptPasswordVerifier(), NewJWTIssuer("secret", 0), fixedClock{now})

			_, err := uc.Execute(context.Background(), LoginInput{Email: "a@b.com", Password: tt.password})
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		})
	}
}

// =====================
// JWT
// =====================

func TestJWTIssuer_Claims(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Hour)
	signed, exp, err := issuer.Issue("u-1", model.RoleOwner, 3, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	// 発行時刻を固定しているので検証時の期限チェックは外す
	p := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	tok, err := p.ParseWithClaims(signed, claims, func(t *jwt.Token) (any, error) { return []byte("secret"), nil })
	require.NoError(t, err)
	assert.Equal(t, jwt.SigningMethodHS256.Alg(), tok.Method.Alg())
	assert.Equal(t, "u-1", claims["sub"])
	assert.Equal(t, "owner", claims["role"])
	assert.Equal(t, float64(3), claims["tv"])
	assert.Equal(t, float64(exp.Unix()), claims["exp"])
}

// =====================
// ForceLogout
// =====================

func TestForceLogout(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("IncrementTokenVersion", mock.Anything, "u-1").Return(nil)
	repo.On("FindByID", mock.Anything, "u-1").Return(&model.User{ID: "u-1", TokenVersion: 5}, nil)

	out, err := NewForceLogoutUsecase(repo).Execute(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, ForceLogoutOutput{UserID: "u-1", NewTokenVersion: 5}, out)
}

func TestForceLogout_UnknownUser(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("IncrementTokenVersion", mock.Anything, "u-9").Return(repository.ErrNotFound)

	_, err := NewForceLogoutUsecase(repo).Execute(context.Background(), "u-9")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
