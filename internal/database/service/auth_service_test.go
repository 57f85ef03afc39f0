package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/config"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/models"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/repository"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/service"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/password"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/testutil"
)

const testSecret = "test-secret"

// fakeLimiter counts failures in memory
type fakeLimiter struct {
	max      int
	failures map[string]int
	err      error
}

func newFakeLimiter(max int) *fakeLimiter {
	return &fakeLimiter{max: max, failures: map[string]int{}}
}

func (l *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	return l.failures[key] < l.max, nil
}

func (l *fakeLimiter) RecordFailure(_ context.Context, key string) error {
	l.failures[key]++
	return l.err
}

func (l *fakeLimiter) Reset(_ context.Context, key string) error {
	delete(l.failures, key)
	return l.err
}

type authFixture struct {
	users   service.UserService
	repo    repository.UserRepository
	limiter *fakeLimiter
	runner  *testutil.InlineRunner
	auth    service.AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	repo := repository.NewUserRepository(testutil.NewTestDB(t))
	hasher := password.NewBcryptHasher(bcrypt.MinCost)
	limiter := newFakeLimiter(3)
	runner := &testutil.InlineRunner{}
	cfg := &config.Config{JWTSecret: testSecret, AccessTokenExpiration: 900}

	return &authFixture{
		users:   service.NewUserService(repo, hasher, testutil.NewTestLogger()),
		repo:    repo,
		limiter: limiter,
		runner:  runner,
		auth:    service.NewAuthService(repo, hasher, limiter, runner, cfg, testutil.NewTestLogger()),
	}
}

func (f *authFixture) createAdmin(t *testing.T, input service.CreateUserInput) uuid.UUID {
	t.Helper()
	user, err := f.users.CreateUser(context.Background(), input)
	require.NoError(t, err)
	return user.ID
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t)
	id := f.createAdmin(t, service.CreateUserInput{
		Email:    testutil.StrPtr("admin@x.com"),
		Password: testutil.StrPtr("correct-horse"),
	})

	user, tokens, err := f.auth.Login(context.Background(), "admin@x.com", "correct-horse")
	require.NoError(t, err)

	assert.Equal(t, id, user.ID)
	require.NotNil(t, user.LastLogin)
	assert.Equal(t, int64(900), tokens.ExpiresIn)

	got, err := f.auth.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	// last_login is written by the background task
	assert.Equal(t, []string{"touch-last-login"}, f.runner.Names)
	stored, err := f.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
}

func TestLogin_Rejected(t *testing.T) {
	f := newAuthFixture(t)
	f.createAdmin(t, service.CreateUserInput{
		Email:    testutil.StrPtr("active@x.com"),
		Password: testutil.StrPtr("pw-active"),
	})
	f.createAdmin(t, service.CreateUserInput{
		Email:    testutil.StrPtr("inactive@x.com"),
		Password: testutil.StrPtr("pw-inactive"),
		IsActive: testutil.BoolPtr(false),
	})
	f.createAdmin(t, service.CreateUserInput{
		Email:     testutil.StrPtr("deleted@x.com"),
		Password:  testutil.StrPtr("pw-deleted"),
		IsDeleted: testutil.BoolPtr(true),
	})
	f.createAdmin(t, service.CreateUserInput{
		Email: testutil.StrPtr("nopass@x.com"),
	})

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "ghost@x.com", "whatever"},
		{"wrong password", "active@x.com", "nope"},
		{"inactive account", "inactive@x.com", "pw-inactive"},
		{"deleted account", "deleted@x.com", "pw-deleted"},
		{"account without password", "nopass@x.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, tokens, err := f.auth.Login(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, service.ErrInvalidCredentials)
			assert.Nil(t, user)
			assert.Nil(t, tokens)
		})
	}
	assert.Empty(t, f.runner.Names)
}

func TestLogin_TooManyAttempts(t *testing.T) {
	f := newAuthFixture(t)
	f.createAdmin(t, service.CreateUserInput{
		Email:    testutil.StrPtr("admin@x.com"),
		Password: testutil.StrPtr("correct-horse"),
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := f.auth.Login(ctx, "admin@x.com", "wrong")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	}

	// Even the right password is refused until the window resets
	_, _, err := f.auth.Login(ctx, "Admin@X.com", "correct-horse")
	assert.ErrorIs(t, err, service.ErrTooManyAttempts)

	delete(f.limiter.failures, "admin@x.com")
	_, _, err = f.auth.Login(ctx, "admin@x.com", "correct-horse")
	assert.NoError(t, err)
}

func TestLogin_SuccessResetsFailures(t *testing.T) {
	f := newAuthFixture(t)
	f.createAdmin(t, service.CreateUserInput{
		Email:    testutil.StrPtr("admin@x.com"),
		Password: testutil.StrPtr("correct-horse"),
	})
	ctx := context.Background()

	_, _, _ = f.auth.Login(ctx, "admin@x.com", "wrong")
	assert.Equal(t, 1, f.limiter.failures["admin@x.com"])

	_, _, err := f.auth.Login(ctx, "admin@x.com", "correct-horse")
	require.NoError(t, err)
	assert.NotContains(t, f.limiter.failures, "admin@x.com")
}

func TestLogin_LimiterUnavailable(t *testing.T) {
	f := newAuthFixture(t)
	f.createAdmin(t, service.CreateUserInput{
		Email:    testutil.StrPtr("admin@x.com"),
		Password: testutil.StrPtr("correct-horse"),
	})
	f.limiter.err = errors.New("redis down")

	_, tokens, err := f.auth.Login(context.Background(), "admin@x.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
}

func TestLogin_StoreFailure(t *testing.T) {
	repo := new(testutil.MockUserRepository)
	storeErr := errors.New("connection reset")
	repo.On("FindByEmail", mock.Anything, "admin@x.com").Return(nil, storeErr)

	limiter := newFakeLimiter(3)
	auth := service.NewAuthService(repo, password.NewBcryptHasher(bcrypt.MinCost), limiter, &testutil.InlineRunner{},
		&config.Config{JWTSecret: testSecret, AccessTokenExpiration: 900}, testutil.NewTestLogger())

	_, _, err := auth.Login(context.Background(), "admin@x.com", "pw")
	assert.ErrorIs(t, err, storeErr)
	// Store outages do not count against the account
	assert.Zero(t, limiter.failures["admin@x.com"])
}

func TestLogin_RejectedAccountsStillCompareHash(t *testing.T) {
	inactive := &models.User{
		ID:             uuid.New(),
		Email:          "inactive@x.com",
		HashedPassword: testutil.StrPtr("stored-hash"),
		IsActive:       false,
	}

	tests := []struct {
		name  string
		email string
		setup func(repo *testutil.MockUserRepository)
	}{
		{"unknown email", "ghost@x.com", func(repo *testutil.MockUserRepository) {
			repo.On("FindByEmail", mock.Anything, "ghost@x.com").Return(nil, repository.ErrUserNotFound)
		}},
		{"inactive account", "inactive@x.com", func(repo *testutil.MockUserRepository) {
			repo.On("FindByEmail", mock.Anything, "inactive@x.com").Return(inactive, nil)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(testutil.MockUserRepository)
			tt.setup(repo)

			hasher := new(testutil.MockHasher)
			hasher.On("Hash", mock.Anything).Return("dummy-hash", nil).Once()
			hasher.On("Verify", "guess", "dummy-hash").Return(false, nil).Twice()

			auth := service.NewAuthService(repo, hasher, newFakeLimiter(5), &testutil.InlineRunner{},
				&config.Config{JWTSecret: testSecret, AccessTokenExpiration: 900}, testutil.NewTestLogger())

			for i := 0; i < 2; i++ {
				_, _, err := auth.Login(context.Background(), tt.email, "guess")
				assert.ErrorIs(t, err, service.ErrInvalidCredentials)
			}

			// The dummy hash is built once and compared on every rejection
			hasher.AssertExpectations(t)
		})
	}
}

func TestValidateAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	userID := uuid.New()

	sign := func(claims jwt.MapClaims, secret string) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}
	valid := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub":  userID.String(),
			"type": "access",
			"exp":  time.Now().Add(time.Minute).Unix(),
			"iat":  time.Now().Unix(),
		}
	}

	t.Run("valid token", func(t *testing.T) {
		got, err := f.auth.ValidateAccessToken(sign(valid(), testSecret))
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	tests := []struct {
		name  string
		token func() string
	}{
		{"garbage", func() string { return "not-a-jwt" }},
		{"wrong secret", func() string { return sign(valid(), "other-secret") }},
		{"expired", func() string {
			claims := valid()
			claims["exp"] = time.Now().Add(-time.Minute).Unix()
			return sign(claims, testSecret)
		}},
		{"wrong type", func() string {
			claims := valid()
			claims["type"] = "refresh"
			return sign(claims, testSecret)
		}},
		{"subject is not a uuid", func() string {
			claims := valid()
			claims["sub"] = "42"
			return sign(claims, testSecret)
		}},
		{"unsigned", func() string {
			token, err := jwt.NewWithClaims(jwt.SigningMethodNone, valid()).SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)
			return token
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.ValidateAccessToken(tt.token())
			assert.ErrorIs(t, err, service.ErrInvalidToken)
		})
	}
}

func TestLogin_UpgradesOutdatedHash(t *testing.T) {
	f := newAuthFixture(t)
	id := f.createAdmin(t, service.CreateUserInput{
		Email:    testutil.StrPtr("admin@x.com"),
		Password: testutil.StrPtr("correct-horse"),
	})

	stronger := password.NewBcryptHasher(bcrypt.MinCost + 1)
	runner := &testutil.InlineRunner{}
	auth := service.NewAuthService(f.repo, stronger, f.limiter, runner,
		&config.Config{JWTSecret: testSecret, AccessTokenExpiration: 900}, testutil.NewTestLogger())

	_, _, err := auth.Login(context.Background(), "admin@x.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, []string{"touch-last-login", "rehash-password"}, runner.Names)

	stored, err := f.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, stronger.NeedsRehash(*stored.HashedPassword))

	ok, err := stronger.Verify("correct-horse", *stored.HashedPassword)
	require.NoError(t, err)
	assert.True(t, ok)
}
