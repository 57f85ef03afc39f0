package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/config"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/models"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/repository"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/password"
)

const lastLoginTimeout = 5 * time.Second

// AuthService defines the interface for admin authentication
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error)
	ValidateAccessToken(tokenString string) (uuid.UUID, error)
}

// LoginLimiter throttles repeated failed logins for the same account
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// TaskRunner runs work after the request has been answered
type TaskRunner interface {
	SubmitWithTimeout(name string, timeout time.Duration, task func(ctx context.Context))
}

// TokenPair represents the issued access token
type TokenPair struct {
	AccessToken string
	ExpiresIn   int64
}

type authService struct {
	userRepo  repository.UserRepository
	hasher    password.Hasher
	limiter   LoginLimiter
	runner    TaskRunner
	jwtSecret string
	cfg       *config.Config
	logger    *slog.Logger
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new authentication service instance
func NewAuthService(
	userRepo repository.UserRepository,
	hasher password.Hasher,
	limiter LoginLimiter,
	runner TaskRunner,
	cfg *config.Config,
	logger *slog.Logger,
) AuthService {
	return &authService{
		userRepo:  userRepo,
		hasher:    hasher,
		limiter:   limiter,
		runner:    runner,
		jwtSecret: cfg.JWTSecret,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	s.logger.Info("🔐 [AuthService] Login attempt", "email", email)

	key := strings.ToLower(email)
	allowed, err := s.limiter.Allow(ctx, key)
	if err != nil {
		// Limiter outages must not lock admins out
		s.logger.Warn("⚠️ [AuthService] Login limiter unavailable", "error", err)
	} else if !allowed {
		s.logger.Warn("⚠️ [AuthService] Too many failed logins", "email", email)
		return nil, nil, ErrTooManyAttempts
	}

	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			if lerr := s.limiter.RecordFailure(ctx, key); lerr != nil {
				s.logger.Warn("⚠️ [AuthService] Failed to record login failure", "error", lerr)
			}
		}
		return nil, nil, err
	}

	if err := s.limiter.Reset(ctx, key); err != nil {
		s.logger.Warn("⚠️ [AuthService] Failed to reset login limiter", "error", err)
	}

	tokens, err := s.generateTokenPair(user.ID)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to generate tokens", "error", err)
		return nil, nil, err
	}

	now := s.now().UTC()
	user.LastLogin = &now
	userID := user.ID
	s.runner.SubmitWithTimeout("touch-last-login", lastLoginTimeout, func(ctx context.Context) {
		if err := s.userRepo.TouchLastLogin(ctx, userID, now); err != nil {
			s.logger.Error("❌ [AuthService] Failed to record last login", "user_id", userID, "error", err)
		}
	})

	if s.hasher.NeedsRehash(*user.HashedPassword) {
		s.runner.SubmitWithTimeout("rehash-password", lastLoginTimeout, func(ctx context.Context) {
			s.rehash(ctx, userID, password)
		})
	}

	s.logger.Info("✅ [AuthService] User logged in successfully", "user_id", user.ID)
	return user, tokens, nil
}

func (s *authService) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Warn("⚠️ [AuthService] User not found", "email", email)
			s.verifyDummy(password)
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("❌ [AuthService] Database error", "error", err)
		return nil, err
	}

	if !user.CanLogin() {
		s.logger.Warn("⚠️ [AuthService] Account cannot log in", "user_id", user.ID,
			"is_active", user.IsActive,
			"is_deleted", user.IsDeleted,
		)
		s.verifyDummy(password)
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, *user.HashedPassword)
	if err != nil {
		s.logger.Error("❌ [AuthService] Stored hash unreadable", "user_id", user.ID, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		s.logger.Warn("⚠️ [AuthService] Invalid password", "email", email)
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// verifyDummy spends one hash comparison on a rejected account so the
// response time does not reveal whether the email exists
func (s *authService) verifyDummy(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("useradmin-dummy-password")
		if err != nil {
			s.logger.Error("❌ [AuthService] Failed to build dummy hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}

// rehash upgrades a stored hash created with an outdated cost
func (s *authService) rehash(ctx context.Context, userID uuid.UUID, password string) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to rehash password", "user_id", userID, "error", err)
		return
	}
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"hashed_password": hashed}); err != nil {
		s.logger.Error("❌ [AuthService] Failed to store rehashed password", "user_id", userID, "error", err)
		return
	}
	s.logger.Info("🔑 [AuthService] Password hash upgraded", "user_id", userID)
}

func (s *authService) ValidateAccessToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return uuid.Nil, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return userID, nil
}

func (s *authService) generateTokenPair(userID uuid.UUID) (*TokenPair, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"type": "access",
		"exp":  now.Add(s.cfg.AccessTokenTTL()).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken: signed,
		ExpiresIn:   s.cfg.AccessTokenExpiration,
	}, nil
}

// Service errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)
