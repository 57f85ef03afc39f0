package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/models"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/repository"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/password"
)

// CreateUserInput is one create-form submission. Nil means "not submitted".
type CreateUserInput struct {
	Email           *string
	Username        *string
	Password        *string
	IsActive        *bool
	IsDeleted       *bool
	EmailIsVerified *bool
	MarketingOptIn  *bool
}

// EditUserInput is one edit-form submission; only changed fields are set.
// EmailIsVerified is accepted so callers can pass raw submissions through,
// but it is always discarded.
type EditUserInput struct {
	Email           *string
	Username        *string
	Password        *string
	IsActive        *bool
	IsDeleted       *bool
	EmailIsVerified *bool
	MarketingOptIn  *bool
}

// CreateValues are the sanitized values of a new user, ready to insert
type CreateValues struct {
	Email           *string
	Username        *string
	HashedPassword  *string
	IsActive        bool
	IsDeleted       bool
	EmailIsVerified bool
	MarketingOptIn  bool
}

// User builds the row to insert
func (v CreateValues) User() *models.User {
	user := &models.User{
		Username:        v.Username,
		HashedPassword:  v.HashedPassword,
		IsActive:        v.IsActive,
		IsDeleted:       v.IsDeleted,
		EmailIsVerified: v.EmailIsVerified,
		MarketingOptIn:  v.MarketingOptIn,
	}
	if v.Email != nil {
		user.Email = *v.Email
	}
	return user
}

// EditValues are the sanitized changes for an existing user. There is no
// EmailIsVerified field: the edit pipeline can never change it.
type EditValues struct {
	Email          *string
	Username       *string // Pointer to "" clears the username
	HashedPassword *string
	IsActive       *bool
	IsDeleted      *bool
	MarketingOptIn *bool
}

// Columns returns the column/value pairs to update
func (v EditValues) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if v.Email != nil {
		cols["email"] = *v.Email
	}
	if v.Username != nil {
		if *v.Username == "" {
			cols["username"] = nil
		} else {
			cols["username"] = *v.Username
		}
	}
	if v.HashedPassword != nil {
		cols["hashed_password"] = *v.HashedPassword
	}
	if v.IsActive != nil {
		cols["is_active"] = *v.IsActive
	}
	if v.IsDeleted != nil {
		cols["is_deleted"] = *v.IsDeleted
	}
	if v.MarketingOptIn != nil {
		cols["marketing_opt_in"] = *v.MarketingOptIn
	}
	return cols
}

// UserService defines the user admin operations
type UserService interface {
	// Before-persist hooks
	PrepareCreate(ctx context.Context, input CreateUserInput) (CreateValues, error)
	PrepareEdit(ctx context.Context, input EditUserInput, existing *models.User) (EditValues, error)

	// Admin screens
	CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, input EditUserInput) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context, params repository.ListParams) ([]models.User, int64, error)
	SoftDeleteUser(ctx context.Context, id uuid.UUID) error
	RestoreUser(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	userRepo repository.UserRepository
	hasher   password.Hasher
	logger   *slog.Logger
}

// NewUserService creates a new user service instance
func NewUserService(userRepo repository.UserRepository, hasher password.Hasher, logger *slog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		hasher:   hasher,
		logger:   logger,
	}
}

// ==================== Before-persist hooks ====================

func (s *userService) PrepareCreate(ctx context.Context, input CreateUserInput) (CreateValues, error) {
	values := CreateValues{
		Email:           input.Email,
		Username:        normalizeUsername(input.Username),
		IsActive:        boolOr(input.IsActive, true),
		IsDeleted:       boolOr(input.IsDeleted, false),
		EmailIsVerified: boolOr(input.EmailIsVerified, false),
		MarketingOptIn:  boolOr(input.MarketingOptIn, false),
	}

	fieldErrors := FieldErrors{}
	hashed, err := s.hashPassword(input.Password, fieldErrors)
	if err != nil {
		return CreateValues{}, err
	}
	values.HashedPassword = hashed

	taken, err := s.checkUniqueness(ctx, values.Email, values.Username, uuid.Nil)
	if err != nil {
		return CreateValues{}, err
	}
	fieldErrors.merge(taken)
	if len(fieldErrors) > 0 {
		s.logger.Warn("⚠️ [UserService] Create rejected", "fields", fieldErrors.Fields())
		return CreateValues{}, &ValidationError{Fields: fieldErrors}
	}

	return values, nil
}

func (s *userService) PrepareEdit(ctx context.Context, input EditUserInput, existing *models.User) (EditValues, error) {
	values := EditValues{
		IsActive:       input.IsActive,
		IsDeleted:      input.IsDeleted,
		MarketingOptIn: input.MarketingOptIn,
	}

	if input.Email != nil && *input.Email != "" {
		values.Email = input.Email
	}
	values.Username = input.Username

	fieldErrors := FieldErrors{}
	hashed, err := s.hashPassword(input.Password, fieldErrors)
	if err != nil {
		return EditValues{}, err
	}
	values.HashedPassword = hashed

	if input.EmailIsVerified != nil {
		s.logger.Debug("🔒 [UserService] Dropping email_is_verified from edit submission")
	}

	// Only values that actually change are re-checked
	excludeID := uuid.Nil
	email, username := values.Email, values.Username
	if existing != nil {
		excludeID = existing.ID
		if email != nil && *email == existing.Email {
			email = nil
		}
		if username != nil && *username == existing.UsernameValue() {
			username = nil
		}
	}
	if username != nil && *username == "" {
		username = nil
	}

	taken, err := s.checkUniqueness(ctx, email, username, excludeID)
	if err != nil {
		return EditValues{}, err
	}
	fieldErrors.merge(taken)
	if len(fieldErrors) > 0 {
		s.logger.Warn("⚠️ [UserService] Edit rejected", "user_id", excludeID, "fields", fieldErrors.Fields())
		return EditValues{}, &ValidationError{Fields: fieldErrors}
	}

	return values, nil
}

// hashPassword returns nil for an absent or empty password. A password
// longer than bcrypt accepts is recorded in fieldErrors and not hashed.
func (s *userService) hashPassword(raw *string, fieldErrors FieldErrors) (*string, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if len(*raw) > password.MaxBytes {
		fieldErrors.Add("password", MsgPasswordTooLong)
		return nil, nil
	}

	hashed, err := s.hasher.Hash(*raw)
	if err != nil {
		s.logger.Error("❌ [UserService] Failed to hash password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &hashed, nil
}

// checkUniqueness runs both lookups independently so every collision is reported
func (s *userService) checkUniqueness(ctx context.Context, email, username *string, excludeID uuid.UUID) (FieldErrors, error) {
	fieldErrors := FieldErrors{}

	if email != nil && *email != "" {
		exists, err := s.userRepo.ExistsByEmail(ctx, *email, excludeID)
		if err != nil {
			s.logger.Error("❌ [UserService] Email lookup failed", "error", err)
			return nil, fmt.Errorf("check email uniqueness: %w", err)
		}
		if exists {
			fieldErrors.Add("email", MsgEmailExists)
		}
	}

	if username != nil && *username != "" {
		exists, err := s.userRepo.ExistsByUsername(ctx, *username, excludeID)
		if err != nil {
			s.logger.Error("❌ [UserService] Username lookup failed", "error", err)
			return nil, fmt.Errorf("check username uniqueness: %w", err)
		}
		if exists {
			fieldErrors.Add("username", MsgUsernameExists)
		}
	}

	return fieldErrors, nil
}

// ==================== Admin screens ====================

func (s *userService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	values, err := s.PrepareCreate(ctx, input)
	if err != nil {
		return nil, err
	}

	user := values.User()
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			// Lost the race against a concurrent insert; the unique index decided
			return nil, s.duplicateError(ctx, values.Email, values.Username, uuid.Nil)
		}
		s.logger.Error("❌ [UserService] Failed to create user", "error", err)
		return nil, err
	}

	s.logger.Info("✅ [UserService] User created", "user_id", user.ID)
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, input EditUserInput) (*models.User, error) {
	existing, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	values, err := s.PrepareEdit(ctx, input, existing)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateFields(ctx, id, values.Columns()); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, s.duplicateError(ctx, values.Email, values.Username, id)
		}
		s.logger.Error("❌ [UserService] Failed to update user", "user_id", id, "error", err)
		return nil, err
	}

	s.logger.Info("✅ [UserService] User updated", "user_id", id)
	return s.userRepo.FindByID(ctx, id)
}

// duplicateError turns a unique-index violation into field errors. The
// lookups are repeated to find the offending field; email is the fallback.
func (s *userService) duplicateError(ctx context.Context, email, username *string, excludeID uuid.UUID) error {
	fieldErrors, err := s.checkUniqueness(ctx, email, username, excludeID)
	if err != nil {
		return err
	}
	if len(fieldErrors) == 0 {
		fieldErrors = FieldErrors{"email": MsgEmailExists}
	}
	s.logger.Warn("⚠️ [UserService] Unique constraint rejected write", "fields", fieldErrors.Fields())
	return &ValidationError{Fields: fieldErrors}
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

func (s *userService) ListUsers(ctx context.Context, params repository.ListParams) ([]models.User, int64, error) {
	return s.userRepo.List(ctx, params)
}

func (s *userService) SoftDeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.SetDeleted(ctx, id, true); err != nil {
		return err
	}
	s.logger.Info("🗑️ [UserService] User soft-deleted", "user_id", id)
	return nil
}

func (s *userService) RestoreUser(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.SetDeleted(ctx, id, false); err != nil {
		return err
	}
	s.logger.Info("♻️ [UserService] User restored", "user_id", id)
	return nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

// normalizeUsername maps an empty username to NULL so the unique index
// does not treat "" as a value
func normalizeUsername(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}
