package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/models"
)

// Searchable and sortable columns of the users list screen
var (
	UserSearchColumns = []string{"email", "username"}
	UserSortColumns   = map[string]bool{
		"id":         true,
		"email":      true,
		"username":   true,
		"created_at": true,
		"last_login": true,
	}
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// ExistsByEmail ignores the row with excludeID; pass uuid.Nil to check every row.
	// Soft-deleted rows count as existing.
	ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
	ExistsByUsername(ctx context.Context, username string, excludeID uuid.UUID) (bool, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, params ListParams) ([]models.User, int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return err
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) findOne(ctx context.Context, cond string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(cond, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string, excludeID uuid.UUID) (bool, error) {
	return r.exists(ctx, "username", username, excludeID)
}

func (r *userRepository) exists(ctx context.Context, column, value string, excludeID uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.User{}).Where(column+" = ?", value)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrDuplicateUser
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("is_deleted", deleted)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login", at.UTC())

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, params ListParams) ([]models.User, int64, error) {
	params = params.Normalize()

	baseQuery := r.db.WithContext(ctx).Model(&models.User{})
	if !params.IncludeDeleted {
		baseQuery = baseQuery.Where("is_deleted = ?", false)
	}
	baseQuery = applySearch(baseQuery, params.Query, UserSearchColumns)

	var total int64
	if err := baseQuery.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := applySort(baseQuery.Session(&gorm.Session{}), params.Sort, params.Desc, UserSortColumns, "created_at", true).
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// isUniqueViolation recognises unique-index failures from both drivers,
// with or without gorm's TranslateError enabled.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// Repository errors
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user with the same email or username already exists")
)
