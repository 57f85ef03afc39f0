package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/models"
)

var (
	PostSearchColumns = []string{"title"}
	PostSortColumns   = map[string]bool{"id": true, "title": true}
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, params ListParams) ([]models.Post, int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository instance
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	result := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Update("title", post.Title)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *postRepository) List(ctx context.Context, params ListParams) ([]models.Post, int64, error) {
	params = params.Normalize()

	baseQuery := applySearch(r.db.WithContext(ctx).Model(&models.Post{}), params.Query, PostSearchColumns)

	var total int64
	if err := baseQuery.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := applySort(baseQuery.Session(&gorm.Session{}), params.Sort, params.Desc, PostSortColumns, "id", false).
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

// Repository errors
var (
	ErrPostNotFound = errors.New("post not found")
)
