package service

import (
	"context"
	"log/slog"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/models"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/repository"
)

// PostService defines CRUD operations for posts
type PostService interface {
	CreatePost(ctx context.Context, title string) (*models.Post, error)
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	UpdatePost(ctx context.Context, id uint, title string) (*models.Post, error)
	DeletePost(ctx context.Context, id uint) error
	ListPosts(ctx context.Context, params repository.ListParams) ([]models.Post, int64, error)
}

type postService struct {
	postRepo repository.PostRepository
	logger   *slog.Logger
}

// NewPostService creates a new post service instance
func NewPostService(postRepo repository.PostRepository, logger *slog.Logger) PostService {
	return &postService{
		postRepo: postRepo,
		logger:   logger,
	}
}

func (s *postService) CreatePost(ctx context.Context, title string) (*models.Post, error) {
	post := &models.Post{Title: title}
	if err := s.postRepo.Create(ctx, post); err != nil {
		s.logger.Error("❌ [PostService] Failed to create post", "error", err)
		return nil, err
	}

	s.logger.Info("✅ [PostService] Post created", "post_id", post.ID)
	return post, nil
}

func (s *postService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.FindByID(ctx, id)
}

func (s *postService) UpdatePost(ctx context.Context, id uint, title string) (*models.Post, error) {
	post := &models.Post{ID: id, Title: title}
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("✅ [PostService] Post updated", "post_id", id)
	return post, nil
}

func (s *postService) DeletePost(ctx context.Context, id uint) error {
	if err := s.postRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("🗑️ [PostService] Post deleted", "post_id", id)
	return nil
}

func (s *postService) ListPosts(ctx context.Context, params repository.ListParams) ([]models.Post, int64, error) {
	return s.postRepo.List(ctx, params)
}
