package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/cache"
	"github.com/BuzzLyutic/task-tracker-api/internal/model"
	"github.com/BuzzLyutic/task-tracker-api/internal/repo"
)

type CategoryService struct {
	categories repo.CategoryRepository
	tx         repo.Transactor
	cache      cache.TaskCache
	logger     *zap.Logger
}

func NewCategoryService(categories repo.CategoryRepository, tx repo.Transactor, taskCache cache.TaskCache, logger *zap.Logger) *CategoryService {
	return &CategoryService{categories: categories, tx: tx, cache: taskCache, logger: logger}
}

func (s *CategoryService) List(ctx context.Context, userID int64) ([]model.Category, error) {
	return s.categories.List(ctx, userID)
}

func (s *CategoryService) Create(ctx context.Context, userID int64, in model.CategoryCreate) (model.Category, error) {
	if err := validateStruct(in); err != nil {
		return model.Category{}, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return model.Category{}, invalid("name must not be blank")
	}

	var created model.Category
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.categories.Create(ctx, userID, in)
		return err
	})
	return created, err
}

// Delete удаляет категорию; задачи остаются без категории, поэтому списки задач сбрасываются.
func (s *CategoryService) Delete(ctx context.Context, userID, categoryID int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.categories.Delete(ctx, categoryID, userID)
	})
	if err != nil {
		return err
	}

	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("task cache invalidation failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	s.logger.Info("category deleted", zap.Int64("user_id", userID), zap.Int64("category_id", categoryID))
	return nil
}
