package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
	"github.com/BuzzLyutic/task-tracker-api/internal/repo"
)

func TestCategoryService(t *testing.T) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		categories := new(MockCategoryRepository)
		s := NewCategoryService(categories, passthroughTx{}, new(MockTaskCache), zap.NewNop())
		in := model.CategoryCreate{Name: "work"}
		categories.On("Create", mock.Anything, int64(1), in).Return(model.Category{ID: 3, Name: "work", OwnerID: 1}, nil)

		got, err := s.Create(ctx, 1, in)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.ID)
		categories.AssertExpectations(t)
	})

	t.Run("create with blank name", func(t *testing.T) {
		categories := new(MockCategoryRepository)
		s := NewCategoryService(categories, passthroughTx{}, new(MockTaskCache), zap.NewNop())

		_, err := s.Create(ctx, 1, model.CategoryCreate{Name: " "})
		assert.ErrorIs(t, err, ErrValidation)
		categories.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("delete invalidates task listings", func(t *testing.T) {
		categories := new(MockCategoryRepository)
		taskCache := new(MockTaskCache)
		s := NewCategoryService(categories, passthroughTx{}, taskCache, zap.NewNop())
		categories.On("Delete", mock.Anything, int64(3), int64(1)).Return(nil)
		taskCache.On("Invalidate", mock.Anything, int64(1)).Return(nil)

		require.NoError(t, s.Delete(ctx, 1, 3))
		categories.AssertExpectations(t)
		taskCache.AssertExpectations(t)
	})

	t.Run("delete foreign category", func(t *testing.T) {
		categories := new(MockCategoryRepository)
		taskCache := new(MockTaskCache)
		s := NewCategoryService(categories, passthroughTx{}, taskCache, zap.NewNop())
		categories.On("Delete", mock.Anything, int64(3), int64(2)).Return(repo.ErrorNotFound)

		assert.ErrorIs(t, s.Delete(ctx, 2, 3), repo.ErrorNotFound)
		taskCache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	})
}
