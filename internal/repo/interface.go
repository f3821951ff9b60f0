package repo

import (
	"context"
	"time"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
)

// Во все методы, кроме поиска пользователей и токенов, передаётся id действующего пользователя:
// выборка всегда ограничена его строками.

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	List(ctx context.Context, userID int64, filter model.TaskFilter) ([]model.Task, error)
	Create(ctx context.Context, userID int64, in model.TaskCreate, tags []model.Tag) (model.Task, error)
	GetByID(ctx context.Context, taskID, userID int64) (model.Task, error)
	Update(ctx context.Context, taskID, userID int64, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, taskID, userID int64) error
	DeleteCreatedBefore(ctx context.Context, threshold time.Time) (int64, error)
}

type SubTaskRepository interface {
	Create(ctx context.Context, userID, taskID int64, in model.SubTaskCreate) (model.SubTask, error)
	SetDone(ctx context.Context, userID, subtaskID int64, done bool) (model.SubTask, error)
	Delete(ctx context.Context, userID, subtaskID int64) error
}

type CategoryRepository interface {
	List(ctx context.Context, userID int64) ([]model.Category, error)
	Create(ctx context.Context, userID int64, in model.CategoryCreate) (model.Category, error)
	GetByID(ctx context.Context, categoryID, userID int64) (model.Category, error)
	Delete(ctx context.Context, categoryID, userID int64) error
}

type TagRepository interface {
	CreateOrGet(ctx context.Context, names []string) ([]model.Tag, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, userID int64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, username, email, hashedPassword string) (model.User, error)
}

type TokenRepository interface {
	Create(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (model.RefreshToken, error)
}
