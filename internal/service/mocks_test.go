package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
)

// passthroughTx выполняет fn без транзакции.
type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockTaskRepository - мок репозитория
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) List(ctx context.Context, userID int64, filter model.TaskFilter) ([]model.Task, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) Create(ctx context.Context, userID int64, in model.TaskCreate, tags []model.Tag) (model.Task, error) {
	args := m.Called(ctx, userID, in, tags)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, taskID, userID int64) (model.Task, error) {
	args := m.Called(ctx, taskID, userID)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, taskID, userID int64, patch model.TaskPatch) (model.Task, error) {
	args := m.Called(ctx, taskID, userID, patch)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, taskID, userID int64) error {
	args := m.Called(ctx, taskID, userID)
	return args.Error(0)
}

func (m *MockTaskRepository) DeleteCreatedBefore(ctx context.Context, threshold time.Time) (int64, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).(int64), args.Error(1)
}

type MockSubTaskRepository struct {
	mock.Mock
}

func (m *MockSubTaskRepository) Create(ctx context.Context, userID, taskID int64, in model.SubTaskCreate) (model.SubTask, error) {
	args := m.Called(ctx, userID, taskID, in)
	return args.Get(0).(model.SubTask), args.Error(1)
}

func (m *MockSubTaskRepository) SetDone(ctx context.Context, userID, subtaskID int64, done bool) (model.SubTask, error) {
	args := m.Called(ctx, userID, subtaskID, done)
	return args.Get(0).(model.SubTask), args.Error(1)
}

func (m *MockSubTaskRepository) Delete(ctx context.Context, userID, subtaskID int64) error {
	args := m.Called(ctx, userID, subtaskID)
	return args.Error(0)
}

type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) CreateOrGet(ctx context.Context, names []string) ([]model.Tag, error) {
	args := m.Called(ctx, names)
	return args.Get(0).([]model.Tag), args.Error(1)
}

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) List(ctx context.Context, userID int64) ([]model.Category, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockCategoryRepository) Create(ctx context.Context, userID int64, in model.CategoryCreate) (model.Category, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).(model.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, categoryID, userID int64) (model.Category, error) {
	args := m.Called(ctx, categoryID, userID)
	return args.Get(0).(model.Category), args.Error(1)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, categoryID, userID int64) error {
	args := m.Called(ctx, categoryID, userID)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, username, email, hashedPassword string) (model.User, error) {
	args := m.Called(ctx, username, email, hashedPassword)
	return args.Get(0).(model.User), args.Error(1)
}

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Create(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	args := m.Called(ctx, token, userID, expiresAt)
	return args.Error(0)
}

func (m *MockTokenRepository) GetByToken(ctx context.Context, token string) (model.RefreshToken, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.RefreshToken), args.Error(1)
}

type MockTaskCache struct {
	mock.Mock
}

func (m *MockTaskCache) Version(ctx context.Context, userID int64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockTaskCache) GetList(ctx context.Context, userID int64, version string, filter model.TaskFilter) ([]model.Task, bool, error) {
	args := m.Called(ctx, userID, version, filter)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Bool(1), args.Error(2)
}

func (m *MockTaskCache) SetList(ctx context.Context, userID int64, version string, filter model.TaskFilter, tasks []model.Task) error {
	args := m.Called(ctx, userID, version, filter, tasks)
	return args.Error(0)
}

func (m *MockTaskCache) Invalidate(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockTaskCache) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
