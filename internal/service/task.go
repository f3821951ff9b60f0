package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/cache"
	"github.com/BuzzLyutic/task-tracker-api/internal/model"
	"github.com/BuzzLyutic/task-tracker-api/internal/repo"
)

// TaskService - операции над задачами и подзадачами от имени пользователя.
// Каждая операция выполняется в одной транзакции.
type TaskService struct {
	tasks    repo.TaskRepository
	subtasks repo.SubTaskRepository
	tags     repo.TagRepository
	tx       repo.Transactor
	cache    cache.TaskCache
	logger   *zap.Logger
	now      func() time.Time
}

func NewTaskService(
	tasks repo.TaskRepository,
	subtasks repo.SubTaskRepository,
	tags repo.TagRepository,
	tx repo.Transactor,
	taskCache cache.TaskCache,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		tasks:    tasks,
		subtasks: subtasks,
		tags:     tags,
		tx:       tx,
		cache:    taskCache,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *TaskService) List(ctx context.Context, userID int64, filter model.TaskFilter) ([]model.Task, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	// версия читается до запроса к базе: если между запросом и записью в кэш
	// список изменится, запись уйдёт под устаревшую версию
	version, err := s.cache.Version(ctx, userID)
	if err != nil {
		s.logger.Warn("task cache version read failed", zap.Int64("user_id", userID), zap.Error(err))
		return s.tasks.List(ctx, userID, filter)
	}

	cached, ok, err := s.cache.GetList(ctx, userID, version, filter)
	if err != nil {
		s.logger.Warn("task cache read failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	if ok {
		return cached, nil
	}

	tasks, err := s.tasks.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetList(ctx, userID, version, filter, tasks); err != nil {
		s.logger.Warn("task cache write failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, userID, taskID int64) (model.Task, error) {
	return s.tasks.GetByID(ctx, taskID, userID)
}

// Create создаёт недостающие теги и задачу в одной транзакции.
func (s *TaskService) Create(ctx context.Context, userID int64, in model.TaskCreate) (model.Task, error) {
	if err := s.validateCreate(in); err != nil {
		return model.Task{}, err
	}

	var created model.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		tags, err := s.tags.CreateOrGet(ctx, in.Tags)
		if err != nil {
			return err
		}
		created, err = s.tasks.Create(ctx, userID, in, tags)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}

	s.invalidate(ctx, userID)
	s.logger.Info("task created",
		zap.Int64("user_id", userID),
		zap.Int64("task_id", created.ID),
		zap.Int("tags", len(created.Tags)),
	)
	return created, nil
}

func (s *TaskService) Update(ctx context.Context, userID, taskID int64, patch model.TaskPatch) (model.Task, error) {
	if err := validateStruct(patch); err != nil {
		return model.Task{}, err
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return model.Task{}, invalid("title must not be blank")
	}
	if patch.CategoryID.Valid && patch.CategoryID.Value <= 0 {
		return model.Task{}, invalid("category_id must be greater than 0")
	}

	var updated model.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.tasks.Update(ctx, taskID, userID, patch)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}

	s.invalidate(ctx, userID)
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.tasks.Delete(ctx, taskID, userID)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, userID)
	s.logger.Info("task deleted", zap.Int64("user_id", userID), zap.Int64("task_id", taskID))
	return nil
}

func (s *TaskService) AddSubTask(ctx context.Context, userID, taskID int64, in model.SubTaskCreate) (model.SubTask, error) {
	if err := validateStruct(in); err != nil {
		return model.SubTask{}, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return model.SubTask{}, invalid("title must not be blank")
	}

	var created model.SubTask
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.subtasks.Create(ctx, userID, taskID, in)
		return err
	})
	if err != nil {
		return model.SubTask{}, err
	}

	s.invalidate(ctx, userID)
	return created, nil
}

func (s *TaskService) CheckSubTask(ctx context.Context, userID, subtaskID int64) (model.SubTask, error) {
	return s.setSubTaskDone(ctx, userID, subtaskID, true)
}

func (s *TaskService) UncheckSubTask(ctx context.Context, userID, subtaskID int64) (model.SubTask, error) {
	return s.setSubTaskDone(ctx, userID, subtaskID, false)
}

func (s *TaskService) DeleteSubTask(ctx context.Context, userID, subtaskID int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.subtasks.Delete(ctx, userID, subtaskID)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, userID)
	return nil
}

func (s *TaskService) setSubTaskDone(ctx context.Context, userID, subtaskID int64, done bool) (model.SubTask, error) {
	var sub model.SubTask
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.subtasks.SetDone(ctx, userID, subtaskID, done)
		return err
	})
	if err != nil {
		return model.SubTask{}, err
	}

	s.invalidate(ctx, userID)
	return sub, nil
}

func (s *TaskService) invalidate(ctx context.Context, userID int64) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("task cache invalidation failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (s *TaskService) validateCreate(in model.TaskCreate) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title must not be blank")
	}
	if in.Deadline != nil && in.Deadline.Before(s.now()) {
		return invalid("deadline cannot be in the past")
	}
	return nil
}

func validateFilter(f model.TaskFilter) error {
	if f.Status != nil && !f.Status.Valid() {
		return invalid("unknown status %q", *f.Status)
	}
	if f.Priority != nil && !f.Priority.Valid() {
		return invalid("unknown priority %q", *f.Priority)
	}
	if f.CategoryID != nil && *f.CategoryID <= 0 {
		return invalid("category_id must be greater than 0")
	}
	return nil
}
