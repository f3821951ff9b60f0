package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
)

// SubTaskRepo проверяет владельца через родительскую задачу (join по tasks.author_id).
type SubTaskRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewSubTaskRepo(pool *pgxpool.Pool, logger *zap.Logger) *SubTaskRepo {
	return &SubTaskRepo{pool: pool, logger: logger}
}

func (r *SubTaskRepo) Create(ctx context.Context, userID, taskID int64, in model.SubTaskCreate) (model.SubTask, error) {
	var s model.SubTask
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO subtasks (title, is_done, parent_task_id)
		SELECT $1, $2, t.id
		FROM tasks t
		WHERE t.id = $3 AND t.author_id = $4
		RETURNING id, title, is_done, parent_task_id
	`, in.Title, in.IsDone, taskID, userID).Scan(&s.ID, &s.Title, &s.IsDone, &s.ParentTaskID)
	if err != nil {
		return s, fail(r.logger, "create subtask", err, zap.Int64("user_id", userID), zap.Int64("task_id", taskID))
	}
	return s, nil
}

// SetDone выставляет is_done. Повторная установка того же значения - успешный no-op.
func (r *SubTaskRepo) SetDone(ctx context.Context, userID, subtaskID int64, done bool) (model.SubTask, error) {
	var s model.SubTask
	err := conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE subtasks s
		SET is_done = $3
		FROM tasks t
		WHERE s.id = $1 AND s.parent_task_id = t.id AND t.author_id = $2
		RETURNING s.id, s.title, s.is_done, s.parent_task_id
	`, subtaskID, userID, done).Scan(&s.ID, &s.Title, &s.IsDone, &s.ParentTaskID)
	if err != nil {
		return s, fail(r.logger, "set subtask done", err, zap.Int64("user_id", userID), zap.Int64("subtask_id", subtaskID))
	}
	return s, nil
}

func (r *SubTaskRepo) Delete(ctx context.Context, userID, subtaskID int64) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `
		DELETE FROM subtasks s
		USING tasks t
		WHERE s.id = $1 AND s.parent_task_id = t.id AND t.author_id = $2
	`, subtaskID, userID)
	if err != nil {
		return fail(r.logger, "delete subtask", err, zap.Int64("user_id", userID), zap.Int64("subtask_id", subtaskID))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("delete subtask: %w", ErrorNotFound)
	}
	return nil
}
