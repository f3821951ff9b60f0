package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
)

const taskColumns = `t.id, t.title, t.description, t.status::text, t.priority::text,
	t.deadline, t.created_at, t.author_id, t.category_id`

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepo(pool *pgxpool.Pool, logger *zap.Logger) *TaskRepo {
	return &TaskRepo{
		pool:   pool,
		logger: logger,
	}
}

// List возвращает задачи пользователя: сначала более высокий приоритет,
// внутри приоритета по дедлайну, задачи без дедлайна в конце.
func (r *TaskRepo) List(ctx context.Context, userID int64, filter model.TaskFilter) ([]model.Task, error) {
	q := conn(ctx, r.pool)

	var status, priority *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}
	if filter.Priority != nil {
		p := string(*filter.Priority)
		priority = &p
	}

	rows, err := q.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks t
		WHERE t.author_id = $1
		  AND ($2::text IS NULL OR t.status::text = $2)
		  AND ($3::bigint IS NULL OR t.category_id = $3)
		  AND ($4::text IS NULL OR t.priority::text = $4)
		ORDER BY t.priority DESC, t.deadline ASC NULLS LAST, t.id ASC
	`, userID, status, filter.CategoryID, priority)
	if err != nil {
		return nil, fail(r.logger, "list tasks", err, zap.Int64("user_id", userID))
	}

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, fail(r.logger, "list tasks", err, zap.Int64("user_id", userID))
	}
	if err := hydrate(ctx, q, tasks); err != nil {
		return nil, fail(r.logger, "list tasks", err, zap.Int64("user_id", userID))
	}
	return tasks, nil
}

func (r *TaskRepo) Create(ctx context.Context, userID int64, in model.TaskCreate, tags []model.Tag) (model.Task, error) {
	in = in.WithDefaults()

	var created model.Task
	err := runInTx(ctx, r.pool, r.logger, func(ctx context.Context) error {
		q := conn(ctx, r.pool)

		if in.CategoryID != nil {
			if err := r.checkCategory(ctx, q, *in.CategoryID, userID); err != nil {
				return err
			}
		}

		var id int64
		err := q.QueryRow(ctx, `
			INSERT INTO tasks (title, description, status, priority, deadline, author_id, category_id)
			VALUES ($1, $2, $3::text::task_status, $4::text::task_priority, $5, $6, $7)
			RETURNING id
		`, in.Title, in.Description, string(in.Status), string(in.Priority), in.Deadline, userID, in.CategoryID).Scan(&id)
		if err != nil {
			return fail(r.logger, "create task", err, zap.Int64("user_id", userID))
		}

		if len(tags) > 0 {
			ids := make([]int64, 0, len(tags))
			for _, tag := range tags {
				ids = append(ids, tag.ID)
			}
			_, err := q.Exec(ctx, `
				INSERT INTO task_tags (task_id, tag_id)
				SELECT $1, unnest($2::bigint[])
				ON CONFLICT DO NOTHING
			`, id, ids)
			if err != nil {
				return fail(r.logger, "attach tags", err, zap.Int64("user_id", userID), zap.Int64("task_id", id))
			}
		}

		created, err = r.GetByID(ctx, id, userID)
		return err
	})
	return created, err
}

func (r *TaskRepo) GetByID(ctx context.Context, taskID, userID int64) (model.Task, error) {
	q := conn(ctx, r.pool)

	t, err := scanTask(q.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks t
		WHERE t.id = $1 AND t.author_id = $2
	`, taskID, userID))
	if err != nil {
		return t, fail(r.logger, "get task", err, zap.Int64("user_id", userID), zap.Int64("task_id", taskID))
	}

	tasks := []model.Task{t}
	if err := hydrate(ctx, q, tasks); err != nil {
		return t, fail(r.logger, "get task", err, zap.Int64("user_id", userID), zap.Int64("task_id", taskID))
	}
	return tasks[0], nil
}

// Update применяет только переданные поля. Строка блокируется до конца транзакции.
func (r *TaskRepo) Update(ctx context.Context, taskID, userID int64, patch model.TaskPatch) (model.Task, error) {
	var updated model.Task
	err := runInTx(ctx, r.pool, r.logger, func(ctx context.Context) error {
		q := conn(ctx, r.pool)

		var locked int64
		err := q.QueryRow(ctx, `SELECT id FROM tasks WHERE id = $1 AND author_id = $2 FOR UPDATE`,
			taskID, userID).Scan(&locked)
		if err != nil {
			return fail(r.logger, "update task", err, zap.Int64("user_id", userID), zap.Int64("task_id", taskID))
		}

		current, err := r.GetByID(ctx, taskID, userID)
		if err != nil {
			return err
		}
		if patch.Empty() {
			updated = current
			return nil
		}

		if patch.CategoryID.Valid {
			if err := r.checkCategory(ctx, q, patch.CategoryID.Value, userID); err != nil {
				return err
			}
		}

		next := patch.Apply(current)
		_, err = q.Exec(ctx, `
			UPDATE tasks
			SET title = $3, description = $4, status = $5::text::task_status,
			    priority = $6::text::task_priority, deadline = $7, category_id = $8
			WHERE id = $1 AND author_id = $2
		`, taskID, userID, next.Title, next.Description, string(next.Status), string(next.Priority), next.Deadline, next.CategoryID)
		if err != nil {
			return fail(r.logger, "update task", err, zap.Int64("user_id", userID), zap.Int64("task_id", taskID))
		}

		updated, err = r.GetByID(ctx, taskID, userID)
		return err
	})
	return updated, err
}

// Delete удаляет задачу; подзадачи и связи с тегами удаляются каскадно.
func (r *TaskRepo) Delete(ctx context.Context, taskID, userID int64) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, "DELETE FROM tasks WHERE id = $1 AND author_id = $2", taskID, userID)
	if err != nil {
		return fail(r.logger, "delete task", err, zap.Int64("user_id", userID), zap.Int64("task_id", taskID))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("delete task: %w", ErrorNotFound)
	}
	return nil
}

// DeleteCreatedBefore удаляет задачи всех пользователей, созданные раньше threshold.
func (r *TaskRepo) DeleteCreatedBefore(ctx context.Context, threshold time.Time) (int64, error) {
	cmd, err := conn(ctx, r.pool).Exec(ctx, "DELETE FROM tasks WHERE created_at < $1", threshold)
	if err != nil {
		return 0, fail(r.logger, "delete stale tasks", err, zap.Time("threshold", threshold))
	}
	return cmd.RowsAffected(), nil
}

func (r *TaskRepo) checkCategory(ctx context.Context, q DBTX, categoryID, userID int64) error {
	var owned bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1 AND owner_id = $2)
	`, categoryID, userID).Scan(&owned)
	if err != nil {
		return fail(r.logger, "check category", err, zap.Int64("user_id", userID), zap.Int64("category_id", categoryID))
	}
	if !owned {
		r.logger.Warn("category not available",
			zap.Int64("user_id", userID),
			zap.Int64("category_id", categoryID),
		)
		return fmt.Errorf("category %d: %w", categoryID, ErrorIntegrity)
	}
	return nil
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	var status, priority string
	err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &priority,
		&t.Deadline, &t.CreatedAt, &t.AuthorID, &t.CategoryID)
	t.Status = model.TaskStatus(status)
	t.Priority = model.Priority(priority)
	return t, err
}

func collectTasks(rows pgx.Rows) ([]model.Task, error) {
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// hydrate подгружает подзадачи, теги и категории для набора задач тремя запросами.
func hydrate(ctx context.Context, q DBTX, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(tasks))
	index := make(map[int64]int, len(tasks))
	categorySet := make(map[int64]struct{})
	for i := range tasks {
		tasks[i].SubTasks = []model.SubTask{}
		tasks[i].Tags = []model.Tag{}
		ids = append(ids, tasks[i].ID)
		index[tasks[i].ID] = i
		if tasks[i].CategoryID != nil {
			categorySet[*tasks[i].CategoryID] = struct{}{}
		}
	}

	rows, err := q.Query(ctx, `
		SELECT id, title, is_done, parent_task_id
		FROM subtasks
		WHERE parent_task_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var s model.SubTask
		if err := rows.Scan(&s.ID, &s.Title, &s.IsDone, &s.ParentTaskID); err != nil {
			rows.Close()
			return err
		}
		i := index[s.ParentTaskID]
		tasks[i].SubTasks = append(tasks[i].SubTasks, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.Query(ctx, `
		SELECT tt.task_id, g.id, g.name, g.color
		FROM task_tags tt
		JOIN tags g ON g.id = tt.tag_id
		WHERE tt.task_id = ANY($1)
		ORDER BY g.name
	`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var taskID int64
		var g model.Tag
		if err := rows.Scan(&taskID, &g.ID, &g.Name, &g.Color); err != nil {
			rows.Close()
			return err
		}
		i := index[taskID]
		tasks[i].Tags = append(tasks[i].Tags, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if len(categorySet) == 0 {
		return nil
	}
	categoryIDs := make([]int64, 0, len(categorySet))
	for id := range categorySet {
		categoryIDs = append(categoryIDs, id)
	}

	rows, err = q.Query(ctx, `SELECT id, name, owner_id FROM categories WHERE id = ANY($1)`, categoryIDs)
	if err != nil {
		return err
	}
	categories := make(map[int64]model.Category, len(categoryIDs))
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerID); err != nil {
			rows.Close()
			return err
		}
		categories[c.ID] = c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range tasks {
		if tasks[i].CategoryID == nil {
			continue
		}
		if c, ok := categories[*tasks[i].CategoryID]; ok {
			tasks[i].Category = &c
		}
	}
	return nil
}
