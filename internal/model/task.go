package model

import "time"

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusNotStarted TaskStatus = "not_started"
	StatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusNotStarted, StatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank возвращает вес приоритета: чем больше, тем важнее. 0 для неизвестного значения.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

func (p Priority) Valid() bool {
	return p.Rank() > 0
}

type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	Deadline    *time.Time `json:"deadline"`
	CreatedAt   time.Time  `json:"created_at"`
	AuthorID    int64      `json:"author_id"`
	CategoryID  *int64     `json:"category_id"`
	Category    *Category  `json:"category"`
	SubTasks    []SubTask  `json:"subtasks"`
	Tags        []Tag      `json:"tags"`
}

type SubTask struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	IsDone       bool   `json:"is_done"`
	ParentTaskID int64  `json:"parent_task_id"`
}

// TaskFilter - необязательные фильтры списка задач, каждый сужает выборку точным совпадением.
type TaskFilter struct {
	Status     *TaskStatus
	CategoryID *int64
	Priority   *Priority
}

type TaskCreate struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	CategoryID  *int64     `json:"category_id" validate:"omitempty,gt=0"`
	Status      TaskStatus `json:"status" validate:"omitempty,oneof=pending not_started completed"`
	Priority    Priority   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Tags        []string   `json:"tags" validate:"omitempty,dive,required,max=50"`
}

// WithDefaults проставляет статус и приоритет по умолчанию.
func (c TaskCreate) WithDefaults() TaskCreate {
	if c.Status == "" {
		c.Status = StatusNotStarted
	}
	if c.Priority == "" {
		c.Priority = PriorityLow
	}
	return c
}

// TaskPatch описывает частичное обновление. Nullable поля различают
// "не передано" и "явно очистить".
type TaskPatch struct {
	Title       *string             `json:"title" validate:"omitempty,min=1,max=255"`
	Description Nullable[string]    `json:"description"`
	Deadline    Nullable[time.Time] `json:"deadline"`
	CategoryID  Nullable[int64]     `json:"category_id"`
	Status      *TaskStatus         `json:"status" validate:"omitempty,oneof=pending not_started completed"`
	Priority    *Priority           `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && !p.Description.Set && !p.Deadline.Set &&
		!p.CategoryID.Set && p.Status == nil && p.Priority == nil
}

// Apply накладывает переданные поля на задачу.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description.Set {
		t.Description = p.Description.Ptr()
	}
	if p.Deadline.Set {
		t.Deadline = p.Deadline.Ptr()
	}
	if p.CategoryID.Set {
		t.CategoryID = p.CategoryID.Ptr()
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	return t
}

type SubTaskCreate struct {
	Title  string `json:"title" validate:"required,max=255"`
	IsDone bool   `json:"is_done"`
}
