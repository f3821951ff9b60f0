package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
	"github.com/BuzzLyutic/task-tracker-api/internal/service"
	"github.com/BuzzLyutic/task-tracker-api/pkg/respond"
)

type TaskHandler struct {
	service *service.TaskService
	logger  *zap.Logger
}

func NewTaskHandler(srv *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		logger:  logger,
	}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := h.service.List(r.Context(), mustUserID(r), filter)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return
	}

	var req model.TaskCreate
	if err := respond.Decode(r, &req); err != nil {
		h.logger.Debug("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return
	}

	task, err := h.service.Create(r.Context(), mustUserID(r), req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%d", task.ID))
	respond.JSON(w, r, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	task, err := h.service.Get(r.Context(), mustUserID(r), id)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req model.TaskPatch
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	task, err := h.service.Update(r.Context(), mustUserID(r), id, req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), mustUserID(r), id); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.NoContent(w, r)
}

func (h *TaskHandler) AddSubTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req model.SubTaskCreate
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	sub, err := h.service.AddSubTask(r.Context(), mustUserID(r), taskID, req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, sub)
}

func (h *TaskHandler) CheckSubTask(w http.ResponseWriter, r *http.Request) {
	h.setSubTaskDone(w, r, true)
}

func (h *TaskHandler) UncheckSubTask(w http.ResponseWriter, r *http.Request) {
	h.setSubTaskDone(w, r, false)
}

func (h *TaskHandler) DeleteSubTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteSubTask(r.Context(), mustUserID(r), id); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.NoContent(w, r)
}

func (h *TaskHandler) setSubTaskDone(w http.ResponseWriter, r *http.Request, done bool) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var (
		sub model.SubTask
		err error
	)
	if done {
		sub, err = h.service.CheckSubTask(r.Context(), mustUserID(r), id)
	} else {
		sub, err = h.service.UncheckSubTask(r.Context(), mustUserID(r), id)
	}
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, sub)
}

func parseFilter(r *http.Request) (model.TaskFilter, error) {
	var filter model.TaskFilter
	q := r.URL.Query()

	if v := q.Get("status"); v != "" {
		status := model.TaskStatus(v)
		if !status.Valid() {
			return filter, fmt.Errorf("unknown status %q", v)
		}
		filter.Status = &status
	}
	if v := q.Get("priority"); v != "" {
		priority := model.Priority(v)
		if !priority.Valid() {
			return filter, fmt.Errorf("unknown priority %q", v)
		}
		filter.Priority = &priority
	}
	if v := q.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return filter, fmt.Errorf("invalid category_id %q", v)
		}
		filter.CategoryID = &id
	}
	return filter, nil
}

// pathID читает {id} из пути; при ошибке сам пишет ответ 400.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, r, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// mustUserID вызывается только за RequireAuth.
func mustUserID(r *http.Request) int64 {
	id, ok := UserID(r.Context())
	if !ok {
		panic("handler: user id missing from context, route is not behind RequireAuth")
	}
	return id
}
