package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
	"github.com/BuzzLyutic/task-tracker-api/internal/service"
	"github.com/BuzzLyutic/task-tracker-api/pkg/respond"
)

type CategoryHandler struct {
	service *service.CategoryService
	logger  *zap.Logger
}

func NewCategoryHandler(srv *service.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{service: srv, logger: logger}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context(), mustUserID(r))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, categories)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CategoryCreate
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	category, err := h.service.Create(r.Context(), mustUserID(r), req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, category)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
