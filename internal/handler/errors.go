package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/repo"
	"github.com/BuzzLyutic/task-tracker-api/internal/service"
	"github.com/BuzzLyutic/task-tracker-api/pkg/respond"
)

func handleErrors(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, repo.ErrorAlreadyExists):
		respond.Error(w, r, http.StatusConflict, "already exists")
	case errors.Is(err, service.ErrAuthentication):
		w.Header().Set("WWW-Authenticate", "Bearer")
		respond.Error(w, r, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, repo.ErrorIntegrity):
		respond.Error(w, r, http.StatusUnprocessableEntity, "integrity violation")
	default:
		logger.Error("internal error",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
