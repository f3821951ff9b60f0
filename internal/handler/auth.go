package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
	"github.com/BuzzLyutic/task-tracker-api/internal/service"
	"github.com/BuzzLyutic/task-tracker-api/pkg/respond"
)

type AuthHandler struct {
	service *service.AuthService
	logger  *zap.Logger
}

func NewAuthHandler(srv *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: srv,
		logger:  logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterInput
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, user)
}

// Login принимает JSON {email, password} или OAuth2-форму (username, password).
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginInput
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			respond.Error(w, r, http.StatusBadRequest, "invalid form")
			return
		}
		req.Email = r.PostForm.Get("username")
		if req.Email == "" {
			req.Email = r.PostForm.Get("email")
		}
		req.Password = r.PostForm.Get("password")
	} else if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	pair, err := h.service.Login(r.Context(), req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh принимает токен в JSON-теле или в параметре запроса refresh_token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("refresh_token")
	if token == "" {
		var req refreshRequest
		// пустое тело (в том числе chunked без данных) - токена нет, это 401
		if err := respond.Decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
			respond.Error(w, r, http.StatusBadRequest, "invalid json")
			return
		}
		token = req.RefreshToken
	}

	access, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, access)
}

func isForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded"
}
