package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/pkg/respond"
)

type Handlers struct {
	Auth       *AuthHandler
	Tasks      *TaskHandler
	Categories *CategoryHandler
}

// NewRouter собирает маршруты API. Всё под /api/tasks и /api/categories требует Bearer-токен.
func NewRouter(h Handlers, authn Authenticator, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/refresh", h.Auth.Refresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(authn, logger))

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", h.Tasks.List)
				r.Post("/", h.Tasks.Create)
				r.Get("/{id}", h.Tasks.Get)
				r.Patch("/{id}", h.Tasks.Update)
				r.Delete("/{id}", h.Tasks.Delete)
				r.Post("/{id}/subtasks", h.Tasks.AddSubTask)

				r.Patch("/subtasks/{id}/check", h.Tasks.CheckSubTask)
				r.Patch("/subtasks/{id}/uncheck", h.Tasks.UncheckSubTask)
				r.Delete("/subtasks/{id}", h.Tasks.DeleteSubTask)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.Categories.List)
				r.Post("/", h.Categories.Create)
				r.Delete("/{id}", h.Categories.Delete)
			})
		})
	})

	return r
}
