package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
)

type UserRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepo(pool *pgxpool.Pool, logger *zap.Logger) *UserRepo {
	return &UserRepo{pool: pool, logger: logger}
}

func (r *UserRepo) GetByID(ctx context.Context, userID int64) (model.User, error) {
	var u model.User
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, username, email, hashed_password FROM users WHERE id = $1
	`, userID).Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword)
	if err != nil {
		return u, fail(r.logger, "get user", err, zap.Int64("user_id", userID))
	}
	return u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, username, email, hashed_password FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword)
	if err != nil {
		return u, fail(r.logger, "get user by email", err)
	}
	return u, nil
}

// Create возвращает ErrorAlreadyExists, если email уже занят.
func (r *UserRepo) Create(ctx context.Context, username, email, hashedPassword string) (model.User, error) {
	u := model.User{Username: username, Email: email, HashedPassword: hashedPassword}
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO users (username, email, hashed_password) VALUES ($1, $2, $3)
		RETURNING id
	`, username, email, hashedPassword).Scan(&u.ID)
	if err != nil {
		return model.User{}, fail(r.logger, "create user", err)
	}
	return u, nil
}
