package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
)

// TokenRepo хранит выданные refresh-токены.
type TokenRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewTokenRepo(pool *pgxpool.Pool, logger *zap.Logger) *TokenRepo {
	return &TokenRepo{pool: pool, logger: logger}
}

func (r *TokenRepo) Create(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO refresh_tokens (token, user_id, expires_at) VALUES ($1, $2, $3)
	`, token, userID, expiresAt)
	if err != nil {
		return fail(r.logger, "create refresh token", err, zap.Int64("user_id", userID))
	}
	return nil
}

func (r *TokenRepo) GetByToken(ctx context.Context, token string) (model.RefreshToken, error) {
	var rt model.RefreshToken
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, token, user_id, expires_at FROM refresh_tokens WHERE token = $1
	`, token).Scan(&rt.ID, &rt.Token, &rt.UserID, &rt.ExpiresAt)
	if err != nil {
		return rt, fail(r.logger, "get refresh token", err)
	}
	return rt, nil
}
