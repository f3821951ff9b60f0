package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
)

type CategoryRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewCategoryRepo(pool *pgxpool.Pool, logger *zap.Logger) *CategoryRepo {
	return &CategoryRepo{pool: pool, logger: logger}
}

func (r *CategoryRepo) List(ctx context.Context, userID int64) ([]model.Category, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, name, owner_id FROM categories WHERE owner_id = $1 ORDER BY id
	`, userID)
	if err != nil {
		return nil, fail(r.logger, "list categories", err, zap.Int64("user_id", userID))
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerID); err != nil {
			return nil, fail(r.logger, "list categories", err, zap.Int64("user_id", userID))
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fail(r.logger, "list categories", err, zap.Int64("user_id", userID))
	}
	return categories, nil
}

func (r *CategoryRepo) Create(ctx context.Context, userID int64, in model.CategoryCreate) (model.Category, error) {
	var c model.Category
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO categories (name, owner_id) VALUES ($1, $2)
		RETURNING id, name, owner_id
	`, in.Name, userID).Scan(&c.ID, &c.Name, &c.OwnerID)
	if err != nil {
		return c, fail(r.logger, "create category", err, zap.Int64("user_id", userID))
	}
	return c, nil
}

func (r *CategoryRepo) GetByID(ctx context.Context, categoryID, userID int64) (model.Category, error) {
	var c model.Category
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, owner_id FROM categories WHERE id = $1 AND owner_id = $2
	`, categoryID, userID).Scan(&c.ID, &c.Name, &c.OwnerID)
	if err != nil {
		return c, fail(r.logger, "get category", err, zap.Int64("user_id", userID), zap.Int64("category_id", categoryID))
	}
	return c, nil
}

// Delete удаляет категорию. Задачи остаются, их category_id обнуляется (ON DELETE SET NULL).
func (r *CategoryRepo) Delete(ctx context.Context, categoryID, userID int64) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `
		DELETE FROM categories WHERE id = $1 AND owner_id = $2
	`, categoryID, userID)
	if err != nil {
		return fail(r.logger, "delete category", err, zap.Int64("user_id", userID), zap.Int64("category_id", categoryID))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("delete category: %w", ErrorNotFound)
	}
	return nil
}
