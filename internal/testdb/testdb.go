// Package testdb поднимает PostgreSQL в testcontainers для интеграционных тестов.
package testdb

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/BuzzLyutic/task-tracker-api/internal/migrations"
)

// Setup создает тестовую БД с применёнными миграциями. С -short тест пропускается.
func Setup(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, migrations.Up(ctx, dsn), "failed to apply migrations")

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(ctx))
	return pool
}

// Truncate очищает все таблицы
func Truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"TRUNCATE users, refresh_tokens, categories, tasks, subtasks, tags, task_tags RESTART IDENTITY CASCADE")
	require.NoError(t, err, "failed to truncate tables")
}

// SeedUser создает пользователя с заданным email и возвращает его id.
func SeedUser(t *testing.T, pool *pgxpool.Pool, email string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO users (username, email, hashed_password)
		VALUES (split_part($1, '@', 1), $1, 'x')
		RETURNING id
	`, email).Scan(&id)
	require.NoError(t, err, "failed to seed user")
	return id
}

// SetCreatedAt сдвигает created_at задачи, чтобы проверять очистку старых задач.
func SetCreatedAt(t *testing.T, pool *pgxpool.Pool, taskID int64, at time.Time) {
	t.Helper()

	_, err := pool.Exec(context.Background(), "UPDATE tasks SET created_at = $2 WHERE id = $1", taskID, at)
	require.NoError(t, err)
}

// WaitForCondition ждет выполнения условия с таймаутом
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}
