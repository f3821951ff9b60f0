package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/auth"
	"github.com/BuzzLyutic/task-tracker-api/internal/cache"
	"github.com/BuzzLyutic/task-tracker-api/internal/config"
	"github.com/BuzzLyutic/task-tracker-api/internal/handler"
	applog "github.com/BuzzLyutic/task-tracker-api/internal/logger"
	"github.com/BuzzLyutic/task-tracker-api/internal/migrations"
	"github.com/BuzzLyutic/task-tracker-api/internal/repo"
	"github.com/BuzzLyutic/task-tracker-api/internal/service"
	"github.com/BuzzLyutic/task-tracker-api/internal/worker"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Подключаем логгер
	logger, err := applog.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Application failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := migrations.Up(ctx, cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("Migrations applied")

	// Подключаем БД
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close() // Запланированное закрытие соединения
	logger.Info("Successfully connected to the Database!")

	taskCache, closeCache, err := newCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	tx := repo.NewTxManager(pool, logger)
	taskRepo := repo.NewTaskRepo(pool, logger)

	authService := service.NewAuthService(
		repo.NewUserRepo(pool, logger),
		repo.NewTokenRepo(pool, logger),
		tx,
		auth.NewBcryptHasher(cfg.BcryptCost),
		auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		logger,
	)
	taskService := service.NewTaskService(
		taskRepo,
		repo.NewSubTaskRepo(pool, logger),
		repo.NewTagRepo(pool, logger),
		tx,
		taskCache,
		logger,
	)
	categoryService := service.NewCategoryService(repo.NewCategoryRepo(pool, logger), tx, taskCache, logger)

	router := handler.NewRouter(handler.Handlers{
		Auth:       handler.NewAuthHandler(authService, logger),
		Tasks:      handler.NewTaskHandler(taskService, logger),
		Categories: handler.NewCategoryHandler(categoryService, logger),
	}, authService, logger)

	sweeper := worker.NewSweeper(taskRepo, tx, taskCache, logger, cfg.RetentionPeriod, cfg.SweepInterval)
	if err := sweeper.Start(ctx); err != nil {
		return err
	}
	defer sweeper.Stop()

	srv := &http.Server{ // Создаем сервер
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped successfully!")
	return nil
}

func newPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil { // Пытаемся пингануть БД
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	return pool, nil
}

// newCache возвращает Redis-кэш или заглушку, если REDIS_URL не задан.
func newCache(ctx context.Context, cfg config.Config, logger *zap.Logger) (cache.TaskCache, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("Redis is not configured, task cache disabled")
		return cache.Noop{}, func() {}, nil
	}

	rdb, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Task cache enabled", zap.Duration("ttl", cfg.CacheTTL))
	return cache.NewRedisTaskCache(rdb, cfg.CacheTTL), func() { _ = rdb.Close() }, nil
}
