package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DBTX - общее подмножество *pgxpool.Pool и pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// conn возвращает транзакцию из контекста, если она открыта, иначе пул.
func conn(ctx context.Context, pool *pgxpool.Pool) DBTX {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// Transactor выполняет fn в одной транзакции: commit при успехе, rollback при ошибке или панике.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type TxManager struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewTxManager(pool *pgxpool.Pool, logger *zap.Logger) *TxManager {
	return &TxManager{pool: pool, logger: logger}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return runInTx(ctx, m.pool, m.logger, fn)
}

// runInTx открывает транзакцию; вложенный вызов присоединяется к внешней.
func runInTx(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fail(logger, "begin tx", err)
	}

	// rollback должен пройти даже если контекст запроса уже отменён
	rollback := func() {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.Error("rollback failed", zap.Error(rbErr))
		}
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		rollback()
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fail(logger, "commit tx", err)
	}
	return nil
}
