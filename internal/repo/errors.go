package repo

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var (
	// ErrorNotFound - строки нет или она принадлежит другому пользователю.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrorIntegrity     = errors.New("integrity violation")
	ErrorStorage       = errors.New("storage unavailable")
)

// Коды ошибок PostgreSQL
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeInvalidText         = "22P02"
	codeStringTooLong       = "22001"
)

// mapError переводит ошибку драйвера в одну из ошибок пакета.
// Исходная ошибка pgx наружу не оборачивается.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrorNotFound, ErrorAlreadyExists, ErrorIntegrity, ErrorStorage} {
		if errors.Is(err, known) {
			return err
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrorNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", ErrorAlreadyExists, pgErr.ConstraintName)
		case codeForeignKeyViolation, codeCheckViolation, codeNotNullViolation, codeInvalidText, codeStringTooLong:
			return fmt.Errorf("%w: %s", ErrorIntegrity, pgErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", ErrorStorage, err)
}

// fail логирует ошибку хранилища с контекстом операции и возвращает отображённую ошибку.
func fail(logger *zap.Logger, op string, err error, fields ...zap.Field) error {
	mapped := mapError(err)

	fields = append([]zap.Field{zap.String("op", op)}, fields...)
	switch {
	case errors.Is(mapped, ErrorNotFound):
	case errors.Is(mapped, ErrorIntegrity), errors.Is(mapped, ErrorAlreadyExists):
		logger.Warn("constraint violation", append(fields, zap.Error(err))...)
	default:
		logger.Error("storage error", append(fields, zap.Error(err))...)
	}
	return fmt.Errorf("%s: %w", op, mapped)
}
