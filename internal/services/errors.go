package services

import (
	"database/sql"
	"errors"
	"fmt"
)

type ServiceError struct {
	Status  int
	Message string
}

func (e ServiceError) Error() string {
	return e.Message
}

func ErrNotFound(msg string) error {
	return ServiceError{Status: 404, Message: msg}
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: 400, Message: msg}
}

// ErrConflict reports a delete blocked by dependent rows. Kept at 400 to match
// the public API contract.
func ErrConflict(msg string) error {
	return ServiceError{Status: 400, Message: msg}
}

func ErrForbidden(msg string) error {
	return ServiceError{Status: 403, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Status: 401, Message: msg}
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// NotFoundOr maps a missing row to a 404 and keeps every other database
// failure on the internal-error path, so a broken connection never masquerades
// as "not found".
func NotFoundOr(err error, notFound, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound(notFound)
	}
	return WrapError(err, op)
}
