package service

import (
	"errors"

	"Proofline/internal/data"
	"Proofline/pkg/breaker"
	pkgerrors "Proofline/pkg/errors"

	kratoserrors "github.com/go-kratos/kratos/v2/errors"
)

// apiError maps layer errors onto transport errors. Kratos errors pass
// through untouched so usecase validation keeps its own codes.
func apiError(err error) error {
	if err == nil {
		return nil
	}
	var ke *kratoserrors.Error
	if errors.As(err, &ke) {
		return err
	}

	if errors.Is(err, breaker.ErrCircuitOpen) {
		return kratoserrors.ServiceUnavailable("DATABASE_UNAVAILABLE",
			"database is temporarily unavailable, retry shortly")
	}

	var timeoutErr *data.QueryTimeoutError
	if errors.As(err, &timeoutErr) {
		return kratoserrors.GatewayTimeout("QUERY_TIMEOUT", timeoutErr.Error())
	}

	if errors.Is(err, data.ErrVersionConflict) {
		return kratoserrors.Conflict("VERSION_CONFLICT",
			"record was modified concurrently, reload and retry")
	}

	var stockErr *data.InsufficientStockError
	if errors.As(err, &stockErr) {
		return kratoserrors.Conflict("INSUFFICIENT_STOCK", stockErr.Error())
	}

	var stateErr *data.InvalidRunStateError
	if errors.As(err, &stateErr) {
		return kratoserrors.Conflict("INVALID_RUN_STATE", stateErr.Error())
	}

	var dbErr *pkgerrors.DatabaseError
	if errors.As(err, &dbErr) {
		switch dbErr.Type {
		case pkgerrors.ErrorTypeNotFound:
			return kratoserrors.NotFound("NOT_FOUND", "record not found")
		case pkgerrors.ErrorTypeDuplicateKey:
			return kratoserrors.Conflict("DUPLICATE", dbErr.Message)
		case pkgerrors.ErrorTypeConstraintViolation:
			return kratoserrors.Conflict("CONSTRAINT_VIOLATION", dbErr.Message)
		case pkgerrors.ErrorTypeConnectionError:
			return kratoserrors.ServiceUnavailable("DATABASE_UNAVAILABLE", dbErr.Message)
		default:
			return kratoserrors.InternalServer("DATABASE_ERROR", dbErr.Message)
		}
	}

	return kratoserrors.InternalServer("INTERNAL", err.Error())
}
