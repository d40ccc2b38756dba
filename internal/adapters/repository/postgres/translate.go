package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"plinth/internal/gateway"
	"plinth/pkg/metrics"
)

// PostgreSQL error classes and codes this driver cares about.
const (
	codeUniqueViolation    = "23505"
	classConnectionFailure = "08"
	classInsufficientRes   = "53"
)

// translate maps a pgx error onto the gateway taxonomy. Anything not
// recognized becomes ErrInternal so backend detail never leaks upward.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}

	kind := gateway.ErrInternal
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		kind = gateway.ErrNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		kind = gateway.ErrTransient
	case pgconn.Timeout(err):
		kind = gateway.ErrTransient
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch {
			case pgErr.Code == codeUniqueViolation:
				kind = gateway.ErrConflict
			case len(pgErr.Code) >= 2 && (pgErr.Code[:2] == classConnectionFailure ||
				pgErr.Code[:2] == classInsufficientRes):
				kind = gateway.ErrTransient
			}
		} else if pgconn.SafeToRetry(err) {
			kind = gateway.ErrTransient
		}
	}

	metrics.RecordStoreError(op, kindLabel(kind))
	return gateway.WrapKind(op, kind, err)
}

func kindLabel(kind error) string {
	switch kind {
	case gateway.ErrNotFound:
		return "not_found"
	case gateway.ErrConflict:
		return "conflict"
	case gateway.ErrValidation:
		return "validation"
	case gateway.ErrTransient:
		return "transient"
	default:
		return "internal"
	}
}
