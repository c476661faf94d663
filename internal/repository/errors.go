package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	appErr "github.com/pipeline-graph/engine/pkg/errors"
)

// storeError wraps a persistence failure as unavailable. AppErrors raised
// inside a transaction pass through untouched.
func storeError(err error, message string) error {
	if err == nil {
		return nil
	}
	var ae *appErr.AppError
	if errors.As(err, &ae) {
		return err
	}

	e := appErr.Wrap(err, appErr.CodeUnavailable, message)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || pgconn.Timeout(err) {
		e = e.WithMeta("timeout", true)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		e = e.WithMeta("sqlstate", pgErr.Code)
	}
	return e
}
