// Package sqlxrepos implements the repositories on Postgres through sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

// Postgres error codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pqForeignKeyViolation     = "23503"
	pqUniqueViolation         = "23505"
	pqCheckViolation          = "23514"
	pqNotNullViolation        = "23502"
	pqInsufficientPrivilege   = "42501"
	pqInvalidTextRepresention = "22P02"
)

// executor is implemented by both *sqlx.DB and *sqlx.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Rebind(query string) string
}

// storeError classifies a driver error into a core.StoreError. Store errors pass through.
func storeError(op string, err error) error {
	if err == nil || core.StoreCode(err) != "" {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewStoreError(core.StoreNotFound, op, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqForeignKeyViolation, pqUniqueViolation, pqCheckViolation, pqNotNullViolation:
			return core.NewStoreError(core.StoreConstraint, op, err)
		case pqInsufficientPrivilege:
			return core.NewStoreError(core.StorePermission, op, err)
		case pqInvalidTextRepresention:
			// malformed uuid: no row can match it
			return core.NewStoreError(core.StoreNotFound, op, err)
		}
	}
	return core.NewStoreError(core.StoreTransient, op, err)
}

// affected turns an update or delete that touched no row into a not_found error.
func affected(op string, res sql.Result, err error) error {
	if err != nil {
		return storeError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeError(op, err)
	}
	if n == 0 {
		return storeError(op, sql.ErrNoRows)
	}
	return nil
}
