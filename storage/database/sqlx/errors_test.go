package sqlxrepos

import (
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

type result struct {
	n   int64
	err error
}

func (r result) LastInsertId() (int64, error) { return 0, nil }
func (r result) RowsAffected() (int64, error) { return r.n, r.err }

func Test_storeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want core.StoreErrorCode
	}{
		{name: "no rows", err: errors.Wrap(sql.ErrNoRows, "scanning"), want: core.StoreNotFound},
		{name: "foreign key", err: &pq.Error{Code: pqForeignKeyViolation}, want: core.StoreConstraint},
		{name: "unique", err: &pq.Error{Code: pqUniqueViolation}, want: core.StoreConstraint},
		{name: "check", err: &pq.Error{Code: pqCheckViolation}, want: core.StoreConstraint},
		{name: "not null", err: &pq.Error{Code: pqNotNullViolation}, want: core.StoreConstraint},
		{name: "privilege", err: &pq.Error{Code: pqInsufficientPrivilege}, want: core.StorePermission},
		{name: "malformed uuid", err: &pq.Error{Code: pqInvalidTextRepresention}, want: core.StoreNotFound},
		{name: "deadlock", err: &pq.Error{Code: "40P01"}, want: core.StoreTransient},
		{name: "network", err: errors.New("dial tcp: connection refused"), want: core.StoreTransient},
		{name: "classified inside a transaction", err: core.NewStoreError(core.StorePermission, "DeleteBlock", nil), want: core.StorePermission},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storeError("GetLesson", tt.err)
			assert.Equal(t, tt.want, core.StoreCode(err))
			assert.True(t, errors.Is(err, tt.err))
		})
	}
	assert.NoError(t, storeError("GetLesson", nil))
}

func Test_affected(t *testing.T) {
	assert.NoError(t, affected("DeleteTask", result{n: 1}, nil))
	assert.True(t, core.IsNotFound(affected("DeleteTask", result{}, nil)))
	assert.Equal(t, core.StoreConstraint, core.StoreCode(affected("DeleteTask", nil, &pq.Error{Code: pqForeignKeyViolation})))
	assert.Equal(t, core.StoreTransient, core.StoreCode(affected("DeleteTask", result{err: errors.New("driver")}, nil)))
}
