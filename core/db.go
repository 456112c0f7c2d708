package core

import (
	"strings"

	"github.com/pkg/errors"
)

// DBTransactor is a unit of work opened on a gateway.
type DBTransactor interface {
	Commit() error
	Rollback() error
}

// FinishTx commits tx when err is nil, and rolls it back otherwise.
func FinishTx(tx DBTransactor, err error) error {
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rollback failed: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing")
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// OrderBy joins orderings into an ORDER BY clause body.
func OrderBy(ords ...DBOrdering) string {
	parts := make([]string, 0, len(ords))
	for _, ord := range ords {
		parts = append(parts, ord.String())
	}
	return strings.Join(parts, ", ")
}
