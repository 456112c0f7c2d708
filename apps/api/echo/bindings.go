package echoapi

import (
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

// queryTime parses an optional RFC 3339 (or YYYY-MM-DD) query param.
func queryTime(ctx echo.Context, name string) (time.Time, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, val); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, badParam(name, "must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
}

// queryBool parses an optional boolean query param; nil when absent.
func queryBool(ctx echo.Context, name string) (*bool, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, badParam(name, "must be a boolean")
	}
	return &b, nil
}

func badParam(name, msg string) error {
	return core.NewValidationError(fmt.Errorf("%s %s", name, msg), core.FieldError{Field: name, Error: msg})
}

// listOf avoids encoding empty lists as null.
func listOf[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
