package echoapi

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core/optimistic"
)

// persist runs a write through the sync controller, counting it in the mutation metrics.
// Keys follow the dashboards' "<entity>:<id>" scheme; an empty key locks the whole entity.
func persist(ctx echo.Context, ctrl *optimistic.Controller, entity, key string, write func(ctx context.Context) error) error {
	return ctrl.Perform(ctx.Request().Context(), optimistic.Mutation{
		Entity: entity,
		Key:    key,
		Remote: write,
	}).Err
}
