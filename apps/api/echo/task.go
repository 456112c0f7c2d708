package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core/optimistic"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/task"
)

type taskApi struct {
	svc  *task.Service
	sync *optimistic.Controller
}

func registerTaskAPI(g *echo.Group, svc *task.Service, sync *optimistic.Controller) {
	api := taskApi{svc: svc, sync: sync}

	tg := g.Group("/tasks")
	tg.GET("", api.query)
	tg.POST("", api.create)
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id", api.update)
	tg.PATCH("/:id/status", api.move)
	tg.DELETE("/:id", api.destroy)
}

type MoveTaskRequest struct {
	Status task.Status `json:"status"`
}

func (api *taskApi) query(ctx echo.Context) error {
	var filter task.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to task.Filter")
	}
	tasks, err := api.svc.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing tasks")
	}
	return ctx.JSON(http.StatusOK, listOf(tasks))
}

func (api *taskApi) create(ctx echo.Context) error {
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	var t task.Task
	err := persist(ctx, api.sync, "task", "", func(c context.Context) (err error) {
		t, err = api.svc.Create(c, data)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	t, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) update(ctx echo.Context) error {
	var data task.UpdateTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	id := ctx.Param("id")
	var t task.Task
	err := persist(ctx, api.sync, "task", "task:"+id, func(c context.Context) (err error) {
		t, err = api.svc.Update(c, id, data)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) move(ctx echo.Context) error {
	var data MoveTaskRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MoveTaskRequest")
	}
	id := ctx.Param("id")
	var t task.Task
	err := persist(ctx, api.sync, "task", "task:"+id, func(c context.Context) (err error) {
		t, err = api.svc.Move(c, id, data.Status)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "moving task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	err := persist(ctx, api.sync, "task", "task:"+id, func(c context.Context) error {
		return api.svc.Delete(c, id)
	})
	if err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}
