package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core/optimistic"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/user"
)

type rosterApi struct {
	svc  *user.Service
	sync *optimistic.Controller
}

func registerRosterAPI(g *echo.Group, svc *user.Service, sync *optimistic.Controller) {
	api := rosterApi{svc: svc, sync: sync}

	tg := g.Group("/tutors")
	tg.GET("", api.list)
	tg.PUT("/:id/active", api.setActive)
	tg.PUT("/:id/center", api.assignCenter)
}

type (
	SetActiveRequest struct {
		IsActive bool `json:"is_active"`
	}

	AssignCenterRequest struct {
		Center string `json:"center"`
	}
)

func (api *rosterApi) list(ctx echo.Context) error {
	tutors, err := api.svc.Tutors(ctx.Request().Context(), ctx.QueryParam("center"))
	if err != nil {
		return errors.Wrap(err, "listing tutors")
	}
	return ctx.JSON(http.StatusOK, listOf(tutors))
}

func (api *rosterApi) setActive(ctx echo.Context) error {
	var data SetActiveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetActiveRequest")
	}
	if err := api.checkTutor(ctx); err != nil {
		return err
	}
	id := ctx.Param("id")
	var usr user.User
	err := persist(ctx, api.sync, "tutor", "user:"+id, func(c context.Context) (err error) {
		usr, err = api.svc.SetActive(c, id, data.IsActive)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "setting tutor active state")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *rosterApi) assignCenter(ctx echo.Context) error {
	var data AssignCenterRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignCenterRequest")
	}
	if err := api.checkTutor(ctx); err != nil {
		return err
	}
	id := ctx.Param("id")
	var usr user.User
	err := persist(ctx, api.sync, "tutor", "user:"+id, func(c context.Context) (err error) {
		usr, err = api.svc.AssignCenter(c, id, data.Center)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "assigning tutor center")
	}
	return ctx.JSON(http.StatusOK, usr)
}

// checkTutor keeps the roster endpoints from editing staff accounts.
func (api *rosterApi) checkTutor(ctx echo.Context) error {
	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding tutor")
	}
	if !usr.IsTutor() {
		return echo.NewHTTPError(http.StatusNotFound, "tutor not found")
	}
	return nil
}
