package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core/calendar"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/optimistic"
)

type calendarApi struct {
	svc  *calendar.Service
	sync *optimistic.Controller
}

func registerCalendarAPI(g *echo.Group, svc *calendar.Service, sync *optimistic.Controller) {
	api := calendarApi{svc: svc, sync: sync}

	cg := g.Group("/content-items")
	cg.GET("", api.listContentItems)
	cg.POST("", api.createContentItem)
	cg.DELETE("/:id", api.destroyContentItem)

	eg := g.Group("/events")
	eg.GET("", api.listEvents)
	eg.POST("", api.schedule)
	eg.PUT("/:id", api.updateEvent)
	eg.POST("/:id/cancel", api.cancel)
	eg.DELETE("/:id", api.destroyEvent)
}

// Content items

func (api *calendarApi) listContentItems(ctx echo.Context) error {
	items, err := api.svc.ListContentItems(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing content items")
	}
	return ctx.JSON(http.StatusOK, listOf(items))
}

func (api *calendarApi) createContentItem(ctx echo.Context) error {
	var data calendar.NewContentItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewContentItem")
	}
	var item calendar.ContentItem
	err := persist(ctx, api.sync, "content", "", func(c context.Context) (err error) {
		item, err = api.svc.CreateContentItem(c, data)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "creating content item")
	}
	return ctx.JSON(http.StatusCreated, item)
}

func (api *calendarApi) destroyContentItem(ctx echo.Context) error {
	id := ctx.Param("id")
	err := persist(ctx, api.sync, "content", "content:"+id, func(c context.Context) error {
		return api.svc.DeleteContentItem(c, id)
	})
	if err != nil {
		return errors.Wrap(err, "deleting content item")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Events

func (api *calendarApi) listEvents(ctx echo.Context) error {
	filter := calendar.EventFilter{
		Platform:  ctx.QueryParam("platform"),
		ContentID: ctx.QueryParam("content_id"),
	}
	var err error
	if filter.From, err = queryTime(ctx, "from"); err != nil {
		return err
	}
	if filter.To, err = queryTime(ctx, "to"); err != nil {
		return err
	}

	events, err := api.svc.ListEvents(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing events")
	}
	return ctx.JSON(http.StatusOK, listOf(events))
}

func (api *calendarApi) schedule(ctx echo.Context) error {
	var data calendar.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	var ev calendar.Event
	err := persist(ctx, api.sync, "event", "", func(c context.Context) (err error) {
		ev, err = api.svc.Schedule(c, data)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "scheduling event")
	}
	return ctx.JSON(http.StatusCreated, ev)
}

func (api *calendarApi) updateEvent(ctx echo.Context) error {
	var data calendar.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	id := ctx.Param("id")
	var ev calendar.Event
	err := persist(ctx, api.sync, "event", "event:"+id, func(c context.Context) (err error) {
		ev, err = api.svc.UpdateEvent(c, id, data)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *calendarApi) cancel(ctx echo.Context) error {
	id := ctx.Param("id")
	var ev calendar.Event
	err := persist(ctx, api.sync, "event", "event:"+id, func(c context.Context) (err error) {
		ev, err = api.svc.Cancel(c, id)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "cancelling event")
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *calendarApi) destroyEvent(ctx echo.Context) error {
	id := ctx.Param("id")
	err := persist(ctx, api.sync, "event", "event:"+id, func(c context.Context) error {
		return api.svc.DeleteEvent(c, id)
	})
	if err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}
