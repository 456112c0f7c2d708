package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core/academy"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/optimistic"
)

type academyApi struct {
	svc  *academy.Service
	sync *optimistic.Controller
}

func registerAcademyAPI(g *echo.Group, svc *academy.Service, sync *optimistic.Controller) {
	api := academyApi{svc: svc, sync: sync}

	mg := g.Group("/modules")
	mg.GET("", api.listModules)
	mg.PUT("/:id", api.updateModule)

	lg := g.Group("/lessons")
	lg.GET("", api.listLessons)
	lg.POST("", api.createLesson)
	lg.GET("/:id", api.retrieveLesson)
	lg.PUT("/:id", api.updateLesson)
	lg.DELETE("/:id", api.destroyLesson)

	bg := g.Group("/blocks")
	bg.GET("", api.listBlocks)
	bg.PUT("/:id", api.saveBlock)
	bg.GET("/:id/downloadables", api.listDownloadables)
	bg.POST("/:id/downloadables", api.addDownloadable)

	dg := g.Group("/downloadables")
	dg.PUT("/:id", api.updateDownloadable)
	dg.DELETE("/:id", api.destroyDownloadable)
	dg.POST("/:id/file", api.uploadDownloadableFile)

	g.POST("/uploads", api.upload)
}

type (
	// DownloadableResponse carries the block whose progress moved with the downloadable.
	DownloadableResponse struct {
		Downloadable academy.Downloadable `json:"downloadable"`
		Block        academy.Block        `json:"block"`
	}

	UploadResponse struct {
		URL string `json:"url"`
	}
)

// Modules

func (api *academyApi) listModules(ctx echo.Context) error {
	modules, err := api.svc.ListModules(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing modules")
	}
	return ctx.JSON(http.StatusOK, listOf(modules))
}

func (api *academyApi) updateModule(ctx echo.Context) error {
	var data academy.UpdateModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateModule")
	}
	id := ctx.Param("id")
	var mod academy.Module
	err := persist(ctx, api.sync, "module", "module:"+id, func(c context.Context) (err error) {
		mod, err = api.svc.UpdateModule(c, id, data)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "updating module")
	}
	return ctx.JSON(http.StatusOK, mod)
}

// Lessons

func (api *academyApi) listLessons(ctx echo.Context) error {
	var filter academy.LessonFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to LessonFilter")
	}
	lessons, err := api.svc.ListLessons(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing lessons")
	}
	return ctx.JSON(http.StatusOK, listOf(lessons))
}

func (api *academyApi) createLesson(ctx echo.Context) error {
	var data academy.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	var tree academy.LessonTree
	err := persist(ctx, api.sync, "lesson", "", func(c context.Context) (err error) {
		tree, err = api.svc.CreateLesson(c, data)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, tree)
}

func (api *academyApi) retrieveLesson(ctx echo.Context) error {
	tree, err := api.svc.GetLessonTree(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting lesson tree")
	}
	return ctx.JSON(http.StatusOK, tree)
}

func (api *academyApi) updateLesson(ctx echo.Context) error {
	var data academy.UpdateLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	id := ctx.Param("id")
	var lesson academy.Lesson
	err := persist(ctx, api.sync, "lesson", "lesson:"+id, func(c context.Context) (err error) {
		lesson, err = api.svc.UpdateLesson(c, id, data)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, lesson)
}

func (api *academyApi) destroyLesson(ctx echo.Context) error {
	id := ctx.Param("id")
	err := persist(ctx, api.sync, "lesson", "lesson:"+id, func(c context.Context) error {
		return api.svc.DeleteLesson(c, id)
	})
	if err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Blocks

func (api *academyApi) listBlocks(ctx echo.Context) error {
	ids := ctx.QueryParams()["lesson_id"]
	if len(ids) == 0 {
		return badParam("lesson_id", "is required")
	}
	blocks, err := api.svc.ListBlocks(ctx.Request().Context(), ids...)
	if err != nil {
		return errors.Wrap(err, "listing blocks")
	}
	return ctx.JSON(http.StatusOK, listOf(blocks))
}

func (api *academyApi) saveBlock(ctx echo.Context) error {
	var data academy.BlockContent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BlockContent")
	}
	id := ctx.Param("id")
	var blk academy.Block
	err := persist(ctx, api.sync, "block", "block:"+id, func(c context.Context) (err error) {
		blk, err = api.svc.SaveBlock(c, id, data)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "saving block")
	}
	return ctx.JSON(http.StatusOK, blk)
}

// Downloadables

func (api *academyApi) listDownloadables(ctx echo.Context) error {
	dls, err := api.svc.ListDownloadables(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing downloadables")
	}
	return ctx.JSON(http.StatusOK, listOf(dls))
}

func (api *academyApi) addDownloadable(ctx echo.Context) error {
	var data academy.NewDownloadable
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDownloadable")
	}
	data.BlockID = ctx.Param("id")

	var (
		dl  academy.Downloadable
		blk academy.Block
	)
	err := persist(ctx, api.sync, "downloadable", "block:"+data.BlockID, func(c context.Context) (err error) {
		dl, blk, err = api.svc.AddDownloadable(c, data)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "adding downloadable")
	}
	return ctx.JSON(http.StatusCreated, DownloadableResponse{Downloadable: dl, Block: blk})
}

func (api *academyApi) updateDownloadable(ctx echo.Context) error {
	var data academy.UpdateDownloadable
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateDownloadable")
	}
	dl, blk, err := api.writeDownloadable(ctx, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating downloadable")
	}
	return ctx.JSON(http.StatusOK, DownloadableResponse{Downloadable: dl, Block: blk})
}

func (api *academyApi) writeDownloadable(ctx echo.Context, id string, data academy.UpdateDownloadable) (dl academy.Downloadable, blk academy.Block, err error) {
	err = persist(ctx, api.sync, "downloadable", "downloadable:"+id, func(c context.Context) (err error) {
		dl, blk, err = api.svc.UpdateDownloadable(c, id, data)
		return err
	})
	return dl, blk, err
}

func (api *academyApi) destroyDownloadable(ctx echo.Context) error {
	id := ctx.Param("id")
	var blk academy.Block
	err := persist(ctx, api.sync, "downloadable", "downloadable:"+id, func(c context.Context) (err error) {
		blk, err = api.svc.RemoveDownloadable(c, id)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "removing downloadable")
	}
	return ctx.JSON(http.StatusOK, blk)
}

// Uploads

// upload stores a video or presentation file; the returned URL is then saved on the block.
func (api *academyApi) upload(ctx echo.Context) error {
	kind := academy.AssetKind(ctx.QueryParam("kind"))
	switch kind {
	case academy.AssetVideo, academy.AssetPresentation, academy.AssetDownloadable:
	default:
		return badParam("kind", "must be one of video, ppt, downloadable")
	}
	url, err := api.storeFile(ctx, kind)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, UploadResponse{URL: url})
}

func (api *academyApi) uploadDownloadableFile(ctx echo.Context) error {
	url, err := api.storeFile(ctx, academy.AssetDownloadable)
	if err != nil {
		return err
	}
	dl, blk, err := api.writeDownloadable(ctx, ctx.Param("id"), academy.UpdateDownloadable{FileURL: &url})
	if err != nil {
		return errors.Wrap(err, "attaching downloadable file")
	}
	return ctx.JSON(http.StatusOK, DownloadableResponse{Downloadable: dl, Block: blk})
}

func (api *academyApi) storeFile(ctx echo.Context, kind academy.AssetKind) (string, error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return "", badParam("file", "is required")
	}
	// rejected files never reach the blob store
	if err := api.svc.CheckUpload(kind, fh.Filename, fh.Size); err != nil {
		return "", err
	}
	f, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	url, err := api.svc.UploadAsset(ctx.Request().Context(), kind, fh.Filename, f, fh.Size)
	return url, errors.Wrap(err, "uploading asset")
}
