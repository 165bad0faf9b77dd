package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/announcement"
)

type announcementApi struct {
	svc      announcement.Service
	validate *validator.Validate
}

func registerAnnouncementAPI(g *echo.Group, svc announcement.Service, validate *validator.Validate) {
	api := announcementApi{
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("/announcements")
	ag.GET("", api.query)
	ag.GET("/feed", api.feed)
	ag.POST("", api.create)
	ag.PUT("/read-all", api.markAllRead)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
	ag.PUT("/:id/read", api.markRead)
}

type markAllReadResponse struct {
	Marked int `json:"marked"`
}

func (api *announcementApi) query(ctx echo.Context) error {
	var filter announcement.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	var page core.Page
	if err := ctx.Bind(&page); err != nil {
		return errors.Wrap(err, "binding to Page")
	}
	page.Clean()

	announcements, total, err := api.svc.List(ctx.Request().Context(), filter, page)
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if announcements == nil {
		announcements = []announcement.Announcement{}
	}
	return ctx.JSON(http.StatusOK, paged("announcements", announcements, page, total))
}

func (api *announcementApi) feed(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	feed, err := api.svc.Feed(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "building feed")
	}
	if feed == nil {
		feed = []announcement.FeedItem{}
	}
	return ctx.JSON(http.StatusOK, feed)
}

func (api *announcementApi) create(ctx echo.Context) error {
	var data announcement.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	a, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *announcementApi) retrieve(ctx echo.Context) error {
	a, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding announcement")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *announcementApi) update(ctx echo.Context) error {
	orig, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding announcement")
	}

	var data announcement.UpdateAnnouncement
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAnnouncement")
	}
	if err = data.Validate(orig, api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	a, err := api.svc.Update(ctx.Request().Context(), orig.ID, ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "updating announcement")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *announcementApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), ctxUsr); err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *announcementApi) markRead(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.MarkRead(ctx.Request().Context(), ctx.Param("id"), ctxUsr); err != nil {
		return errors.Wrap(err, "marking announcement as read")
	}
	return ctx.JSON(http.StatusOK, successResponse{Success: "marked as read"})
}

func (api *announcementApi) markAllRead(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	marked, err := api.svc.MarkAllRead(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "marking all announcements as read")
	}
	return ctx.JSON(http.StatusOK, markAllReadResponse{Marked: marked})
}
