package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/doubt"
)

type doubtApi struct {
	svc      doubt.Service
	validate *validator.Validate
}

func registerDoubtAPI(g *echo.Group, svc doubt.Service, validate *validator.Validate) {
	api := doubtApi{
		svc:      svc,
		validate: validate,
	}

	dg := g.Group("/doubts")
	dg.GET("", api.query)
	dg.GET("/mine", api.mine)
	dg.POST("", api.create)
	dg.GET("/:id", api.retrieve)
	dg.POST("/:id/respond", api.respond)
	dg.PUT("/:id/resolve", api.resolve)
}

func (api *doubtApi) query(ctx echo.Context) error {
	var filter doubt.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	var page core.Page
	if err := ctx.Bind(&page); err != nil {
		return errors.Wrap(err, "binding to Page")
	}
	page.Clean()

	doubts, total, err := api.svc.List(ctx.Request().Context(), filter, page)
	if err != nil {
		return errors.Wrap(err, "querying doubts")
	}
	if doubts == nil {
		doubts = []doubt.Doubt{}
	}
	return ctx.JSON(http.StatusOK, paged("doubts", doubts, page, total))
}

func (api *doubtApi) mine(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	doubts, err := api.svc.ListForStudent(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "listing student doubts")
	}
	if doubts == nil {
		doubts = []doubt.Doubt{}
	}
	return ctx.JSON(http.StatusOK, doubts)
}

func (api *doubtApi) create(ctx echo.Context) error {
	var data doubt.NewDoubt
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDoubt")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	d, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating doubt")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *doubtApi) retrieve(ctx echo.Context) error {
	d, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding doubt")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *doubtApi) respond(ctx echo.Context) error {
	var data doubt.NewResponse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResponse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	d, err := api.svc.Respond(ctx.Request().Context(), ctx.Param("id"), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "responding to doubt")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *doubtApi) resolve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	d, err := api.svc.Resolve(ctx.Request().Context(), ctx.Param("id"), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "resolving doubt")
	}
	return ctx.JSON(http.StatusOK, d)
}
