package echoapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/user"
)

const webhookSecretHeader = "X-Webhook-Secret"

type webhookApi struct {
	svc      user.Service
	validate *validator.Validate
}

// registerWebhookAPI registers the identity provider's webhook. It is authenticated by a shared secret, not a JWT.
func registerWebhookAPI(g *echo.Group, secret string, svc user.Service, validate *validator.Validate) {
	api := webhookApi{
		svc:      svc,
		validate: validate,
	}
	g.POST("/identity/webhook", api.receive, webhookSecretMiddleware(secret))
}

func (api *webhookApi) receive(ctx echo.Context) error {
	var evt user.ProviderEvent
	if err := ctx.Bind(&evt); err != nil {
		return errors.Wrap(err, "binding to ProviderEvent")
	}
	if err := evt.Validate(api.validate); err != nil {
		return err
	}

	usr, synced, err := api.svc.Sync(ctx.Request().Context(), evt)
	if err != nil {
		return errors.Wrap(err, "syncing user")
	}
	if !synced {
		return ctx.JSON(http.StatusOK, successResponse{Success: "event ignored"})
	}
	return ctx.JSON(http.StatusOK, usr)
}

func webhookSecretMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			got := ctx.Request().Header.Get(webhookSecretHeader)
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				return errBadWebhookSecret
			}
			return next(ctx)
		}
	}
}
