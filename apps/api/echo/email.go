package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core/user"
)

type emailApi struct {
	usrSvc   user.Service
	validate *validator.Validate
}

func registerEmailAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := emailApi{usrSvc: deps.UserSvc, validate: deps.Validate}

	eg := g.Group("/emails", jwt, adminMiddleware())
	eg.POST("/welcome", api.sendWelcome)
}

// sendWelcome dispatches the welcome email through the provider and waits for its answer.
func (api *emailApi) sendWelcome(ctx echo.Context) error {
	var data user.WelcomeEmail
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to WelcomeEmail")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.usrSvc.SendWelcomeEmail(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "sending welcome email")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Welcome email sent to " + data.Email + "."})
}
