package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core/messaging"
	"github.com/trezcool/portal/core/user"
)

type messagingApi struct {
	svc      *messaging.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerMessagingAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := messagingApi{
		svc:      deps.MessagingSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	mg := g.Group("/messages", jwt)
	mg.GET("", api.inbox)
	mg.POST("", api.send)
	mg.GET("/unread", api.unreadCount)
	mg.POST("/:id/read", api.markRead, uuidParamMiddleware("id"))

	cg := g.Group("/chat", jwt)
	cg.GET("/:room", api.chatHistory)
	cg.POST("/:room", api.postChat)
}

// inbox returns the direct messages of the authenticated user along with the announcements.
func (api *messagingApi) inbox(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	msgs, err := api.svc.Inbox(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying inbox")
	}
	if msgs == nil {
		msgs = []messaging.Message{}
	}
	setTotalCount(ctx, len(msgs))
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *messagingApi) unreadCount(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	cnt, err := api.svc.UnreadCount(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "counting unread messages")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"unread": cnt})
}

// send sends a direct message; only staff members may send announcements.
func (api *messagingApi) send(ctx echo.Context) error {
	var data messaging.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	rctx := ctx.Request().Context()
	if data.RecipientID == "" {
		if !claims.IsStaff() {
			return errHttpForbidden
		}
	} else if _, err := api.usrSvc.GetByID(rctx, data.RecipientID); err != nil {
		return errors.Wrap(err, "finding recipient by ID")
	}

	m, err := api.svc.Send(rctx, claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *messagingApi) markRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	rctx := ctx.Request().Context()
	m, err := api.svc.Get(rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding message by ID")
	}
	m, err = api.svc.MarkRead(rctx, m, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "marking message read")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *messagingApi) chatHistory(ctx echo.Context) error {
	limit, err := parseUintParam(ctx.QueryParams(), limitParam)
	if err != nil {
		return err
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	msgs, err := api.svc.ChatHistory(ctx.Request().Context(), ctx.Param("room"), limit)
	if err != nil {
		return errors.Wrap(err, "querying chat history")
	}
	if msgs == nil {
		msgs = []messaging.ChatMessage{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *messagingApi) postChat(ctx echo.Context) error {
	var data messaging.NewChatMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChatMessage")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	m, err := api.svc.PostChat(ctx.Request().Context(), ctx.Param("room"), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "posting chat message")
	}
	return ctx.JSON(http.StatusCreated, m)
}
