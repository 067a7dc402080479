package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core/billing"
	"github.com/trezcool/portal/core/student"
)

var errPaymentNotFoundInCtx = errors.New("payment object not found in echo.Context")

type billingApi struct {
	svc        *billing.Service
	studentSvc *student.Service
	validate   *validator.Validate
}

func registerBillingAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := billingApi{
		svc:        deps.BillingSvc,
		studentSvc: deps.StudentSvc,
		validate:   deps.Validate,
	}

	pg := g.Group("/payments", jwt)
	pg.GET("", api.query)
	pg.POST("", api.create, adminMiddleware())

	dg := pg.Group("/:id", uuidParamMiddleware("id"), ctxPaymentMiddleware(api.svc, api.studentSvc))
	dg.GET("", api.retrieve)
	dg.POST("/pay", api.pay)
	dg.POST("/cancel", api.cancel, adminMiddleware())
}

func (api *billingApi) query(ctx echo.Context) error {
	q, err := bindListQuery(ctx, billing.Columns)
	if err != nil {
		return err
	}
	if err = scopeToStudent(ctx, api.studentSvc, q.Filter); err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	payments, err := api.svc.Query(rctx, q)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	count, err := api.svc.Count(rctx, q.Filter)
	if err != nil {
		return errors.Wrap(err, "counting payments")
	}
	if payments == nil {
		payments = []billing.Payment{}
	}
	setTotalCount(ctx, count)
	return ctx.JSON(http.StatusOK, payments)
}

func (api *billingApi) create(ctx echo.Context) error {
	var data billing.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	if _, err := api.studentSvc.Get(rctx, data.StudentID); err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	p, err := api.svc.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating payment")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *billingApi) retrieve(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(billing.Payment)
	if !ok {
		return errors.Wrap(errPaymentNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, p)
}

// pay settles a pending payment; students may settle their own.
func (api *billingApi) pay(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(billing.Payment)
	if !ok {
		return errors.Wrap(errPaymentNotFoundInCtx, "retrieving object from context")
	}
	p, err := api.svc.MarkPaid(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "marking payment paid")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *billingApi) cancel(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(billing.Payment)
	if !ok {
		return errors.Wrap(errPaymentNotFoundInCtx, "retrieving object from context")
	}
	p, err := api.svc.Cancel(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "cancelling payment")
	}
	return ctx.JSON(http.StatusOK, p)
}

// ctxPaymentMiddleware loads the payment `:id` for staff members and for the student it is billed to.
func ctxPaymentMiddleware(svc *billing.Service, studentSvc *student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := svc.Get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == billing.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding payment by ID")
			}
			ok, err := canAccessStudent(ctx, p.StudentID, studentSvc)
			if err != nil {
				return errors.Wrap(err, "checking student access")
			}
			if !ok {
				return errHttpNotFound
			}
			ctx.Set(contextObjectKey, p)
			return next(ctx)
		}
	}
}
