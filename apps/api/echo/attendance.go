package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core/attendance"
	"github.com/trezcool/portal/core/student"
)

type attendanceApi struct {
	svc        *attendance.Service
	studentSvc *student.Service
	validate   *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{
		svc:        deps.AttendanceSvc,
		studentSvc: deps.StudentSvc,
		validate:   deps.Validate,
	}

	ag := g.Group("/attendance", jwt)
	ag.GET("", api.query)
	ag.POST("", api.mark, staffMiddleware)
	ag.DELETE("/:id", api.destroy, uuidParamMiddleware("id"), staffMiddleware)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	q, err := bindListQuery(ctx, attendance.Columns)
	if err != nil {
		return err
	}
	if err = scopeToStudent(ctx, api.studentSvc, q.Filter); err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	records, err := api.svc.Query(rctx, q)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	count, err := api.svc.Count(rctx, q.Filter)
	if err != nil {
		return errors.Wrap(err, "counting attendance")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	setTotalCount(ctx, count)
	return ctx.JSON(http.StatusOK, records)
}

// mark creates the record of the day or overwrites it.
func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	if _, err := api.studentSvc.Get(rctx, data.StudentID); err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	rec, err := api.svc.Mark(rctx, data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	cnt, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	if cnt == 0 {
		return attendance.ErrNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}
