package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core/course"
	"github.com/trezcool/portal/core/student"
)

type courseApi struct {
	svc        *course.Service
	studentSvc *student.Service
	validate   *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{
		svc:        deps.CourseSvc,
		studentSvc: deps.StudentSvc,
		validate:   deps.Validate,
	}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, adminMiddleware())

	dg := cg.Group("/:id", uuidParamMiddleware("id"))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.GET("/enrollments", api.queryEnrollments, staffMiddleware)
	dg.POST("/enrollments", api.enroll, staffMiddleware)
	dg.DELETE("/enrollments/:student_id", api.unenroll, staffMiddleware, uuidParamMiddleware("student_id"))
}

func (api *courseApi) query(ctx echo.Context) error {
	q, err := bindListQuery(ctx, course.Columns)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	courses, err := api.svc.Query(rctx, q)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	count, err := api.svc.Count(rctx, q.Filter)
	if err != nil {
		return errors.Wrap(err, "counting courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	setTotalCount(ctx, count)
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	c, err := api.svc.Get(rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}

	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err = api.svc.Update(rctx, c, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	cnt, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if cnt == 0 {
		return course.ErrNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) queryEnrollments(ctx echo.Context) error {
	q, err := bindListQuery(ctx, course.EnrollmentColumns)
	if err != nil {
		return err
	}
	q.Filter["course_id"] = ctx.Param("id")

	enrollments, err := api.svc.Enrollments(ctx.Request().Context(), q)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrollments == nil {
		enrollments = []course.Enrollment{}
	}
	setTotalCount(ctx, len(enrollments))
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	var data course.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	c, err := api.svc.Get(rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	s, err := api.studentSvc.Get(rctx, data.StudentID)
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}

	e, err := api.svc.Enroll(rctx, c.ID, s.ID)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *courseApi) unenroll(ctx echo.Context) error {
	if err := api.svc.Unenroll(ctx.Request().Context(), ctx.Param("id"), ctx.Param("student_id")); err != nil {
		return errors.Wrap(err, "unenrolling student")
	}
	return ctx.NoContent(http.StatusNoContent)
}
