package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core/course"
	"github.com/trezcool/portal/core/coursework"
	"github.com/trezcool/portal/core/student"
)

type courseworkApi struct {
	svc        *coursework.Service
	courseSvc  *course.Service
	studentSvc *student.Service
	validate   *validator.Validate
}

func registerCourseworkAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := courseworkApi{
		svc:        deps.CourseworkSvc,
		courseSvc:  deps.CourseSvc,
		studentSvc: deps.StudentSvc,
		validate:   deps.Validate,
	}

	ag := g.Group("/assignments", jwt)
	ag.GET("", api.queryAssignments)
	ag.POST("", api.createAssignment, staffMiddleware)
	ag.GET("/:id", api.retrieveAssignment, uuidParamMiddleware("id"))
	ag.PUT("/:id", api.updateAssignment, uuidParamMiddleware("id"), staffMiddleware)
	ag.DELETE("/:id", api.destroyAssignment, uuidParamMiddleware("id"), staffMiddleware)

	eg := g.Group("/exams", jwt)
	eg.GET("", api.queryExams)
	eg.POST("", api.createExam, staffMiddleware)
	eg.GET("/:id", api.retrieveExam, uuidParamMiddleware("id"))
	eg.PUT("/:id", api.updateExam, uuidParamMiddleware("id"), staffMiddleware)
	eg.DELETE("/:id", api.destroyExam, uuidParamMiddleware("id"), staffMiddleware)

	gg := g.Group("/grades", jwt)
	gg.GET("", api.queryGrades)
	gg.POST("", api.recordGrade, staffMiddleware)
	gg.DELETE("/:id", api.destroyGrade, uuidParamMiddleware("id"), staffMiddleware)
}

// Assignments

func (api *courseworkApi) queryAssignments(ctx echo.Context) error {
	q, err := bindListQuery(ctx, coursework.AssignmentColumns)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	assignments, err := api.svc.QueryAssignments(rctx, q)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	count, err := api.svc.CountAssignments(rctx, q.Filter)
	if err != nil {
		return errors.Wrap(err, "counting assignments")
	}
	if assignments == nil {
		assignments = []coursework.Assignment{}
	}
	setTotalCount(ctx, count)
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *courseworkApi) createAssignment(ctx echo.Context) error {
	var data coursework.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	if _, err := api.courseSvc.Get(rctx, data.CourseID); err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	a, err := api.svc.CreateAssignment(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *courseworkApi) retrieveAssignment(ctx echo.Context) error {
	a, err := api.svc.GetAssignment(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding assignment by ID")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *courseworkApi) updateAssignment(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	a, err := api.svc.GetAssignment(rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding assignment by ID")
	}

	var data coursework.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err = api.svc.UpdateAssignment(rctx, a, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *courseworkApi) destroyAssignment(ctx echo.Context) error {
	cnt, err := api.svc.DeleteAssignments(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	if cnt == 0 {
		return coursework.ErrAssignmentNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Exams

func (api *courseworkApi) queryExams(ctx echo.Context) error {
	q, err := bindListQuery(ctx, coursework.ExamColumns)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	exams, err := api.svc.QueryExams(rctx, q)
	if err != nil {
		return errors.Wrap(err, "querying exams")
	}
	count, err := api.svc.CountExams(rctx, q.Filter)
	if err != nil {
		return errors.Wrap(err, "counting exams")
	}
	if exams == nil {
		exams = []coursework.Exam{}
	}
	setTotalCount(ctx, count)
	return ctx.JSON(http.StatusOK, exams)
}

func (api *courseworkApi) createExam(ctx echo.Context) error {
	var data coursework.NewExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExam")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	if _, err := api.courseSvc.Get(rctx, data.CourseID); err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	e, err := api.svc.CreateExam(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating exam")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *courseworkApi) retrieveExam(ctx echo.Context) error {
	e, err := api.svc.GetExam(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding exam by ID")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *courseworkApi) updateExam(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	e, err := api.svc.GetExam(rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding exam by ID")
	}

	var data coursework.NewExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExam")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err = api.svc.UpdateExam(rctx, e, data)
	if err != nil {
		return errors.Wrap(err, "updating exam")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *courseworkApi) destroyExam(ctx echo.Context) error {
	cnt, err := api.svc.DeleteExams(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting exam")
	}
	if cnt == 0 {
		return coursework.ErrExamNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Grades

// queryGrades lists every grade to staff members, and their own grades to students.
func (api *courseworkApi) queryGrades(ctx echo.Context) error {
	q, err := bindListQuery(ctx, coursework.GradeColumns)
	if err != nil {
		return err
	}
	if err = scopeToStudent(ctx, api.studentSvc, q.Filter); err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	grades, err := api.svc.QueryGrades(rctx, q)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	count, err := api.svc.CountGrades(rctx, q.Filter)
	if err != nil {
		return errors.Wrap(err, "counting grades")
	}
	if grades == nil {
		grades = []coursework.Grade{}
	}
	setTotalCount(ctx, count)
	return ctx.JSON(http.StatusOK, grades)
}

func (api *courseworkApi) recordGrade(ctx echo.Context) error {
	var data coursework.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	if _, err := api.studentSvc.Get(rctx, data.StudentID); err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	grade, err := api.svc.RecordGrade(rctx, data)
	if err != nil {
		return errors.Wrap(err, "recording grade")
	}
	return ctx.JSON(http.StatusOK, grade)
}

func (api *courseworkApi) destroyGrade(ctx echo.Context) error {
	cnt, err := api.svc.DeleteGrades(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	if cnt == 0 {
		return coursework.ErrGradeNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}
